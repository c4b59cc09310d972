package onboarding

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/config"
	"quickscore/internal/common/logger"
	"quickscore/internal/models"
	"quickscore/internal/pipeline/credit"
	"quickscore/internal/pipeline/document"
	"quickscore/internal/pipeline/facematch"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
	"quickscore/internal/pipeline/liveness"
)

type stubLiveness struct {
	result liveness.Result
	calls  int
}

func (s *stubLiveness) Check(ctx context.Context, imageBase64 string) liveness.Result {
	s.calls++
	return s.result
}

type stubDocuments struct {
	idResult  document.Result
	byKind    map[string]document.Result
	idCalls   int
	kindCalls []string
}

func (s *stubDocuments) VerifyID(ctx context.Context, frontBase64, backBase64 string) document.Result {
	s.idCalls++
	return s.idResult
}

func (s *stubDocuments) VerifyBusinessDocument(ctx context.Context, imageBase64, kind string) document.Result {
	s.kindCalls = append(s.kindCalls, kind)
	return s.byKind[kind]
}

type stubFaces struct {
	result facematch.Result
	calls  int
}

func (s *stubFaces) Verify(ctx context.Context, liveBase64, idPhotoBase64 string) facematch.Result {
	s.calls++
	return s.result
}

type stubFinancial struct {
	record financial.Record
	calls  int
	last   financial.Input
}

func (s *stubFinancial) Analyze(ctx context.Context, input financial.Input) financial.Record {
	s.calls++
	s.last = input
	return s.record
}

type stubCredit struct {
	record   credit.Record
	panicOn  bool
	calls    int
	bizCalls int
	last     credit.Input
	lastBiz  credit.BusinessInput
}

func (s *stubCredit) Assess(ctx context.Context, input credit.Input) credit.Record {
	if s.panicOn {
		panic("assessment blew up")
	}
	s.calls++
	s.last = input
	if input.Identity.Recommendation == identity.RecommendReject {
		return credit.Rejection(input.Identity.DetailedFeedback)
	}
	return s.record
}

func (s *stubCredit) AssessBusiness(ctx context.Context, input credit.BusinessInput) credit.Record {
	s.bizCalls++
	s.lastBiz = input
	return s.record
}

type stubSource struct {
	transactions []models.MpesaTransaction
	statements   []models.BankStatement
	err          error
}

func (s *stubSource) Profile(tier models.RiskTier) models.FinancialProfile {
	return models.FinancialProfile{RiskTier: tier, MonthlyIncome: 40000, EmploymentStatus: models.EmploymentEmployed}
}

func (s *stubSource) MpesaTransactions(ctx context.Context, phoneNumber string, months int, profile models.FinancialProfile) ([]models.MpesaTransaction, error) {
	return s.transactions, s.err
}

func (s *stubSource) BankStatements(ctx context.Context, accountRef string, months int, profile models.FinancialProfile) ([]models.BankStatement, error) {
	return s.statements, s.err
}

type recordingObserver struct {
	runIDs    []string
	snapshots []Progress
}

func (o *recordingObserver) OnProgress(runID string, progress Progress) {
	o.runIDs = append(o.runIDs, runID)
	o.snapshots = append(o.snapshots, progress)
}

func testConfig() config.OnboardingConfig {
	return config.OnboardingConfig{
		FaceMatchThreshold: 75,
		ReviewThreshold:    70,
		StatementMonths:    6,
		EstimatedTotalSecs: 50,
	}
}

type fixture struct {
	liveness  *stubLiveness
	documents *stubDocuments
	faces     *stubFaces
	financial *stubFinancial
	credit    *stubCredit
	source    *stubSource
	observer  *recordingObserver
}

func passingFixture() *fixture {
	return &fixture{
		liveness: &stubLiveness{result: liveness.Result{
			Passed: true, Confidence: 95, SpoofingType: "none", QualityScore: 90,
		}},
		documents: &stubDocuments{
			idResult: document.Result{Authentic: true, Confidence: 92},
			byKind: map[string]document.Result{
				document.KindRegistration: {Authentic: true, Confidence: 90},
				document.KindTax:          {Authentic: true, Confidence: 86},
			},
		},
		faces: &stubFaces{result: facematch.Result{Match: true, Confidence: 80}},
		financial: &stubFinancial{record: financial.Record{
			OverallScore: 72,
		}},
		credit: &stubCredit{record: credit.Record{
			CreditScore:    74,
			ApprovalStatus: credit.StatusApproved,
		}},
		source: &stubSource{
			transactions: []models.MpesaTransaction{{ID: "MPE00000001"}, {ID: "MPE00000002"}},
			statements:   []models.BankStatement{{Month: "2026-07"}},
		},
		observer: &recordingObserver{},
	}
}

func (f *fixture) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return NewOrchestrator(testConfig(), f.liveness, f.documents, f.faces, f.financial, f.credit, f.source, f.observer, logger.NewTestLogger(t))
}

func individualRequest() IndividualRequest {
	return IndividualRequest{
		LivenessImage: "live-frame",
		IDFrontImage:  "id-front",
		IDBackImage:   "id-back",
		Personal: models.PersonalInfo{
			FullName:    "Jane Wanjiku",
			PhoneNumber: "+254700000000",
			DateOfBirth: "1990-04-12",
		},
		EmploymentStatus:    models.EmploymentEmployed,
		MonthlyIncome:       45000,
		FinancialConnection: FinancialConnection{Type: "mpesa"},
	}
}

func businessRequest() BusinessRequest {
	return BusinessRequest{
		Business: models.BusinessInfo{
			BusinessName:       "Mama Njeri Groceries",
			RegistrationNumber: "BN-2019-44821",
			YearsInOperation:   5,
			PhoneNumber:        "+254711000000",
		},
		Industry:       "Retail",
		EmployeeCount:  "6-10",
		MonthlyRevenue: 350000,
		Documents: BusinessDocuments{
			RegistrationCert: "reg-cert",
			TaxCert:          "tax-cert",
		},
		FinancialConnection: FinancialConnection{Type: "till"},
	}
}

func stepNames(steps []Step) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

func TestProcessIndividual_Success(t *testing.T) {
	f := passingFixture()
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ID, "USER_"))
	assert.Equal(t, credit.StatusApproved, result.Assessment.ApprovalStatus)

	// Every stage appears as processing then completed.
	require.Len(t, result.Steps, 10)
	for i, name := range []string{"Liveness Detection", "ID Verification", "Face Matching", "Financial Analysis", "Credit Assessment"} {
		assert.Equal(t, name, result.Steps[2*i].Name)
		assert.Equal(t, StepProcessing, result.Steps[2*i].Status)
		assert.Equal(t, name, result.Steps[2*i+1].Name)
		assert.Equal(t, StepCompleted, result.Steps[2*i+1].Status)
	}

	// Identity record synthesized from the gate results: (95+92+80)/3 rounds to 89.
	assert.Equal(t, 1, f.credit.calls)
	assert.Equal(t, identity.RecommendApprove, f.credit.last.Identity.Recommendation)
	assert.Equal(t, 89, f.credit.last.Identity.Confidence)
	assert.True(t, f.credit.last.Identity.Valid)

	// Financial analysis saw the fetched transactions.
	assert.Equal(t, 1, f.financial.calls)
	assert.Len(t, f.financial.last.Transactions, 2)
	assert.Equal(t, "+254700000000", f.financial.last.PhoneNumber)
}

func TestProcessIndividual_LivenessShortCircuit(t *testing.T) {
	f := passingFixture()
	f.liveness.result = liveness.Result{
		Passed:           false,
		SpoofingDetected: true,
		SpoofingType:     "photo",
		Recommendations:  []string{"Use better lighting"},
	}
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.False(t, result.Success)
	assert.Equal(t, credit.StatusRejected, result.Assessment.ApprovalStatus)

	// Exactly one failed step, and nothing after liveness ran.
	failed := 0
	for _, s := range result.Steps {
		if s.Status == StepFailed {
			failed++
			assert.Equal(t, "Liveness Detection", s.Name)
		}
	}
	assert.Equal(t, 1, failed)
	names := stepNames(result.Steps)
	assert.NotContains(t, names, "ID Verification")
	assert.NotContains(t, names, "Face Matching")
	assert.NotContains(t, names, "Financial Analysis")
	assert.NotContains(t, names, "Credit Assessment")

	assert.Equal(t, 0, f.documents.idCalls)
	assert.Equal(t, 0, f.faces.calls)
	assert.Equal(t, 0, f.financial.calls)
	assert.Equal(t, 0, f.credit.calls)
}

func TestProcessIndividual_ForgedIDRejected(t *testing.T) {
	f := passingFixture()
	f.documents.idResult = document.Result{
		Authentic:         false,
		ForgeryDetected:   true,
		ForgeryIndicators: []string{"Hologram missing"},
	}
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Assessment.RejectionReasons)
	assert.Contains(t, result.Assessment.RejectionReasons[0], "FORGERY DETECTED: Hologram missing")
	assert.Equal(t, 0, f.faces.calls)
}

func TestProcessIndividual_FaceGateBelowThreshold(t *testing.T) {
	// A 60% match passes the aggregator's 70 review boundary logic but fails
	// the stricter onboarding gate at 75.
	f := passingFixture()
	f.faces.result = facematch.Result{
		Match:      true,
		Confidence: 60,
		Reasons:    []string{"Low similarity on jawline"},
	}
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.False(t, result.Success)
	var failedStep *Step
	for i := range result.Steps {
		if result.Steps[i].Status == StepFailed {
			failedStep = &result.Steps[i]
		}
	}
	require.NotNil(t, failedStep)
	assert.Equal(t, "Face Matching", failedStep.Name)
	assert.Equal(t, 0, f.financial.calls)
	assert.Equal(t, 0, f.credit.calls)
}

func TestProcessIndividual_ProgressSnapshots(t *testing.T) {
	f := passingFixture()
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	require.Len(t, f.observer.snapshots, 6)
	for _, runID := range f.observer.runIDs {
		assert.Equal(t, result.ID, runID)
	}

	expected := []struct {
		stage   string
		percent int
	}{
		{StageIdentity, 10},
		{StageIdentity, 25},
		{StageIdentity, 40},
		{StageFinancial, 60},
		{StageAssessment, 80},
		{StageComplete, 100},
	}
	for i, want := range expected {
		assert.Equal(t, want.stage, f.observer.snapshots[i].Stage)
		assert.Equal(t, want.percent, f.observer.snapshots[i].Percent)
	}
	assert.Equal(t, 0, f.observer.snapshots[5].EstimatedSecondsRemaining)
	assert.Equal(t, 45, f.observer.snapshots[0].EstimatedSecondsRemaining)
}

func TestProcessIndividual_NilObserver(t *testing.T) {
	f := passingFixture()
	o := NewOrchestrator(testConfig(), f.liveness, f.documents, f.faces, f.financial, f.credit, f.source, nil, logger.NewTestLogger(t))

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.True(t, result.Success)
}

func TestProcessIndividual_PanicRecovered(t *testing.T) {
	f := passingFixture()
	f.credit.panicOn = true
	o := f.orchestrator(t)

	result := o.ProcessIndividual(context.Background(), individualRequest())

	assert.False(t, result.Success)
	assert.Equal(t, credit.StatusRejected, result.Assessment.ApprovalStatus)
	require.NotEmpty(t, result.Assessment.RejectionReasons)
	assert.Contains(t, result.Assessment.RejectionReasons[0], "unexpected error")
}

func TestProcessBusiness_Success(t *testing.T) {
	f := passingFixture()
	o := f.orchestrator(t)

	result := o.ProcessBusiness(context.Background(), businessRequest())

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ID, "BIZ_"))
	assert.Equal(t, []string{document.KindRegistration, document.KindTax}, f.documents.kindCalls)

	require.Len(t, result.Steps, 8)
	for i, name := range []string{"Business Registration", "Tax Verification", "Financial Analysis", "Credit Assessment"} {
		assert.Equal(t, name, result.Steps[2*i].Name)
		assert.Equal(t, StepCompleted, result.Steps[2*i+1].Status)
	}

	assert.Equal(t, 1, f.credit.bizCalls)
	assert.True(t, f.credit.lastBiz.DocumentsVerified)
	assert.Equal(t, 88, f.credit.lastBiz.DocumentConfidence) // (90+86)/2
	assert.Equal(t, 350000.0, f.credit.lastBiz.MonthlyRevenue)
}

func TestProcessBusiness_TaxCertificateRejected(t *testing.T) {
	f := passingFixture()
	f.documents.byKind[document.KindTax] = document.Result{
		Authentic: false,
		Warnings:  []string{"PIN not legible"},
	}
	o := f.orchestrator(t)

	result := o.ProcessBusiness(context.Background(), businessRequest())

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Assessment.RejectionReasons)
	assert.Contains(t, result.Assessment.RejectionReasons[0], "Tax document issues: PIN not legible")
	assert.Equal(t, 0, f.credit.bizCalls)

	names := stepNames(result.Steps)
	assert.NotContains(t, names, "Financial Analysis")
	assert.NotContains(t, names, "Credit Assessment")
}

func TestProcessBusiness_ProgressSnapshots(t *testing.T) {
	f := passingFixture()
	o := f.orchestrator(t)

	o.ProcessBusiness(context.Background(), businessRequest())

	require.Len(t, f.observer.snapshots, 5)
	percents := make([]int, 0, 5)
	for _, p := range f.observer.snapshots {
		percents = append(percents, p.Percent)
	}
	assert.Equal(t, []int{15, 35, 55, 80, 100}, percents)
	assert.Equal(t, "Business onboarding complete!", f.observer.snapshots[4].CurrentAction)
}
