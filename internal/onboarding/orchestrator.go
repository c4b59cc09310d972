// internal/onboarding/orchestrator.go
package onboarding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quickscore/internal/common/config"
	"quickscore/internal/common/logger"
	"quickscore/internal/common/metrics"
	"quickscore/internal/datasource"
	"quickscore/internal/models"
	"quickscore/internal/pipeline/credit"
	"quickscore/internal/pipeline/document"
	"quickscore/internal/pipeline/facematch"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
	"quickscore/internal/pipeline/liveness"
)

// Collaborator interfaces. The pipeline adapters satisfy these; tests
// substitute stubs.
type LivenessChecker interface {
	Check(ctx context.Context, imageBase64 string) liveness.Result
}

type DocumentVerifier interface {
	VerifyID(ctx context.Context, frontBase64, backBase64 string) document.Result
	VerifyBusinessDocument(ctx context.Context, imageBase64, kind string) document.Result
}

type FaceMatcher interface {
	Verify(ctx context.Context, liveBase64, idPhotoBase64 string) facematch.Result
}

type FinancialAnalyzer interface {
	Analyze(ctx context.Context, input financial.Input) financial.Record
}

type CreditAssessor interface {
	Assess(ctx context.Context, input credit.Input) credit.Record
	AssessBusiness(ctx context.Context, input credit.BusinessInput) credit.Record
}

// Orchestrator drives a full onboarding run through the verification and
// assessment stages. Each stage is awaited before the next begins; the first
// failed gate short-circuits the rest of the run.
type Orchestrator struct {
	config    config.OnboardingConfig
	liveness  LivenessChecker
	documents DocumentVerifier
	faces     FaceMatcher
	financial FinancialAnalyzer
	credit    CreditAssessor
	source    datasource.Source
	observer  ProgressObserver
	logger    logger.Logger
}

func NewOrchestrator(
	cfg config.OnboardingConfig,
	livenessChecker LivenessChecker,
	documentVerifier DocumentVerifier,
	faceMatcher FaceMatcher,
	financialAnalyzer FinancialAnalyzer,
	creditAssessor CreditAssessor,
	source datasource.Source,
	observer ProgressObserver,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:    cfg,
		liveness:  livenessChecker,
		documents: documentVerifier,
		faces:     faceMatcher,
		financial: financialAnalyzer,
		credit:    creditAssessor,
		source:    source,
		observer:  observer,
		logger: log.With(map[string]interface{}{
			"component": "onboarding",
		}),
	}
}

// run holds the per-run state so concurrent requests stay isolated.
type run struct {
	id    string
	steps []Step
}

func (r *run) add(name, status, message string) {
	r.steps = append(r.steps, Step{
		Name:      name,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) emit(r *run, stage string, percent int, action string) {
	if o.observer == nil {
		return
	}
	remaining := o.config.EstimatedTotalSecs * (100 - percent) / 100
	o.observer.OnProgress(r.id, Progress{
		Stage:                     stage,
		Percent:                   percent,
		CurrentAction:             action,
		EstimatedSecondsRemaining: remaining,
	})
}

func (o *Orchestrator) reject(r *run, message string) Result {
	return Result{
		ID:         r.id,
		Success:    false,
		Assessment: credit.Rejection(message),
		Steps:      r.steps,
	}
}

// ProcessIndividual runs the individual onboarding flow. It never returns an
// error: gate failures produce rejection results and internal panics are
// converted into a generic failed result.
func (o *Orchestrator) ProcessIndividual(ctx context.Context, req IndividualRequest) (result Result) {
	r := &run{id: "USER_" + uuid.NewString()}
	log := o.logger.With(map[string]interface{}{"runId": r.id, "applicantType": "individual"})
	started := time.Now()
	metrics.OnboardingActive.WithLabelValues("individual").Inc()

	defer func() {
		metrics.OnboardingActive.WithLabelValues("individual").Dec()
		if rec := recover(); rec != nil {
			log.Error("Onboarding run panicked", map[string]interface{}{"panic": fmt.Sprint(rec)})
			result = o.reject(r, "An unexpected error occurred during onboarding. Please try again.")
		}
		outcome := "rejected"
		if result.Success {
			outcome = "completed"
		}
		metrics.OnboardingRuns.WithLabelValues("individual", outcome).Inc()
		log.Info("Onboarding run finished", map[string]interface{}{
			"success":  result.Success,
			"duration": time.Since(started).String(),
		})
	}()

	o.emit(r, StageIdentity, 10, "Starting identity verification...")

	r.add("Liveness Detection", StepProcessing, "Analyzing live selfie for spoofing...")
	livenessResult := o.liveness.Check(ctx, req.LivenessImage)
	if !livenessResult.Passed {
		r.add("Liveness Detection", StepFailed,
			fmt.Sprintf("Liveness check failed: %s", strings.Join(livenessResult.Recommendations, ", ")))
		return o.reject(r, fmt.Sprintf("We couldn't verify that you're a real person. %s",
			strings.Join(livenessResult.Recommendations, " ")))
	}
	r.add("Liveness Detection", StepCompleted,
		fmt.Sprintf("Passed with %d%% confidence", livenessResult.Confidence))
	o.emit(r, StageIdentity, 25, "Verifying ID document...")

	r.add("ID Verification", StepProcessing, "Analyzing ID for authenticity...")
	idResult := o.documents.VerifyID(ctx, req.IDFrontImage, req.IDBackImage)
	if !idResult.Authentic || idResult.ForgeryDetected {
		r.add("ID Verification", StepFailed,
			fmt.Sprintf("ID verification failed: %s", strings.Join(idResult.ForgeryIndicators, ", ")))
		message := fmt.Sprintf("ID verification issues: %s", strings.Join(idResult.Warnings, ". "))
		if idResult.ForgeryDetected {
			message = fmt.Sprintf("FORGERY DETECTED: %s. Please provide a genuine ID document.",
				strings.Join(idResult.ForgeryIndicators, ". "))
		}
		return o.reject(r, message)
	}
	r.add("ID Verification", StepCompleted,
		fmt.Sprintf("ID verified with %d%% confidence", idResult.Confidence))
	o.emit(r, StageIdentity, 40, "Matching face with ID photo...")

	r.add("Face Matching", StepProcessing, "Comparing your face with ID photo...")
	faceResult := o.faces.Verify(ctx, req.LivenessImage, req.IDFrontImage)
	if !faceResult.Match || faceResult.Confidence < o.config.FaceMatchThreshold {
		r.add("Face Matching", StepFailed,
			fmt.Sprintf("Face mismatch: %s", strings.Join(faceResult.Reasons, ", ")))
		message := fmt.Sprintf("The face in your selfie doesn't match the ID photo. %s.",
			strings.Join(faceResult.Reasons, ". "))
		if len(faceResult.FraudIndicators) > 0 {
			message += " FRAUD INDICATORS: " + strings.Join(faceResult.FraudIndicators, ". ")
		}
		return o.reject(r, message)
	}
	r.add("Face Matching", StepCompleted,
		fmt.Sprintf("Face matched with %d%% confidence", faceResult.Confidence))
	o.emit(r, StageFinancial, 60, "Analyzing financial data...")

	r.add("Financial Analysis", StepProcessing, "Fetching and analyzing financial data...")
	profile := o.source.Profile(models.RiskLow)
	profile.MonthlyIncome = req.MonthlyIncome
	profile.EmploymentStatus = req.EmploymentStatus

	var transactions []models.MpesaTransaction
	var statements []models.BankStatement
	var err error
	switch req.FinancialConnection.Type {
	case "mpesa":
		transactions, err = o.source.MpesaTransactions(ctx, req.Personal.PhoneNumber, 3, profile)
	case "bank":
		statements, err = o.source.BankStatements(ctx, req.FinancialConnection.AccountRef, o.config.StatementMonths, profile)
	}
	if err != nil {
		r.add("Financial Analysis", StepFailed, "Financial records could not be retrieved")
		return o.reject(r, "We could not retrieve your financial records. Please reconnect your account and try again.")
	}

	finRecord := o.financial.Analyze(ctx, financial.Input{
		PhoneNumber:      req.Personal.PhoneNumber,
		Transactions:     transactions,
		Statements:       statements,
		EmploymentStatus: req.EmploymentStatus,
		MonthlyIncome:    req.MonthlyIncome,
	})
	r.add("Financial Analysis", StepCompleted,
		fmt.Sprintf("Analyzed %d transactions", len(transactions)+len(statements)))
	o.emit(r, StageAssessment, 80, "Calculating credit score...")

	r.add("Credit Assessment", StepProcessing, "Evaluating your creditworthiness...")
	idRecord := identity.Decide(o.config.ReviewThreshold,
		identity.IDAnalysis{
			Forged:     idResult.ForgeryDetected,
			Confidence: idResult.Confidence,
			Issues:     idResult.ForgeryIndicators,
		},
		identity.LivenessCheck{
			Passed:     livenessResult.Passed,
			Confidence: livenessResult.Confidence,
		},
		identity.FaceMatch{
			Matched:    faceResult.Match,
			Confidence: faceResult.Confidence,
			Reason:     strings.Join(faceResult.Reasons, ". "),
		},
	)

	assessment := o.credit.Assess(ctx, credit.Input{
		Applicant: credit.ApplicantInfo{
			FullName:         req.Personal.FullName,
			DateOfBirth:      req.Personal.DateOfBirth,
			EmploymentStatus: req.EmploymentStatus,
			MonthlyIncome:    req.MonthlyIncome,
		},
		Identity:    idRecord,
		Financial:   finRecord,
		LoanRequest: req.LoanRequest,
	})
	r.add("Credit Assessment", StepCompleted,
		fmt.Sprintf("Assessment complete: Score %d/100", assessment.CreditScore))
	o.emit(r, StageComplete, 100, "Onboarding complete!")

	return Result{
		ID:         r.id,
		Success:    assessment.ApprovalStatus != credit.StatusRejected,
		Assessment: assessment,
		Steps:      r.steps,
	}
}

// ProcessBusiness runs the business onboarding flow. Like ProcessIndividual
// it never returns an error.
func (o *Orchestrator) ProcessBusiness(ctx context.Context, req BusinessRequest) (result Result) {
	r := &run{id: "BIZ_" + uuid.NewString()}
	log := o.logger.With(map[string]interface{}{"runId": r.id, "applicantType": "business"})
	started := time.Now()
	metrics.OnboardingActive.WithLabelValues("business").Inc()

	defer func() {
		metrics.OnboardingActive.WithLabelValues("business").Dec()
		if rec := recover(); rec != nil {
			log.Error("Onboarding run panicked", map[string]interface{}{"panic": fmt.Sprint(rec)})
			result = o.reject(r, "An unexpected error occurred during onboarding. Please try again.")
		}
		outcome := "rejected"
		if result.Success {
			outcome = "completed"
		}
		metrics.OnboardingRuns.WithLabelValues("business", outcome).Inc()
		log.Info("Onboarding run finished", map[string]interface{}{
			"success":  result.Success,
			"duration": time.Since(started).String(),
		})
	}()

	o.emit(r, StageDocuments, 15, "Verifying business documents...")

	r.add("Business Registration", StepProcessing, "Verifying business registration...")
	regResult := o.documents.VerifyBusinessDocument(ctx, req.Documents.RegistrationCert, document.KindRegistration)
	if !regResult.Authentic {
		r.add("Business Registration", StepFailed, "Registration verification failed")
		return o.reject(r, fmt.Sprintf("Registration document issues: %s",
			strings.Join(regResult.ForgeryIndicators, ". ")))
	}
	r.add("Business Registration", StepCompleted, "Registration verified")
	o.emit(r, StageDocuments, 35, "Verifying tax documents...")

	r.add("Tax Verification", StepProcessing, "Verifying KRA PIN certificate...")
	taxResult := o.documents.VerifyBusinessDocument(ctx, req.Documents.TaxCert, document.KindTax)
	if !taxResult.Authentic {
		r.add("Tax Verification", StepFailed, "Tax certificate verification failed")
		return o.reject(r, fmt.Sprintf("Tax document issues: %s",
			strings.Join(taxResult.Warnings, ". ")))
	}
	r.add("Tax Verification", StepCompleted, "Tax compliance verified")
	o.emit(r, StageFinancial, 55, "Analyzing business financials...")

	r.add("Financial Analysis", StepProcessing, "Analyzing business transactions...")
	profile := o.source.Profile(models.RiskMedium)
	if req.MonthlyRevenue > 0 {
		profile.MonthlyIncome = req.MonthlyRevenue
	}

	transactions, err := o.source.MpesaTransactions(ctx, req.Business.PhoneNumber, 6, profile)
	if err != nil {
		r.add("Financial Analysis", StepFailed, "Business records could not be retrieved")
		return o.reject(r, "We could not retrieve the business financial records. Please try again.")
	}
	statements, err := o.source.BankStatements(ctx, req.FinancialConnection.AccountRef, 2*o.config.StatementMonths, profile)
	if err != nil {
		r.add("Financial Analysis", StepFailed, "Business records could not be retrieved")
		return o.reject(r, "We could not retrieve the business financial records. Please try again.")
	}
	r.add("Financial Analysis", StepCompleted,
		fmt.Sprintf("Analyzed %d business transactions", len(transactions)+len(statements)))
	o.emit(r, StageAssessment, 80, "Calculating business credit score...")

	r.add("Credit Assessment", StepProcessing, "Evaluating business creditworthiness...")
	assessment := o.credit.AssessBusiness(ctx, credit.BusinessInput{
		Business:           req.Business,
		MonthlyRevenue:     req.MonthlyRevenue,
		Industry:           req.Industry,
		EmployeeCount:      req.EmployeeCount,
		DocumentsVerified:  true,
		DocumentConfidence: (regResult.Confidence + taxResult.Confidence) / 2,
		Transactions:       transactions,
		Statements:         statements,
	})
	r.add("Credit Assessment", StepCompleted,
		fmt.Sprintf("Business assessment complete: Score %d/100", assessment.CreditScore))
	o.emit(r, StageComplete, 100, "Business onboarding complete!")

	return Result{
		ID:         r.id,
		Success:    assessment.ApprovalStatus != credit.StatusRejected,
		Assessment: assessment,
		Steps:      r.steps,
	}
}
