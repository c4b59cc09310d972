package credit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
	"quickscore/internal/models"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
)

type stubGenerator struct {
	output json.RawMessage
	err    error
	last   genai.Request
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, req genai.Request) (json.RawMessage, error) {
	s.calls++
	s.last = req
	return s.output, s.err
}

func passingIdentity() identity.Record {
	return identity.Record{
		Valid:      true,
		Confidence: 85,
		FaceMatch: identity.FaceMatch{
			Matched:    true,
			Confidence: 88,
			Reason:     "Strong facial similarity",
		},
		IDVerification: identity.IDAnalysis{
			Forged:     false,
			Confidence: 90,
			Issues:     []string{},
		},
		LivenessCheck: identity.LivenessCheck{
			Passed:     true,
			Confidence: 80,
		},
		Recommendation:   identity.RecommendApprove,
		DetailedFeedback: "Identity verified successfully!",
	}
}

func passingFinancial() financial.Record {
	return financial.Record{
		OverallScore: 72,
		IncomeStability: financial.IncomeStability{
			Score:                75,
			AverageMonthlyIncome: 45000,
			IncomeConsistency:    "STABLE",
			Analysis:             "Regular salary credits",
		},
		SpendingBehavior: financial.SpendingBehavior{
			Score:                  70,
			AverageMonthlyExpenses: 30000,
			SpendingPattern:        "MODERATE",
			Analysis:               "Predictable spending",
		},
		SavingsBehavior: financial.SavingsBehavior{
			Score:                 65,
			AverageMonthlySavings: 10000,
			SavingsRate:           22.2,
			SavingsConsistency:    "GOOD",
			Analysis:              "Consistent surplus",
		},
		DebtIndicators: financial.DebtIndicators{
			Score:     80,
			RiskLevel: "LOW",
			Analysis:  "No debt found",
		},
		TransactionPatterns: financial.TransactionPatterns{
			TotalTransactions: 120,
			RegularPayments:   []string{"KPLC"},
		},
		Recommendation: financial.LoanRecommendation{
			Eligible:              true,
			MaxLoanAmount:         90000,
			SuggestedInterestRate: 14.5,
			MaxRepaymentMonths:    12,
			Reasoning:             "Stable income with headroom",
		},
	}
}

func validAssessmentJSON() json.RawMessage {
	return json.RawMessage(`{
		"creditScore": 74,
		"approvalStatus": "APPROVED",
		"loanRecommendation": {
			"minAmount": 10000,
			"maxAmount": 90000,
			"recommendedAmount": 50000,
			"interestRate": {"min": 12, "max": 16, "recommended": 14},
			"repaymentPeriod": {"minMonths": 3, "maxMonths": 12, "recommendedMonths": 9},
			"monthlyRepayment": {"min": 1200, "max": 8500, "recommended": 6100}
		},
		"assessmentFactors": {
			"identityVerification": {"score": 85, "weight": 30, "impact": "POSITIVE", "details": "All identity checks passed"},
			"incomeStability": {"score": 75, "weight": 25, "impact": "POSITIVE", "details": "Stable salary"},
			"spendingBehavior": {"score": 70, "weight": 20, "impact": "NEUTRAL", "details": "Moderate spending"},
			"savingsCapacity": {"score": 65, "weight": 15, "impact": "POSITIVE", "details": "Good savings rate"},
			"debtBurden": {"score": 80, "weight": 10, "impact": "POSITIVE", "details": "No existing debt"}
		},
		"keyInsights": [
			{"type": "STRENGTH", "title": "Stable Income", "description": "Regular salary deposits", "impact": "HIGH"}
		],
		"riskAssessment": {
			"overallRisk": "LOW",
			"defaultProbability": 8,
			"riskFactors": [],
			"mitigationSuggestions": []
		},
		"conditions": [],
		"detailedExplanation": "Strong application across all factors.",
		"nextSteps": ["Review and accept the loan offer."]
	}`)
}

func TestHandler_Assess_Success(t *testing.T) {
	gen := &stubGenerator{output: validAssessmentJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	record := h.Assess(context.Background(), Input{
		Applicant: ApplicantInfo{
			FullName:         "Jane Wanjiku",
			DateOfBirth:      "1990-04-12",
			EmploymentStatus: models.EmploymentEmployed,
			MonthlyIncome:    45000,
			EmployerName:     "Acme Ltd",
		},
		Identity:  passingIdentity(),
		Financial: passingFinancial(),
	})

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 74, record.CreditScore)
	assert.Equal(t, StatusApproved, record.ApprovalStatus)
	assert.Equal(t, 50000.0, record.LoanRecommendation.RecommendedAmount)
	assert.Equal(t, "LOW", record.RiskAssessment.OverallRisk)

	assert.Equal(t, Task, gen.last.Task)
	assert.InDelta(t, 0.2, gen.last.Temperature, 0.001)
	assert.Empty(t, gen.last.Media)
}

func TestHandler_Assess_PromptContents(t *testing.T) {
	gen := &stubGenerator{output: validAssessmentJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	h.Assess(context.Background(), Input{
		Applicant: ApplicantInfo{
			FullName:         "Jane Wanjiku",
			DateOfBirth:      "1990-04-12",
			EmploymentStatus: models.EmploymentEmployed,
			MonthlyIncome:    45000,
		},
		Identity:  passingIdentity(),
		Financial: passingFinancial(),
		LoanRequest: &models.LoanRequest{
			Amount:          60000,
			Purpose:         "Working capital",
			RepaymentMonths: 12,
		},
	})

	prompt := gen.last.Prompt
	assert.Contains(t, prompt, "- Name: Jane Wanjiku")
	assert.Contains(t, prompt, "- Stated Income: KES 45000")
	assert.Contains(t, prompt, "- Face Match: PASSED (88%)")
	assert.Contains(t, prompt, "- ID Authenticity: AUTHENTIC")
	assert.Contains(t, prompt, "- Liveness Check: PASSED")
	assert.Contains(t, prompt, "- Overall Financial Score: 72/100")
	assert.Contains(t, prompt, "- Requested Amount: KES 60000")
	assert.Contains(t, prompt, "- Identity Verification: 30% weight")
	assert.Contains(t, prompt, "- Income Stability: 25% weight")
	assert.Contains(t, prompt, "- Spending Behavior: 20% weight")
	assert.Contains(t, prompt, "- Savings Capacity: 15% weight")
	assert.Contains(t, prompt, "- Debt Burden: 10% weight")
	assert.Contains(t, prompt, "APPROVED: Score >=70")
}

func TestHandler_Assess_FastPathRejection(t *testing.T) {
	gen := &stubGenerator{output: validAssessmentJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	id := identity.Record{
		Valid:      false,
		Confidence: 40,
		IDVerification: identity.IDAnalysis{
			Forged:     true,
			Confidence: 40,
			Issues:     []string{"Hologram missing", "Font mismatch"},
		},
		Recommendation:   identity.RecommendReject,
		DetailedFeedback: "Identity verification failed. Your ID document appears to be forged or tampered with.",
	}

	record := h.Assess(context.Background(), Input{
		Applicant: ApplicantInfo{FullName: "Jane Wanjiku"},
		Identity:  id,
		Financial: passingFinancial(),
	})

	// The rejection is synthesized locally, no model call happens.
	assert.Equal(t, 0, gen.calls)

	assert.Equal(t, 0, record.CreditScore)
	assert.Equal(t, StatusRejected, record.ApprovalStatus)
	assert.Equal(t, LoanRecommendation{}, record.LoanRecommendation)

	factors := record.AssessmentFactors
	assert.Equal(t, Factor{Score: 40, Weight: 30, Impact: "NEGATIVE", Details: "Identity verification failed"}, factors.IdentityVerification)
	for _, f := range []Factor{factors.IncomeStability, factors.SpendingBehavior, factors.SavingsCapacity, factors.DebtBurden} {
		assert.Equal(t, 0, f.Score)
		assert.Equal(t, "NEUTRAL", f.Impact)
		assert.Equal(t, "Not assessed due to identity verification failure", f.Details)
	}
	assert.Equal(t, 25, factors.IncomeStability.Weight)
	assert.Equal(t, 20, factors.SpendingBehavior.Weight)
	assert.Equal(t, 15, factors.SavingsCapacity.Weight)
	assert.Equal(t, 10, factors.DebtBurden.Weight)

	require.Len(t, record.KeyInsights, 1)
	assert.Equal(t, Insight{
		Type:        "WARNING",
		Title:       "Identity Verification Failed",
		Description: id.DetailedFeedback,
		Impact:      "HIGH",
	}, record.KeyInsights[0])

	assert.Equal(t, "VERY_HIGH", record.RiskAssessment.OverallRisk)
	assert.Equal(t, 100, record.RiskAssessment.DefaultProbability)
	assert.Equal(t, []string{"Identity verification failed"}, record.RiskAssessment.RiskFactors)
	assert.Empty(t, record.Conditions)
	assert.Equal(t, id.DetailedFeedback, record.DetailedExplanation)
	assert.Equal(t, []string{
		"Your application has been rejected due to identity verification issues.",
		"Please contact support if you believe this is an error.",
	}, record.NextSteps)
	assert.Equal(t, []string{id.DetailedFeedback, "Hologram missing", "Font mismatch"}, record.RejectionReasons)
}

func TestHandler_Assess_GatewayFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: genai.ErrGatewayTimeout},
		{name: "call failure", err: genai.ErrGatewayCall},
		{name: "schema violation", err: genai.ErrSchemaViolation},
		{name: "other error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

			record := h.Assess(context.Background(), Input{
				Applicant: ApplicantInfo{FullName: "Jane Wanjiku"},
				Identity:  passingIdentity(),
				Financial: passingFinancial(),
			})

			assert.Equal(t, 1, gen.calls)
			assert.Equal(t, StatusRejected, record.ApprovalStatus)
			assert.Equal(t, 0, record.CreditScore)
			assert.Equal(t, []string{"Technical error during assessment"}, record.RejectionReasons)
			assert.Equal(t, "VERY_HIGH", record.RiskAssessment.OverallRisk)
		})
	}
}

func TestHandler_Assess_MalformedOutput(t *testing.T) {
	gen := &stubGenerator{output: json.RawMessage(`{"creditScore": "not-a-number"}`)}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	record := h.Assess(context.Background(), Input{
		Identity:  passingIdentity(),
		Financial: passingFinancial(),
	})

	assert.Equal(t, StatusRejected, record.ApprovalStatus)
	assert.Equal(t, []string{"Technical error during assessment"}, record.RejectionReasons)
}

func TestHandler_AssessBusiness_Success(t *testing.T) {
	gen := &stubGenerator{output: validAssessmentJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	record := h.AssessBusiness(context.Background(), BusinessInput{
		Business: models.BusinessInfo{
			BusinessName:       "Mama Njeri Groceries",
			RegistrationNumber: "BN-2019-44821",
			YearsInOperation:   5,
		},
		MonthlyRevenue:     350000,
		Industry:           "Retail",
		EmployeeCount:      "6-10",
		DocumentsVerified:  true,
		DocumentConfidence: 92,
	})

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 74, record.CreditScore)
	assert.InDelta(t, 0.3, gen.last.Temperature, 0.001)

	prompt := gen.last.Prompt
	assert.Contains(t, prompt, "- Name: Mama Njeri Groceries")
	assert.Contains(t, prompt, "- Registration: BN-2019-44821")
	assert.Contains(t, prompt, "- Documents Verified: YES")
	assert.Contains(t, prompt, "1. Business Legitimacy (25%)")
	assert.Contains(t, prompt, "2. Revenue Stability (30%)")
	assert.Contains(t, prompt, "3. Cash Flow Health (25%)")
	assert.Contains(t, prompt, "4. Industry Risk (10%)")
	assert.Contains(t, prompt, "5. Business Age & Size (10%)")
	assert.Contains(t, prompt, "- Approved: 3-6 months revenue")
	assert.Contains(t, prompt, "- Interest: 10-18% based on risk")
}

func TestHandler_AssessBusiness_GatewayFailure(t *testing.T) {
	gen := &stubGenerator{err: genai.ErrGatewayCall}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	record := h.AssessBusiness(context.Background(), BusinessInput{
		Business: models.BusinessInfo{BusinessName: "Mama Njeri Groceries"},
	})

	assert.Equal(t, StatusRejected, record.ApprovalStatus)
	assert.Equal(t, []string{"Technical error during business assessment"}, record.RejectionReasons)
}

func TestRejection_Shape(t *testing.T) {
	record := Rejection("Liveness detection failed")

	assert.Equal(t, 0, record.CreditScore)
	assert.Equal(t, StatusRejected, record.ApprovalStatus)
	assert.Equal(t, "VERY_HIGH", record.RiskAssessment.OverallRisk)
	assert.Equal(t, 100, record.RiskAssessment.DefaultProbability)
	assert.Equal(t, []string{"Liveness detection failed"}, record.RejectionReasons)
	assert.Equal(t, "Liveness detection failed", record.DetailedExplanation)
	for _, f := range []Factor{
		record.AssessmentFactors.IdentityVerification,
		record.AssessmentFactors.IncomeStability,
		record.AssessmentFactors.SpendingBehavior,
		record.AssessmentFactors.SavingsCapacity,
		record.AssessmentFactors.DebtBurden,
	} {
		assert.Equal(t, 0, f.Score)
		assert.True(t, strings.Contains(f.Details, "Liveness detection failed"))
	}
}
