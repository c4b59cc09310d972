// internal/pipeline/credit/handler.go
package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
	"quickscore/internal/pipeline/identity"
)

// Handler produces the final credit decision for an application.
type Handler struct {
	config Config
	gen    genai.Generator
	logger logger.Logger
}

func NewHandler(cfg Config, gen genai.Generator, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		gen:    gen,
		logger: log.With(map[string]interface{}{
			"task": Task,
		}),
	}
}

// Assess runs the individual credit assessment. When identity verification
// already recommended rejection the assessment short-circuits without any
// model call. It never returns an error: a gateway failure yields a
// rejection record.
func (h *Handler) Assess(ctx context.Context, input Input) Record {
	if input.Identity.Recommendation == identity.RecommendReject {
		h.logger.Info("Fast-path rejection on failed identity verification", map[string]interface{}{
			"applicant":  input.Applicant.FullName,
			"confidence": input.Identity.Confidence,
		})
		return fastPathRejection(input.Identity)
	}

	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task,
		Prompt:         h.buildPrompt(input),
		ResponseSchema: responseSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Credit assessment failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return Rejection("Technical error during assessment")
	}

	var record Record
	if err := json.Unmarshal(out, &record); err != nil {
		h.logger.Warn("Credit assessment output unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Rejection("Technical error during assessment")
	}

	h.logger.Info("Credit assessment completed", map[string]interface{}{
		"creditScore":    record.CreditScore,
		"approvalStatus": record.ApprovalStatus,
	})
	return record
}

// AssessBusiness runs the business credit assessment. It never returns an
// error: a gateway failure yields a rejection record.
func (h *Handler) AssessBusiness(ctx context.Context, input BusinessInput) Record {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task,
		Prompt:         h.buildBusinessPrompt(input),
		ResponseSchema: responseSchema,
		Temperature:    h.config.BusinessTemperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Business credit assessment failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return Rejection("Technical error during business assessment")
	}

	var record Record
	if err := json.Unmarshal(out, &record); err != nil {
		h.logger.Warn("Business credit assessment output unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Rejection("Technical error during business assessment")
	}

	h.logger.Info("Business credit assessment completed", map[string]interface{}{
		"creditScore":    record.CreditScore,
		"approvalStatus": record.ApprovalStatus,
	})
	return record
}

func (h *Handler) buildPrompt(input Input) string {
	id := input.Identity
	fin := input.Financial

	faceStatus := "FAILED"
	if id.FaceMatch.Matched {
		faceStatus = "PASSED"
	}
	idStatus := "AUTHENTIC"
	if id.IDVerification.Forged {
		idStatus = "FORGED"
	}
	livenessStatus := "FAILED"
	if id.LivenessCheck.Passed {
		livenessStatus = "PASSED"
	}

	parts := []string{
		"You are a senior credit analyst at a digital lending platform in Kenya. Perform a comprehensive credit assessment.",
		"",
		"APPLICANT INFORMATION:",
		fmt.Sprintf("- Name: %s", input.Applicant.FullName),
		fmt.Sprintf("- Date of Birth: %s", input.Applicant.DateOfBirth),
		fmt.Sprintf("- Employment: %s", input.Applicant.EmploymentStatus),
	}
	if input.Applicant.EmployerName != "" {
		parts = append(parts, fmt.Sprintf("- Employer: %s", input.Applicant.EmployerName))
	}
	if input.Applicant.MonthlyIncome > 0 {
		parts = append(parts, fmt.Sprintf("- Stated Income: KES %.0f", input.Applicant.MonthlyIncome))
	}

	parts = append(parts,
		"",
		"IDENTITY VERIFICATION RESULTS:",
		fmt.Sprintf("- Status: %s", id.Recommendation),
		fmt.Sprintf("- Confidence: %d%%", id.Confidence),
		fmt.Sprintf("- Face Match: %s (%d%%)", faceStatus, id.FaceMatch.Confidence),
		fmt.Sprintf("- ID Authenticity: %s", idStatus),
		fmt.Sprintf("- Liveness Check: %s", livenessStatus),
	)
	if len(id.IDVerification.Issues) > 0 {
		parts = append(parts, fmt.Sprintf("- Issues: %s", strings.Join(id.IDVerification.Issues, ", ")))
	}

	parts = append(parts,
		"",
		"FINANCIAL ANALYSIS:",
		fmt.Sprintf("- Overall Financial Score: %d/100", fin.OverallScore),
		fmt.Sprintf("- Income Stability: %d/100 (%s)", fin.IncomeStability.Score, fin.IncomeStability.IncomeConsistency),
		fmt.Sprintf("  * Average Monthly Income: KES %.0f", fin.IncomeStability.AverageMonthlyIncome),
		fmt.Sprintf("  * Analysis: %s", fin.IncomeStability.Analysis),
		"",
		fmt.Sprintf("- Spending Behavior: %d/100 (%s)", fin.SpendingBehavior.Score, fin.SpendingBehavior.SpendingPattern),
		fmt.Sprintf("  * Average Monthly Expenses: KES %.0f", fin.SpendingBehavior.AverageMonthlyExpenses),
		fmt.Sprintf("  * Analysis: %s", fin.SpendingBehavior.Analysis),
		"",
		fmt.Sprintf("- Savings: %d/100 (%s)", fin.SavingsBehavior.Score, fin.SavingsBehavior.SavingsConsistency),
		fmt.Sprintf("  * Average Monthly Savings: KES %.0f", fin.SavingsBehavior.AverageMonthlySavings),
		fmt.Sprintf("  * Savings Rate: %.1f%%", fin.SavingsBehavior.SavingsRate),
		fmt.Sprintf("  * Analysis: %s", fin.SavingsBehavior.Analysis),
		"",
		fmt.Sprintf("- Debt Indicators: %d/100 (Risk: %s)", fin.DebtIndicators.Score, fin.DebtIndicators.RiskLevel),
		fmt.Sprintf("  * Has Loan Payments: %t", fin.DebtIndicators.HasLoanPayments),
		fmt.Sprintf("  * Monthly Debt: KES %.0f", fin.DebtIndicators.EstimatedMonthlyDebt),
		fmt.Sprintf("  * Debt-to-Income: %.1f%%", fin.DebtIndicators.DebtToIncomeRatio),
		fmt.Sprintf("  * Analysis: %s", fin.DebtIndicators.Analysis),
		"",
		"- Transaction Patterns:",
		fmt.Sprintf("  * Total Transactions: %d", fin.TransactionPatterns.TotalTransactions),
		fmt.Sprintf("  * Regular Payments: %s", strings.Join(fin.TransactionPatterns.RegularPayments, ", ")),
	)
	if len(fin.TransactionPatterns.UnusualActivity) > 0 {
		parts = append(parts, fmt.Sprintf("  * Unusual Activity: %s", strings.Join(fin.TransactionPatterns.UnusualActivity, ", ")))
	}

	parts = append(parts,
		"",
		"FINANCIAL RECOMMENDATION:",
		fmt.Sprintf("- Eligible: %t", fin.Recommendation.Eligible),
		fmt.Sprintf("- Max Loan: KES %.0f", fin.Recommendation.MaxLoanAmount),
		fmt.Sprintf("- Suggested Interest: %.1f%% p.a.", fin.Recommendation.SuggestedInterestRate),
		fmt.Sprintf("- Max Term: %d months", fin.Recommendation.MaxRepaymentMonths),
		fmt.Sprintf("- Reasoning: %s", fin.Recommendation.Reasoning),
	)
	if len(fin.Recommendation.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("- Warnings: %s", strings.Join(fin.Recommendation.Warnings, "; ")))
	}

	if input.LoanRequest != nil {
		req := input.LoanRequest
		amount := "Not specified"
		if req.Amount > 0 {
			amount = fmt.Sprintf("KES %.0f", req.Amount)
		}
		purpose := req.Purpose
		if purpose == "" {
			purpose = "Not specified"
		}
		term := "Not specified"
		if req.RepaymentMonths > 0 {
			term = fmt.Sprintf("%d months", req.RepaymentMonths)
		}
		parts = append(parts,
			"",
			"LOAN REQUEST:",
			fmt.Sprintf("- Requested Amount: %s", amount),
			fmt.Sprintf("- Purpose: %s", purpose),
			fmt.Sprintf("- Preferred Term: %s", term),
		)
	}

	parts = append(parts,
		"",
		"ASSESSMENT REQUIREMENTS:",
		"",
		"1. Calculate OVERALL CREDIT SCORE (0-100) using weighted factors:",
		fmt.Sprintf("   - Identity Verification: %d%% weight", weightIdentity),
		fmt.Sprintf("   - Income Stability: %d%% weight", weightIncome),
		fmt.Sprintf("   - Spending Behavior: %d%% weight", weightSpending),
		fmt.Sprintf("   - Savings Capacity: %d%% weight", weightSavings),
		fmt.Sprintf("   - Debt Burden: %d%% weight", weightDebt),
		"",
		"2. Determine APPROVAL STATUS:",
		"   - APPROVED: Score >=70, all checks passed, low risk",
		"   - CONDITIONALLY_APPROVED: Score 50-69, minor concerns, requires conditions",
		"   - UNDER_REVIEW: Score 40-49 or identity needs manual review",
		"   - REJECTED: Score <40, failed identity, or high risk",
		"",
		"3. Provide LOAN RECOMMENDATION:",
		"   - Calculate safe loan amounts (min, max, recommended) based on income and debt",
		"   - Set interest rates based on risk (lower score = higher rate)",
		"   - Determine repayment periods",
		"   - Calculate monthly repayments",
		"   - Consider the debt-to-income ratio (should not exceed 40% post-loan)",
		"",
		"4. Generate KEY INSIGHTS (at least 5):",
		"   - STRENGTH: Positive factors supporting approval",
		"   - WEAKNESS: Areas of concern",
		"   - WARNING: Red flags or high-risk indicators",
		"   - OPPORTUNITY: Suggestions for improving creditworthiness",
		"   - Rate each insight's impact: HIGH, MEDIUM, or LOW",
		"",
		"5. Conduct RISK ASSESSMENT:",
		"   - Overall risk level: LOW, MEDIUM, HIGH, or VERY_HIGH",
		"   - Estimate default probability (0-100%)",
		"   - List specific risk factors",
		"   - Suggest risk mitigation measures",
		"",
		"6. List CONDITIONS (if any):",
		"   - REQUIRED: Must be met for approval",
		"   - RECOMMENDED: Strongly suggested",
		"   - OPTIONAL: Nice to have",
		"",
		"7. Provide detailed explanation of the decision and clear next steps.",
		"",
		"8. If REJECTED, provide specific, actionable rejection reasons.",
		"",
		"Be thorough, fair, and data-driven. Consider Kenyan lending context and regulations.",
		"Prioritize responsible lending - don't approve loans that could cause financial hardship.",
	)

	return strings.Join(parts, "\n")
}

func (h *Handler) buildBusinessPrompt(input BusinessInput) string {
	verified := "NO - CRITICAL"
	if input.DocumentsVerified {
		verified = "YES"
	}

	parts := []string{
		"You are a business credit analyst. Assess this Kenyan business for loan eligibility.",
		"",
		"BUSINESS INFORMATION:",
		fmt.Sprintf("- Name: %s", input.Business.BusinessName),
		fmt.Sprintf("- Registration: %s", input.Business.RegistrationNumber),
		fmt.Sprintf("- Years in Operation: %d", input.Business.YearsInOperation),
		fmt.Sprintf("- Industry: %s", input.Industry),
		fmt.Sprintf("- Employees: %s", input.EmployeeCount),
		fmt.Sprintf("- Monthly Revenue: KES %.0f", input.MonthlyRevenue),
		"",
		"DOCUMENT VERIFICATION:",
		fmt.Sprintf("- Documents Verified: %s", verified),
		fmt.Sprintf("- Verification Confidence: %d%%", input.DocumentConfidence),
		"",
		"FINANCIAL DATA:",
		fmt.Sprintf("Transactions: %d", len(input.Transactions)),
	}

	for i, txn := range input.Transactions {
		if i >= businessSampleSize {
			break
		}
		parts = append(parts, fmt.Sprintf(
			"%s | %s | KES %.0f | Balance: KES %.0f | %s",
			txn.Date.Format("2006-01-02"), txn.Type, txn.Amount, txn.Balance, txn.Description,
		))
	}

	parts = append(parts, "", fmt.Sprintf("Bank Statements: %d", len(input.Statements)))
	for i, st := range input.Statements {
		if i >= businessSampleSize {
			break
		}
		parts = append(parts, fmt.Sprintf(
			"%s | opening KES %.0f | closing KES %.0f | credits KES %.0f | debits KES %.0f | %d transactions",
			st.Month, st.OpeningBalance, st.ClosingBalance, st.TotalCredits, st.TotalDebits, st.TransactionCount,
		))
	}

	parts = append(parts,
		"",
		"BUSINESS ASSESSMENT CRITERIA:",
		"1. Business Legitimacy (25%):",
		"   - Registration verified",
		"   - Documents authentic",
		"   - Operating history",
		"",
		"2. Revenue Stability (30%):",
		"   - Consistent revenue",
		"   - Growth patterns",
		"   - Seasonal variations",
		"",
		"3. Cash Flow Health (25%):",
		"   - Positive cash flow",
		"   - Working capital adequacy",
		"   - Payment cycles",
		"",
		"4. Industry Risk (10%):",
		"   - Sector stability",
		"   - Market conditions",
		"",
		"5. Business Age & Size (10%):",
		"   - Years in operation",
		"   - Employee count",
		"   - Growth trajectory",
		"",
		"BUSINESS LOAN TERMS:",
		"- Approved: 3-6 months revenue",
		"- Interest: 10-18% based on risk",
		"- Terms: 6-36 months",
		"",
		"Provide detailed business credit assessment with specific recommendations.",
	)

	return strings.Join(parts, "\n")
}
