// internal/pipeline/insights/handler.go
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
)

// Handler exposes the standalone insight flows. Unlike the onboarding
// verification adapters these surface gateway errors to the caller instead of
// substituting sentinel records: the flows are advisory and a caller can
// simply retry the request.
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
			"component": "insights",
		}),
	}
}

// FlagFraud asks the model to flag suspicious signals in the applicant data.
func (h *Handler) FlagFraud(ctx context.Context, input FraudInput) (*FraudResult, error) {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           TaskFraud,
		Prompt:         buildFraudPrompt(input),
		ResponseSchema: fraudSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("flag fraudulent activity: %w", err)
	}

	var result FraudResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode fraud flags: %w", err)
	}

	h.logger.Info("Fraud flags generated", map[string]interface{}{
		"task":  TaskFraud,
		"flags": len(result.FraudFlags),
	})
	return &result, nil
}

// RecommendLoan produces a loan limit and interest rate recommendation.
func (h *Handler) RecommendLoan(ctx context.Context, input LoanInput) (*LoanResult, error) {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           TaskLoan,
		Prompt:         buildLoanPrompt(input),
		ResponseSchema: loanSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate loan recommendation: %w", err)
	}

	var result LoanResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode loan recommendation: %w", err)
	}

	h.logger.Info("Loan recommendation generated", map[string]interface{}{
		"task":      TaskLoan,
		"loanLimit": result.RecommendedLoanLimit,
	})
	return &result, nil
}

// SummarizeFinancials produces a narrative summary of raw financial data.
func (h *Handler) SummarizeFinancials(ctx context.Context, financialData string) (*SummaryResult, error) {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           TaskSummarize,
		Prompt:         buildSummaryPrompt(financialData),
		ResponseSchema: summarySchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize financial data: %w", err)
	}

	var result SummaryResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode financial summary: %w", err)
	}

	h.logger.Info("Financial summary generated", map[string]interface{}{
		"task": TaskSummarize,
	})
	return &result, nil
}

func buildFraudPrompt(input FraudInput) string {
	parts := []string{
		"You are an AI assistant that analyzes borrower data to detect potentially fraudulent activity. You will receive data points about a loan applicant and determine if there are any red flags, and summarize your findings.",
		"",
		fmt.Sprintf("Liveness Detection Passed: %t", input.LivenessDetectionPassed),
		fmt.Sprintf("ID Document Authentic: %t", input.IDDocumentAuthentic),
		"Device Intelligence Flags:",
	}
	for _, flag := range input.DeviceIntelligenceFlags {
		parts = append(parts, fmt.Sprintf("- %s", flag))
	}
	parts = append(parts,
		fmt.Sprintf("M-Pesa Transaction History Consistent: %t", input.MpesaHistoryConsistent),
		fmt.Sprintf("Seasonal Income Pattern Positive: %t", input.SeasonalIncomePatternPositive),
		fmt.Sprintf("Applicant Name: %s", input.Name),
		fmt.Sprintf("Applicant Email: %s", input.Email),
		fmt.Sprintf("Applicant Phone: %s", input.Phone),
		"",
		"Based on this information, identify any fraud flags and provide a summary. Return the fraudFlags in an array of strings and the summary as a single string.",
	)
	return strings.Join(parts, "\n")
}

func buildLoanPrompt(input LoanInput) string {
	parts := []string{
		"You are an expert loan officer, and you are to recommend an appropriate loan amount, interest rate, and a brief explanation of that recommendation given the following information about the loan applicant. Your output must be valid JSON.",
		"",
		fmt.Sprintf("Borrower Risk Profile: %s", input.RiskProfile),
		fmt.Sprintf("Average Monthly Income: %.0f", input.AverageMonthlyIncome),
		fmt.Sprintf("Estimated Existing Debt Payments: %.0f", input.EstimatedExistingDebtPayments),
		fmt.Sprintf("Loan Purpose: %s", input.LoanPurpose),
		fmt.Sprintf("Loan History: %s", input.LoanHistory),
		fmt.Sprintf("Credit Score: %.0f", input.CreditScore),
		"",
		"Please provide a recommended loan limit, interest rate, and the reasoning behind this recommendation. The loan limit is in Kenyan Shillings (KES).",
	}
	return strings.Join(parts, "\n")
}

func buildSummaryPrompt(financialData string) string {
	parts := []string{
		"You are an AI assistant helping lenders understand a borrower's financial health.",
		"",
		"Summarize the key insights from the following financial data, including income, expenses, and overall financial health:",
		"",
		fmt.Sprintf("Financial Data: %s", financialData),
	}
	return strings.Join(parts, "\n")
}
