// internal/pipeline/financial/handler.go
package financial

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
	"quickscore/internal/models"
)

// Handler analyzes transaction history for creditworthiness through the model
// gateway. Local code only aggregates prompt context; every score comes from
// the model.
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

// summary is the locally pre-aggregated prompt context. It exists so the
// model sees the whole window even though only recent transactions are
// embedded verbatim.
type summary struct {
	totalTransactions int
	from, to          string
	byType            map[models.TransactionType]int
	totalReceived     float64
	totalSpent        float64
	averageBalance    float64
	minBalance        float64
	maxBalance        float64
}

// Analyze runs one model call over the transaction history. It never returns
// an error: gateway failures yield the zeroed closed-fail record.
func (h *Handler) Analyze(ctx context.Context, input Input) Record {
	sum := summarize(input.Transactions)

	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task,
		Prompt:         h.buildPrompt(input, sum),
		ResponseSchema: responseSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Financial analysis failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelRecord(sum.totalTransactions)
	}

	var record Record
	if err := json.Unmarshal(out, &record); err != nil {
		h.logger.Warn("Financial analysis unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelRecord(sum.totalTransactions)
	}

	h.logger.Info("Financial analysis completed", map[string]interface{}{
		"overallScore": record.OverallScore,
		"eligible":     record.Recommendation.Eligible,
		"transactions": sum.totalTransactions,
	})
	return record
}

func summarize(txns []models.MpesaTransaction) summary {
	sum := summary{
		byType: make(map[models.TransactionType]int),
	}
	sum.totalTransactions = len(txns)
	if len(txns) == 0 {
		return sum
	}

	// Transactions arrive newest first.
	sum.to = txns[0].Date.Format("2006-01-02")
	sum.from = txns[len(txns)-1].Date.Format("2006-01-02")

	sum.minBalance = txns[0].Balance
	sum.maxBalance = txns[0].Balance
	var balanceTotal float64
	for _, t := range txns {
		sum.byType[t.Type]++
		switch t.Type {
		case models.TxnReceive, models.TxnDeposit:
			sum.totalReceived += t.Amount
		case models.TxnSend, models.TxnPayBill, models.TxnBuyGoods, models.TxnWithdraw:
			sum.totalSpent += t.Amount
		}
		balanceTotal += t.Balance
		if t.Balance < sum.minBalance {
			sum.minBalance = t.Balance
		}
		if t.Balance > sum.maxBalance {
			sum.maxBalance = t.Balance
		}
	}
	sum.averageBalance = balanceTotal / float64(len(txns))
	return sum
}

func (h *Handler) buildPrompt(input Input, sum summary) string {
	statedIncome := "Not provided"
	if input.MonthlyIncome > 0 {
		statedIncome = fmt.Sprintf("KES %.0f", input.MonthlyIncome)
	}

	parts := []string{
		"You are a financial analyst specializing in credit risk assessment for lending institutions in Kenya.",
		"",
		"APPLICANT PROFILE:",
		fmt.Sprintf("- Employment Status: %s", input.EmploymentStatus),
		fmt.Sprintf("- Stated Monthly Income: %s", statedIncome),
		"",
		"M-PESA TRANSACTION DATA:",
		fmt.Sprintf("- Total Transactions: %d", sum.totalTransactions),
		fmt.Sprintf("- Period: %s to %s", sum.from, sum.to),
		fmt.Sprintf("- Total Money Received: KES %.0f", sum.totalReceived),
		fmt.Sprintf("- Total Money Spent: KES %.0f", sum.totalSpent),
		fmt.Sprintf("- Average Balance: KES %.0f", sum.averageBalance),
		fmt.Sprintf("- Min Balance: KES %.0f", sum.minBalance),
		fmt.Sprintf("- Max Balance: KES %.0f", sum.maxBalance),
		"",
		"Transaction breakdown by type:",
	}

	types := make([]string, 0, len(sum.byType))
	for t := range sum.byType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("- %s: %d", t, sum.byType[models.TransactionType(t)]))
	}

	parts = append(parts, "", "Recent transactions (sample):")
	sample := input.Transactions
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	for _, t := range sample {
		parts = append(parts, fmt.Sprintf(
			"%s | %s | KES %.0f | Balance: KES %.0f | %s",
			t.Date.Format("2006-01-02"), t.Type, t.Amount, t.Balance, t.Description,
		))
	}

	if len(input.Statements) > 0 {
		parts = append(parts, "", "Monthly bank statements:")
		for _, s := range input.Statements {
			parts = append(parts, fmt.Sprintf(
				"%s | opening KES %.0f | closing KES %.0f | credits KES %.0f | debits KES %.0f | %d transactions",
				s.Month, s.OpeningBalance, s.ClosingBalance, s.TotalCredits, s.TotalDebits, s.TransactionCount,
			))
		}
	}

	parts = append(parts,
		"",
		"ANALYSIS REQUIRED:",
		"",
		"1. INCOME STABILITY (0-100 score):",
		"   - Analyze regularity and consistency of incoming payments",
		"   - Identify primary income sources",
		"   - Calculate average monthly income from transactions",
		"   - Classify: VERY_STABLE, STABLE, MODERATE, VOLATILE, or VERY_VOLATILE",
		"",
		"2. SPENDING BEHAVIOR (0-100 score):",
		"   - Analyze spending patterns and categories",
		"   - Calculate average monthly expenses",
		"   - Identify spending on essentials vs non-essentials",
		"   - Classify: RESPONSIBLE, MODERATE, CONCERNING, or RISKY",
		"   - Break down major spending categories with amounts and percentages",
		"",
		"3. SAVINGS BEHAVIOR (0-100 score):",
		"   - Calculate net savings (income - expenses) per month",
		"   - Analyze savings rate and consistency",
		"   - Classify: EXCELLENT, GOOD, FAIR, POOR, or NONE",
		"",
		"4. DEBT INDICATORS (0-100 score):",
		"   - Identify loan repayments in transaction history",
		"   - Estimate monthly debt obligations",
		"   - Calculate debt-to-income ratio",
		"   - Assess risk level: LOW, MEDIUM, HIGH, or CRITICAL",
		"",
		"5. TRANSACTION PATTERNS:",
		"   - Identify regular payments (rent, utilities, loan repayments)",
		"   - Find most active day and hour for transactions",
		"   - Flag any unusual or suspicious activity",
		"",
		"6. LOAN RECOMMENDATION:",
		"   - Determine eligibility (true/false)",
		"   - Suggest maximum safe loan amount (in KES)",
		"   - Recommend interest rate (% per annum)",
		"   - Suggest maximum repayment period (months)",
		"   - Provide detailed reasoning",
		"   - List any warnings or concerns",
		"",
		"Be thorough, data-driven, and realistic. Consider Kenyan economic context and M-Pesa usage patterns.",
		"Provide an overall financial health score (0-100) based on all factors.",
	)

	return strings.Join(parts, "\n")
}
