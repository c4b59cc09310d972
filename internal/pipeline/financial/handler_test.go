package financial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
	"quickscore/internal/models"
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

func makeTransactions(n int) []models.MpesaTransaction {
	txns := make([]models.MpesaTransaction, 0, n)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		typ := models.TxnReceive
		amount := 1000.0
		if i%2 == 1 {
			typ = models.TxnSend
			amount = 400.0
		}
		txns = append(txns, models.MpesaTransaction{
			ID:          fmt.Sprintf("MP%06d", i),
			Date:        base.Add(-time.Duration(i) * 24 * time.Hour), // newest first
			Type:        typ,
			Amount:      amount,
			Balance:     5000 + float64(i*10),
			Description: "Test transaction",
		})
	}
	return txns
}

func validRecordJSON() json.RawMessage {
	return json.RawMessage(`{
		"overallScore": 72,
		"incomeStability": {"score": 75, "averageMonthlyIncome": 45000, "incomeConsistency": "STABLE", "incomeSources": ["Salary Payment"], "analysis": "Regular salary credits"},
		"spendingBehavior": {"score": 70, "averageMonthlyExpenses": 30000, "spendingPattern": "MODERATE", "majorCategories": [{"category": "Utilities", "amount": 5000, "percentage": 16.7}], "analysis": "Predictable spending"},
		"savingsBehavior": {"score": 65, "averageMonthlySavings": 10000, "savingsRate": 22.2, "savingsConsistency": "GOOD", "analysis": "Consistent surplus"},
		"debtIndicators": {"score": 80, "hasLoanPayments": false, "estimatedMonthlyDebt": 0, "debtToIncomeRatio": 0, "riskLevel": "LOW", "analysis": "No debt found"},
		"transactionPatterns": {"totalTransactions": 120, "averageTransactionValue": 1800, "mostActiveDay": "Friday", "mostActiveHour": 18, "regularPayments": ["KPLC"], "unusualActivity": []},
		"recommendation": {"eligible": true, "maxLoanAmount": 90000, "suggestedInterestRate": 14.5, "maxRepaymentMonths": 12, "reasoning": "Stable income with headroom", "warnings": []}
	}`)
}

func TestHandler_Analyze_Success(t *testing.T) {
	gen := &stubGenerator{output: validRecordJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	record := h.Analyze(context.Background(), Input{
		PhoneNumber:      "+254700000000",
		Transactions:     makeTransactions(10),
		EmploymentStatus: models.EmploymentEmployed,
		MonthlyIncome:    45000,
	})

	assert.Equal(t, 72, record.OverallScore)
	assert.True(t, record.Recommendation.Eligible)
	assert.Equal(t, "STABLE", record.IncomeStability.IncomeConsistency)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0.3, gen.last.Temperature)
}

func TestHandler_Analyze_PromptAggregates(t *testing.T) {
	gen := &stubGenerator{output: validRecordJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

	h.Analyze(context.Background(), Input{
		Transactions:     makeTransactions(10), // 5 RECEIVE of 1000, 5 SEND of 400
		EmploymentStatus: models.EmploymentSelfEmployed,
	})

	prompt := gen.last.Prompt
	assert.Contains(t, prompt, "Total Transactions: 10")
	assert.Contains(t, prompt, "Total Money Received: KES 5000")
	assert.Contains(t, prompt, "Total Money Spent: KES 2000")
	assert.Contains(t, prompt, "- RECEIVE: 5")
	assert.Contains(t, prompt, "- SEND: 5")
	assert.Contains(t, prompt, "Employment Status: self-employed")
	assert.Contains(t, prompt, "Stated Monthly Income: Not provided")
}

func TestHandler_Analyze_SampleCapped(t *testing.T) {
	gen := &stubGenerator{output: validRecordJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

	h.Analyze(context.Background(), Input{
		Transactions:     makeTransactions(80),
		EmploymentStatus: models.EmploymentEmployed,
	})

	// the oldest 30 transactions appear only through the aggregates
	assert.Contains(t, gen.last.Prompt, "Total Transactions: 80")
	assert.Contains(t, gen.last.Prompt, "MP000049")
	assert.NotContains(t, gen.last.Prompt, "MP000050")
}

func TestHandler_Analyze_GatewayError_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: genai.ErrGatewayTimeout},
		{name: "schema violation", err: genai.ErrSchemaViolation},
		{name: "arbitrary error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

			record := h.Analyze(context.Background(), Input{
				Transactions:     makeTransactions(6),
				EmploymentStatus: models.EmploymentEmployed,
			})

			assert.Equal(t, 0, record.OverallScore)
			assert.False(t, record.Recommendation.Eligible)
			assert.Equal(t, 0, record.IncomeStability.Score)
			assert.Equal(t, "CRITICAL", record.DebtIndicators.RiskLevel)
			assert.Equal(t, 6, record.TransactionPatterns.TotalTransactions)
		})
	}
}

func TestSummarize_EmptyHistory(t *testing.T) {
	sum := summarize(nil)

	assert.Equal(t, 0, sum.totalTransactions)
	assert.Zero(t, sum.totalReceived)
	assert.Zero(t, sum.averageBalance)
}

func TestSummarize_BalanceBounds(t *testing.T) {
	txns := []models.MpesaTransaction{
		{Date: time.Now(), Type: models.TxnReceive, Amount: 100, Balance: 900},
		{Date: time.Now().Add(-time.Hour), Type: models.TxnWithdraw, Amount: 50, Balance: 200},
		{Date: time.Now().Add(-2 * time.Hour), Type: models.TxnDeposit, Amount: 500, Balance: 2500},
	}

	sum := summarize(txns)

	assert.Equal(t, 200.0, sum.minBalance)
	assert.Equal(t, 2500.0, sum.maxBalance)
	assert.Equal(t, 600.0, sum.totalReceived)
	assert.Equal(t, 50.0, sum.totalSpent)
	assert.InDelta(t, 1200.0, sum.averageBalance, 0.001)
}

func TestHandler_Analyze_StatementsIncluded(t *testing.T) {
	gen := &stubGenerator{output: validRecordJSON()}
	h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

	h.Analyze(context.Background(), Input{
		Transactions:     makeTransactions(4),
		EmploymentStatus: models.EmploymentEmployed,
		Statements: []models.BankStatement{
			{Month: "2026-05", OpeningBalance: 10000, ClosingBalance: 14000, TotalCredits: 50000, TotalDebits: 46000, TransactionCount: 42},
		},
	})

	require.Contains(t, gen.last.Prompt, "Monthly bank statements:")
	assert.Contains(t, gen.last.Prompt, "2026-05")
}
