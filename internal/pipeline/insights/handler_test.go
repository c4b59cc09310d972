package insights

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
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

func TestHandler_FlagFraud(t *testing.T) {
	gen := &stubGenerator{output: json.RawMessage(`{
		"fraudFlags": ["Device linked to two prior fraudulent accounts"],
		"summary": "Device intelligence raised one flag; identity checks passed."
	}`)}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result, err := h.FlagFraud(context.Background(), FraudInput{
		LivenessDetectionPassed: true,
		IDDocumentAuthentic:     true,
		DeviceIntelligenceFlags: []string{"Device linked to two prior fraudulent accounts"},
		MpesaHistoryConsistent:  true,
		Name:                    "Jane Wanjiku",
		Email:                   "jane@example.com",
		Phone:                   "+254700000000",
	})

	require.NoError(t, err)
	require.Len(t, result.FraudFlags, 1)
	assert.Equal(t, TaskFraud, gen.last.Task)
	assert.Contains(t, gen.last.Prompt, "Liveness Detection Passed: true")
	assert.Contains(t, gen.last.Prompt, "- Device linked to two prior fraudulent accounts")
	assert.Contains(t, gen.last.Prompt, "Applicant Name: Jane Wanjiku")
}

func TestHandler_FlagFraud_GatewayError(t *testing.T) {
	gen := &stubGenerator{err: genai.ErrGatewayTimeout}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result, err := h.FlagFraud(context.Background(), FraudInput{Name: "Jane Wanjiku"})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, genai.ErrGatewayTimeout)
}

func TestHandler_RecommendLoan(t *testing.T) {
	gen := &stubGenerator{output: json.RawMessage(`{
		"recommendedLoanLimit": 75000,
		"recommendedInterestRate": 13.5,
		"reasoning": "Stable income with moderate existing obligations."
	}`)}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result, err := h.RecommendLoan(context.Background(), LoanInput{
		RiskProfile:                   "Low",
		AverageMonthlyIncome:          45000,
		EstimatedExistingDebtPayments: 5000,
		LoanPurpose:                   "Business expansion",
		LoanHistory:                   "Two prior loans, all repaid on time",
		CreditScore:                   74,
	})

	require.NoError(t, err)
	assert.Equal(t, 75000.0, result.RecommendedLoanLimit)
	assert.Equal(t, 13.5, result.RecommendedInterestRate)
	assert.Equal(t, TaskLoan, gen.last.Task)
	assert.Contains(t, gen.last.Prompt, "Borrower Risk Profile: Low")
	assert.Contains(t, gen.last.Prompt, "Kenyan Shillings (KES)")
}

func TestHandler_SummarizeFinancials(t *testing.T) {
	gen := &stubGenerator{output: json.RawMessage(`{
		"summary": "Income is stable with a healthy savings rate."
	}`)}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result, err := h.SummarizeFinancials(context.Background(), "M-Pesa: 120 transactions, avg balance KES 8000")

	require.NoError(t, err)
	assert.Equal(t, "Income is stable with a healthy savings rate.", result.Summary)
	assert.Equal(t, TaskSummarize, gen.last.Task)
	assert.Contains(t, gen.last.Prompt, "Financial Data: M-Pesa: 120 transactions")
}

func TestHandler_SummarizeFinancials_MalformedOutput(t *testing.T) {
	gen := &stubGenerator{output: json.RawMessage(`{"summary": 5}`)}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result, err := h.SummarizeFinancials(context.Background(), "data")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode financial summary")
}
