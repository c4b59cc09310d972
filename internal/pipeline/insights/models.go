// internal/pipeline/insights/models.go
package insights

// FraudInput is the signal set fed to the fraud flagging flow.
type FraudInput struct {
	LivenessDetectionPassed       bool     `json:"livenessDetectionPassed"`
	IDDocumentAuthentic           bool     `json:"idDocumentAuthentic"`
	DeviceIntelligenceFlags       []string `json:"deviceIntelligenceFlags"`
	MpesaHistoryConsistent        bool     `json:"mPesaTransactionHistoryConsistent"`
	SeasonalIncomePatternPositive bool     `json:"seasonalIncomePatternPositive"`
	Name                          string   `json:"name"`
	Email                         string   `json:"email"`
	Phone                         string   `json:"phone"`
}

// FraudResult lists the flags the model raised.
type FraudResult struct {
	FraudFlags []string `json:"fraudFlags"`
	Summary    string   `json:"summary"`
}

// LoanInput describes the borrower for a loan recommendation.
type LoanInput struct {
	RiskProfile                   string  `json:"riskProfile"` // Low, Medium, High
	AverageMonthlyIncome          float64 `json:"averageMonthlyIncome"`
	EstimatedExistingDebtPayments float64 `json:"estimatedExistingDebtPayments"`
	LoanPurpose                   string  `json:"loanPurpose"`
	LoanHistory                   string  `json:"loanHistory"`
	CreditScore                   float64 `json:"creditScore"`
}

// LoanResult is the model's sized recommendation.
type LoanResult struct {
	RecommendedLoanLimit    float64 `json:"recommendedLoanLimit"`
	RecommendedInterestRate float64 `json:"recommendedInterestRate"`
	Reasoning               string  `json:"reasoning"`
}

// SummaryResult holds the narrative financial health summary.
type SummaryResult struct {
	Summary string `json:"summary"`
}

const fraudSchema = `{
	"type": "object",
	"properties": {
		"fraudFlags": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string"}
	},
	"required": ["fraudFlags", "summary"]
}`

const loanSchema = `{
	"type": "object",
	"properties": {
		"recommendedLoanLimit": {"type": "number"},
		"recommendedInterestRate": {"type": "number"},
		"reasoning": {"type": "string"}
	},
	"required": ["recommendedLoanLimit", "recommendedInterestRate", "reasoning"]
}`

const summarySchema = `{
	"type": "object",
	"properties": {
		"summary": {"type": "string"}
	},
	"required": ["summary"]
}`
