// internal/pipeline/financial/models.go
package financial

import "quickscore/internal/models"

// Input is the material for one financial analysis.
type Input struct {
	PhoneNumber      string                    `json:"phoneNumber"`
	Transactions     []models.MpesaTransaction `json:"transactions"`
	Statements       []models.BankStatement    `json:"statements,omitempty"`
	EmploymentStatus string                    `json:"employmentStatus"`
	MonthlyIncome    float64                   `json:"monthlyIncome,omitempty"` // stated, 0 when not provided
}

// IncomeStability scores the regularity of incoming payments.
type IncomeStability struct {
	Score                int      `json:"score"`
	AverageMonthlyIncome float64  `json:"averageMonthlyIncome"`
	IncomeConsistency    string   `json:"incomeConsistency"` // VERY_STABLE .. VERY_VOLATILE
	IncomeSources        []string `json:"incomeSources"`
	Analysis             string   `json:"analysis"`
}

// SpendingCategory is one major spending bucket.
type SpendingCategory struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// SpendingBehavior scores outgoing payment patterns.
type SpendingBehavior struct {
	Score                  int                `json:"score"`
	AverageMonthlyExpenses float64            `json:"averageMonthlyExpenses"`
	SpendingPattern        string             `json:"spendingPattern"` // RESPONSIBLE, MODERATE, CONCERNING, RISKY
	MajorCategories        []SpendingCategory `json:"majorCategories"`
	Analysis               string             `json:"analysis"`
}

// SavingsBehavior scores net savings over the window.
type SavingsBehavior struct {
	Score                 int     `json:"score"`
	AverageMonthlySavings float64 `json:"averageMonthlySavings"`
	SavingsRate           float64 `json:"savingsRate"`
	SavingsConsistency    string  `json:"savingsConsistency"` // EXCELLENT, GOOD, FAIR, POOR, NONE
	Analysis              string  `json:"analysis"`
}

// DebtIndicators scores existing debt obligations found in the history.
type DebtIndicators struct {
	Score                int     `json:"score"`
	HasLoanPayments      bool    `json:"hasLoanPayments"`
	EstimatedMonthlyDebt float64 `json:"estimatedMonthlyDebt"`
	DebtToIncomeRatio    float64 `json:"debtToIncomeRatio"`
	RiskLevel            string  `json:"riskLevel"` // LOW, MEDIUM, HIGH, CRITICAL
	Analysis             string  `json:"analysis"`
}

// TransactionPatterns captures behavioral signals.
type TransactionPatterns struct {
	TotalTransactions       int      `json:"totalTransactions"`
	AverageTransactionValue float64  `json:"averageTransactionValue"`
	MostActiveDay           string   `json:"mostActiveDay"`
	MostActiveHour          int      `json:"mostActiveHour"`
	RegularPayments         []string `json:"regularPayments"`
	UnusualActivity         []string `json:"unusualActivity"`
}

// LoanRecommendation is the model's lending suggestion.
type LoanRecommendation struct {
	Eligible              bool     `json:"eligible"`
	MaxLoanAmount         float64  `json:"maxLoanAmount"`
	SuggestedInterestRate float64  `json:"suggestedInterestRate"`
	MaxRepaymentMonths    int      `json:"maxRepaymentMonths"`
	Reasoning             string   `json:"reasoning"`
	Warnings              []string `json:"warnings"`
}

// Record is the full financial analysis outcome.
type Record struct {
	OverallScore        int                 `json:"overallScore"`
	IncomeStability     IncomeStability     `json:"incomeStability"`
	SpendingBehavior    SpendingBehavior    `json:"spendingBehavior"`
	SavingsBehavior     SavingsBehavior     `json:"savingsBehavior"`
	DebtIndicators      DebtIndicators      `json:"debtIndicators"`
	TransactionPatterns TransactionPatterns `json:"transactionPatterns"`
	Recommendation      LoanRecommendation  `json:"recommendation"`
}

// sentinelRecord is the closed-fail analysis used when the model call cannot
// complete: every score zeroed and the applicant marked ineligible.
func sentinelRecord(totalTransactions int) Record {
	return Record{
		OverallScore: 0,
		IncomeStability: IncomeStability{
			IncomeConsistency: "VERY_VOLATILE",
			IncomeSources:     []string{},
			Analysis:          "Analysis unavailable due to a technical error",
		},
		SpendingBehavior: SpendingBehavior{
			SpendingPattern: "RISKY",
			MajorCategories: []SpendingCategory{},
			Analysis:        "Analysis unavailable due to a technical error",
		},
		SavingsBehavior: SavingsBehavior{
			SavingsConsistency: "NONE",
			Analysis:           "Analysis unavailable due to a technical error",
		},
		DebtIndicators: DebtIndicators{
			RiskLevel: "CRITICAL",
			Analysis:  "Analysis unavailable due to a technical error",
		},
		TransactionPatterns: TransactionPatterns{
			TotalTransactions: totalTransactions,
			RegularPayments:   []string{},
			UnusualActivity:   []string{},
		},
		Recommendation: LoanRecommendation{
			Eligible:  false,
			Reasoning: "Financial analysis could not be completed due to a technical error",
			Warnings:  []string{"Analysis incomplete - retry required"},
		},
	}
}

const responseSchema = `{
	"type": "object",
	"properties": {
		"overallScore": {"type": "number", "minimum": 0, "maximum": 100},
		"incomeStability": {
			"type": "object",
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"averageMonthlyIncome": {"type": "number"},
				"incomeConsistency": {"type": "string", "enum": ["VERY_STABLE", "STABLE", "MODERATE", "VOLATILE", "VERY_VOLATILE"]},
				"incomeSources": {"type": "array", "items": {"type": "string"}},
				"analysis": {"type": "string"}
			},
			"required": ["score", "averageMonthlyIncome", "incomeConsistency", "incomeSources", "analysis"]
		},
		"spendingBehavior": {
			"type": "object",
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"averageMonthlyExpenses": {"type": "number"},
				"spendingPattern": {"type": "string", "enum": ["RESPONSIBLE", "MODERATE", "CONCERNING", "RISKY"]},
				"majorCategories": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"category": {"type": "string"},
							"amount": {"type": "number"},
							"percentage": {"type": "number"}
						},
						"required": ["category", "amount", "percentage"]
					}
				},
				"analysis": {"type": "string"}
			},
			"required": ["score", "averageMonthlyExpenses", "spendingPattern", "majorCategories", "analysis"]
		},
		"savingsBehavior": {
			"type": "object",
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"averageMonthlySavings": {"type": "number"},
				"savingsRate": {"type": "number"},
				"savingsConsistency": {"type": "string", "enum": ["EXCELLENT", "GOOD", "FAIR", "POOR", "NONE"]},
				"analysis": {"type": "string"}
			},
			"required": ["score", "averageMonthlySavings", "savingsRate", "savingsConsistency", "analysis"]
		},
		"debtIndicators": {
			"type": "object",
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"hasLoanPayments": {"type": "boolean"},
				"estimatedMonthlyDebt": {"type": "number"},
				"debtToIncomeRatio": {"type": "number"},
				"riskLevel": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]},
				"analysis": {"type": "string"}
			},
			"required": ["score", "hasLoanPayments", "estimatedMonthlyDebt", "debtToIncomeRatio", "riskLevel", "analysis"]
		},
		"transactionPatterns": {
			"type": "object",
			"properties": {
				"totalTransactions": {"type": "number"},
				"averageTransactionValue": {"type": "number"},
				"mostActiveDay": {"type": "string"},
				"mostActiveHour": {"type": "number"},
				"regularPayments": {"type": "array", "items": {"type": "string"}},
				"unusualActivity": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["totalTransactions", "averageTransactionValue", "mostActiveDay", "mostActiveHour", "regularPayments", "unusualActivity"]
		},
		"recommendation": {
			"type": "object",
			"properties": {
				"eligible": {"type": "boolean"},
				"maxLoanAmount": {"type": "number"},
				"suggestedInterestRate": {"type": "number"},
				"maxRepaymentMonths": {"type": "number"},
				"reasoning": {"type": "string"},
				"warnings": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["eligible", "maxLoanAmount", "suggestedInterestRate", "maxRepaymentMonths", "reasoning", "warnings"]
		}
	},
	"required": ["overallScore", "incomeStability", "spendingBehavior", "savingsBehavior", "debtIndicators", "transactionPatterns", "recommendation"]
}`
