// internal/models/financial.go
package models

import "time"

// TransactionType classifies a mobile money transaction.
type TransactionType string

const (
	TxnSend     TransactionType = "SEND"
	TxnReceive  TransactionType = "RECEIVE"
	TxnPayBill  TransactionType = "PAYBILL"
	TxnBuyGoods TransactionType = "BUY_GOODS"
	TxnWithdraw TransactionType = "WITHDRAW"
	TxnDeposit  TransactionType = "DEPOSIT"
)

// MpesaTransaction is a single mobile money ledger entry. Balance is the
// account balance after the transaction.
type MpesaTransaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Type         TransactionType `json:"type"`
	Amount       float64         `json:"amount"`
	Balance      float64         `json:"balance"`
	Counterparty string          `json:"counterparty"`
	Description  string          `json:"description,omitempty"`
}

// BankStatement is a monthly account summary.
type BankStatement struct {
	Month            string  `json:"month"` // YYYY-MM
	OpeningBalance   float64 `json:"openingBalance"`
	ClosingBalance   float64 `json:"closingBalance"`
	TotalCredits     float64 `json:"totalCredits"`
	TotalDebits      float64 `json:"totalDebits"`
	TransactionCount int     `json:"transactionCount"`
}

// RiskTier selects a synthetic data profile shape.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// FinancialProfile describes the applicant's financial situation, either
// declared or derived from a synthetic profile.
type FinancialProfile struct {
	RiskTier         RiskTier `json:"riskTier"`
	EmploymentStatus string   `json:"employmentStatus"`
	MonthlyIncome    float64  `json:"monthlyIncome"`
	MonthlyExpenses  float64  `json:"monthlyExpenses"`
	SavingsRate      float64  `json:"savingsRate"`
	HasExistingLoans bool     `json:"hasExistingLoans"`
}
