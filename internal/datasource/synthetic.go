// internal/datasource/synthetic.go
package datasource

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"quickscore/internal/common/logger"
	"quickscore/internal/models"
)

var transactionTypes = []models.TransactionType{
	models.TxnSend,
	models.TxnReceive,
	models.TxnWithdraw,
	models.TxnPayBill,
	models.TxnBuyGoods,
}

var counterparties = []string{
	"JOHN DOE", "JANE SMITH", "SAFARICOM LTD", "EQUITY BANK", "KPLC", "NAIROBI WATER",
}

var references = []string{
	"Bill Payment", "Airtime", "Shopping", "Utilities", "Rent", "Food", "Transport",
}

// Synthetic generates deterministic applicant financial data. The same seed
// and applicant inputs always yield the same records, which keeps demo runs
// and test fixtures reproducible.
type Synthetic struct {
	seed   int64
	now    func() time.Time
	logger logger.Logger
}

func NewSynthetic(seed int64, log logger.Logger) *Synthetic {
	return &Synthetic{
		seed: seed,
		now:  time.Now,
		logger: log.With(map[string]interface{}{
			"datasource": "synthetic",
		}),
	}
}

// WithClock overrides the reference time used for generated dates.
func (s *Synthetic) WithClock(now func() time.Time) *Synthetic {
	s.now = now
	return s
}

// rng derives an independent stream for one applicant key so records for
// different applicants do not shift when generated in a different order.
func (s *Synthetic) rng(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewSource(s.seed ^ int64(h.Sum64())))
}

func (s *Synthetic) Profile(tier models.RiskTier) models.FinancialProfile {
	r := s.rng("profile:" + string(tier))

	var profile models.FinancialProfile
	var expenseRatio float64

	switch tier {
	case models.RiskLow:
		profile = models.FinancialProfile{
			RiskTier:         tier,
			EmploymentStatus: models.EmploymentEmployed,
			MonthlyIncome:    50000 + r.Float64()*50000,
			SavingsRate:      0.2 + r.Float64()*0.2,
			HasExistingLoans: false,
		}
		expenseRatio = 0.6 + r.Float64()*0.2
	case models.RiskHigh:
		employment := models.EmploymentUnemployed
		if r.Float64() > 0.7 {
			employment = models.EmploymentEmployed
		}
		profile = models.FinancialProfile{
			RiskTier:         tier,
			EmploymentStatus: employment,
			MonthlyIncome:    15000 + r.Float64()*15000,
			SavingsRate:      0,
			HasExistingLoans: r.Float64() > 0.5,
		}
		expenseRatio = 0.9 + r.Float64()*0.1
	default:
		employment := models.EmploymentSelfEmployed
		if r.Float64() > 0.5 {
			employment = models.EmploymentEmployed
		}
		profile = models.FinancialProfile{
			RiskTier:         models.RiskMedium,
			EmploymentStatus: employment,
			MonthlyIncome:    30000 + r.Float64()*30000,
			SavingsRate:      0.05 + r.Float64()*0.1,
			HasExistingLoans: r.Float64() > 0.6,
		}
		expenseRatio = 0.7 + r.Float64()*0.2
	}

	profile.MonthlyExpenses = profile.MonthlyIncome * expenseRatio
	return profile
}

func (s *Synthetic) MpesaTransactions(ctx context.Context, phoneNumber string, months int, profile models.FinancialProfile) ([]models.MpesaTransaction, error) {
	if months <= 0 {
		months = 3
	}
	r := s.rng("mpesa:" + phoneNumber)
	today := s.now().Truncate(24 * time.Hour)
	days := months * 30

	balance := r.Float64()*5000 + 1000
	var txns []models.MpesaTransaction
	seq := 0

	for day := days; day >= 0; day-- {
		date := today.AddDate(0, 0, -day)

		// Salary lands on the 1st and 15th for employed applicants.
		if profile.EmploymentStatus == models.EmploymentEmployed && (date.Day() == 1 || date.Day() == 15) {
			salary := profile.MonthlyIncome / 2
			balance += salary
			seq++
			txns = append(txns, models.MpesaTransaction{
				ID:           fmt.Sprintf("MPE%08d", seq),
				Date:         date,
				Type:         models.TxnReceive,
				Amount:       salary,
				Balance:      balance,
				Counterparty: "EMPLOYER LTD",
				Description:  "Salary Payment",
			})
		}

		for i := 0; i < r.Intn(5); i++ {
			txType := transactionTypes[r.Intn(len(transactionTypes))]
			amount := randomAmount(r, txType)

			if txType == models.TxnReceive {
				balance += amount
			} else {
				balance -= amount
			}
			if balance < 0 {
				balance = -balance
			}

			seq++
			txns = append(txns, models.MpesaTransaction{
				ID:           fmt.Sprintf("MPE%08d", seq),
				Date:         date,
				Type:         txType,
				Amount:       amount,
				Balance:      balance,
				Counterparty: randomCounterparty(r, txType),
				Description:  references[r.Intn(len(references))],
			})
		}
	}

	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})

	s.logger.Debug("Generated synthetic transactions", map[string]interface{}{
		"phoneNumber": phoneNumber,
		"months":      months,
		"count":       len(txns),
	})
	return txns, nil
}

func (s *Synthetic) BankStatements(ctx context.Context, accountRef string, months int, profile models.FinancialProfile) ([]models.BankStatement, error) {
	if months <= 0 {
		months = 6
	}
	r := s.rng("bank:" + accountRef)
	today := s.now()

	opening := r.Float64()*20000 + 5000
	statements := make([]models.BankStatement, 0, months)

	// Build oldest first so balances carry forward, then flip to newest first.
	for m := months - 1; m >= 0; m-- {
		month := today.AddDate(0, -m, 0)
		credits := profile.MonthlyIncome * (0.9 + r.Float64()*0.2)
		debits := profile.MonthlyExpenses * (0.85 + r.Float64()*0.3)
		closing := opening + credits - debits
		if closing < 0 {
			closing = -closing
		}

		statements = append(statements, models.BankStatement{
			Month:            month.Format("2006-01"),
			OpeningBalance:   opening,
			ClosingBalance:   closing,
			TotalCredits:     credits,
			TotalDebits:      debits,
			TransactionCount: 40 + r.Intn(41),
		})
		opening = closing
	}

	for i, j := 0, len(statements)-1; i < j; i, j = i+1, j-1 {
		statements[i], statements[j] = statements[j], statements[i]
	}
	return statements, nil
}

func randomAmount(r *rand.Rand, txType models.TransactionType) float64 {
	switch txType {
	case models.TxnSend:
		return 100 + r.Float64()*5000
	case models.TxnReceive, models.TxnWithdraw:
		return 500 + r.Float64()*10000
	case models.TxnPayBill:
		return 100 + r.Float64()*3000
	case models.TxnBuyGoods:
		return 50 + r.Float64()*2000
	default:
		return 100 + r.Float64()*1000
	}
}

func randomCounterparty(r *rand.Rand, txType models.TransactionType) string {
	name := counterparties[r.Intn(len(counterparties))]
	switch txType {
	case models.TxnPayBill:
		return "PAYBILL - " + name
	case models.TxnBuyGoods:
		return "MERCHANT - " + name
	default:
		return name
	}
}
