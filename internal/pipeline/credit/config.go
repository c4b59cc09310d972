// internal/pipeline/credit/config.go
package credit

// Task identifies this adapter in logs and metrics.
const Task = "credit-assessment"

// businessSampleSize caps how many transactions and statement rows are
// embedded in the business assessment prompt.
const businessSampleSize = 30

// Factor weights stated in the individual assessment prompt. The model owns
// the arithmetic; these only parameterize the instructions and the fast-path
// factor table.
const (
	weightIdentity = 30
	weightIncome   = 25
	weightSpending = 20
	weightSavings  = 15
	weightDebt     = 10
)

type Config struct {
	Temperature         float64
	BusinessTemperature float64
	MaxTokens           int
}

func DefaultConfig() Config {
	return Config{
		Temperature:         0.2,
		BusinessTemperature: 0.3,
		MaxTokens:           8192,
	}
}
