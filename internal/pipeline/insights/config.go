// internal/pipeline/insights/config.go
package insights

// Task labels for the standalone insight flows.
const (
	TaskFraud     = "flag-fraudulent-activity"
	TaskLoan      = "generate-loan-recommendations"
	TaskSummarize = "summarize-financial-data"
)

// Config holds generation parameters shared by the insight flows.
type Config struct {
	Temperature float64
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Temperature: 0.3,
		MaxTokens:   2048,
	}
}
