// internal/pipeline/financial/config.go
package financial

// Task identifies this adapter in logs and metrics.
const Task = "financial-analysis"

// sampleSize is how many recent transactions are embedded verbatim in the
// prompt; older history is represented only through the aggregates.
const sampleSize = 50

type Config struct {
	Temperature float64
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}
