// internal/pipeline/facematch/config.go
package facematch

// Task identifies this adapter in logs and metrics.
const Task = "face-match"

type Config struct {
	Temperature float64
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Temperature: 0.1,
		MaxTokens:   1024,
	}
}
