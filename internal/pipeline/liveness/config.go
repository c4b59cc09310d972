// internal/pipeline/liveness/config.go
package liveness

// Task identifies this adapter in logs and metrics.
const Task = "liveness-check"

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
