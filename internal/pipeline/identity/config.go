// internal/pipeline/identity/config.go
package identity

// Task identifies this adapter in logs and metrics.
const Task = "identity-verification"

// maxFaceFrames caps how many live frames are sent to the face match call.
const maxFaceFrames = 3

type Config struct {
	Temperature     float64
	MaxTokens       int
	ReviewThreshold int // below this average confidence the decision is MANUAL_REVIEW
}

func DefaultConfig() Config {
	return Config{
		Temperature:     0.1,
		MaxTokens:       2048,
		ReviewThreshold: 70,
	}
}
