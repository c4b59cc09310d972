// internal/pipeline/document/config.go
package document

// Task identifies this adapter in logs and metrics.
const Task = "document-verification"

// Business document kinds accepted by VerifyBusinessDocument.
const (
	KindRegistration = "registration"
	KindTax          = "tax"
	KindAddress      = "address"
)

type Config struct {
	Temperature float64
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Temperature: 0.1,
		MaxTokens:   2048,
	}
}
