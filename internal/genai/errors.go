package genai

import "errors"

var (
	// ErrGatewayTimeout indicates the model call exceeded its deadline.
	ErrGatewayTimeout = errors.New("model gateway timeout")
	// ErrGatewayCall indicates a transport or non-200 gateway failure.
	ErrGatewayCall = errors.New("model gateway call failed")
	// ErrSchemaViolation indicates the model output did not match the
	// requested response schema.
	ErrSchemaViolation = errors.New("model output schema violation")
)
