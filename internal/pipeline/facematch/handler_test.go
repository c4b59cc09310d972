package facematch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
)

type stubGenerator struct {
	output json.RawMessage
	err    error
	last   genai.Request
}

func (s *stubGenerator) Generate(ctx context.Context, req genai.Request) (json.RawMessage, error) {
	s.last = req
	return s.output, s.err
}

func TestHandler_Verify_Match(t *testing.T) {
	gen := &stubGenerator{
		output: json.RawMessage(`{
			"isMatch": true,
			"confidence": 88,
			"reasons": ["Matching face geometry", "Consistent distinctive mole on left cheek"],
			"warnings": [],
			"fraudIndicators": []
		}`),
	}
	h := NewHandler(DefaultConfig(), gen, logger.NewTestLogger(t))

	result := h.Verify(context.Background(), "live-b64", "id-b64")

	assert.True(t, result.Match)
	assert.Equal(t, 88, result.Confidence)
	assert.Len(t, result.Reasons, 2)

	require.Len(t, gen.last.Media, 2)
	assert.Equal(t, "live-b64", gen.last.Media[0].Data)
	assert.Equal(t, "id-b64", gen.last.Media[1].Data)
}

func TestHandler_Verify_NoMatch(t *testing.T) {
	gen := &stubGenerator{
		output: json.RawMessage(`{
			"isMatch": false,
			"confidence": 60,
			"reasons": ["Different jawline structure"],
			"warnings": ["ID portrait is low resolution"],
			"fraudIndicators": []
		}`),
	}
	h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

	result := h.Verify(context.Background(), "live", "id")

	assert.False(t, result.Match)
	assert.Equal(t, 60, result.Confidence)
}

func TestHandler_Verify_GatewayError_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: genai.ErrGatewayTimeout},
		{name: "schema violation", err: genai.ErrSchemaViolation},
		{name: "arbitrary error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			h := NewHandler(DefaultConfig(), gen, logger.NewNoOpLogger())

			result := h.Verify(context.Background(), "live", "id")

			assert.False(t, result.Match)
			assert.Equal(t, 0, result.Confidence)
			assert.Equal(t, []string{"Technical error during verification"}, result.Reasons)
			assert.Equal(t, []string{"Unable to complete verification"}, result.Warnings)
			assert.Empty(t, result.FraudIndicators)
		})
	}
}

func TestHandler_BuildPrompt(t *testing.T) {
	h := NewHandler(DefaultConfig(), &stubGenerator{}, logger.NewNoOpLogger())

	prompt := h.buildPrompt()

	assert.Contains(t, prompt, "same person")
	assert.Contains(t, prompt, "Face geometry")
	assert.Contains(t, prompt, "aging")
}
