// internal/pipeline/facematch/handler.go
package facematch

import (
	"context"
	"encoding/json"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
)

// Handler compares a live camera frame against the portrait on an identity
// document.
type Handler struct {
	config Config
	gen    genai.Generator
	logger logger.Logger
}

func NewHandler(cfg Config, gen genai.Generator, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		gen:    gen,
		logger: log.With(map[string]interface{}{
			"task": Task,
		}),
	}
}

// Verify compares the live frame with the ID portrait. It never returns an
// error: gateway failures yield the closed-fail sentinel record.
func (h *Handler) Verify(ctx context.Context, liveBase64, idPhotoBase64 string) Result {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:   Task,
		Prompt: h.buildPrompt(),
		Media: []genai.Media{
			{MIMEType: "image/jpeg", Data: liveBase64},
			{MIMEType: "image/jpeg", Data: idPhotoBase64},
		},
		ResponseSchema: responseSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Face match failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("Face match output unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	h.logger.Debug("Face match completed", map[string]interface{}{
		"match":      result.Match,
		"confidence": result.Confidence,
	})
	return result
}

func (h *Handler) buildPrompt() string {
	parts := []string{
		"You are a facial comparison system. The first image is a live selfie",
		"captured during onboarding; the second is the portrait from the",
		"applicant's identity document.",
		"",
		"Determine whether both images show the same person. Compare:",
		"1. Face geometry: eye spacing, nose shape, jawline, ear position",
		"2. Distinctive marks: moles, scars, facial hair patterns",
		"3. Skin tone consistency after accounting for lighting",
		"",
		"Allow for aging, hairstyle changes, glasses and the lower quality of",
		"printed ID portraits. Flag indicators of identity fraud such as a",
		"photo-of-a-photo or digitally composited faces.",
		"",
		"Give your reasons for the verdict and score confidence from 0 to 100.",
	}
	return strings.Join(parts, "\n")
}
