// internal/pipeline/liveness/handler.go
package liveness

import (
	"context"
	"encoding/json"
	"strings"

	"quickscore/internal/genai"
	"quickscore/internal/common/logger"
)

// Handler runs liveness detection on a live camera frame through the model
// gateway.
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

// Check analyzes a base64-encoded frame and returns the liveness verdict.
// It never returns an error: any gateway failure yields the closed-fail
// sentinel record.
func (h *Handler) Check(ctx context.Context, imageBase64 string) Result {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:   Task,
		Prompt: h.buildPrompt(),
		Media: []genai.Media{
			{MIMEType: "image/jpeg", Data: imageBase64},
		},
		ResponseSchema: responseSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Liveness check failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("Liveness output unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	h.logger.Debug("Liveness check completed", map[string]interface{}{
		"passed":     result.Passed,
		"confidence": result.Confidence,
	})
	return result
}

func (h *Handler) buildPrompt() string {
	parts := []string{
		"You are a liveness detection system analyzing a selfie captured during identity verification.",
		"Determine whether the image shows a live person in front of the camera or a spoofing attempt.",
		"",
		"Check for:",
		"1. Natural skin texture and tone variation",
		"2. Eye reflections, natural gaze and blink artifacts",
		"3. Screen replay artifacts: moire patterns, pixel grids, screen glare, bezels",
		"4. Printed photo indicators: paper edges, flat lighting, uniform texture",
		"5. Mask indicators: unnatural skin boundaries, rigid features, missing pores",
		"6. Lighting consistency and 3D depth cues across the face",
		"",
		"Classify any spoofing attempt as photo, video or mask. Use \"none\" when no spoofing is detected.",
		"Score confidence and image quality from 0 to 100.",
		"Provide recommendations only when the capture should be retried.",
	}
	return strings.Join(parts, "\n")
}
