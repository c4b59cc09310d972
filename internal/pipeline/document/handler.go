// internal/pipeline/document/handler.go
package document

import (
	"context"
	"encoding/json"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
)

// Handler verifies identity and business documents through the model gateway.
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

// VerifyID checks a national ID for authenticity and extracts its fields.
// The back image is optional. Any gateway failure yields the closed-fail
// sentinel record instead of an error.
func (h *Handler) VerifyID(ctx context.Context, frontBase64, backBase64 string) Result {
	media := []genai.Media{
		{MIMEType: "image/jpeg", Data: frontBase64},
	}
	if backBase64 != "" {
		media = append(media, genai.Media{MIMEType: "image/jpeg", Data: backBase64})
	}

	return h.verify(ctx, h.buildIDPrompt(backBase64 != ""), media)
}

// VerifyBusinessDocument checks a business registration, tax or address
// document. kind selects the document-specific checks in the prompt.
func (h *Handler) VerifyBusinessDocument(ctx context.Context, imageBase64, kind string) Result {
	media := []genai.Media{
		{MIMEType: "image/jpeg", Data: imageBase64},
	}
	return h.verify(ctx, h.buildBusinessPrompt(kind), media)
}

func (h *Handler) verify(ctx context.Context, prompt string, media []genai.Media) Result {
	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task,
		Prompt:         prompt,
		Media:          media,
		ResponseSchema: responseSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Document verification failed closed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("Document output unmarshal failed", map[string]interface{}{
			"error": err.Error(),
		})
		return sentinelResult()
	}

	h.logger.Debug("Document verification completed", map[string]interface{}{
		"authentic":  result.Authentic,
		"confidence": result.Confidence,
		"forgery":    result.ForgeryDetected,
	})
	return result
}

func (h *Handler) buildIDPrompt(hasBack bool) string {
	parts := []string{
		"You are a document forensics system verifying a national identity card.",
	}
	if hasBack {
		parts = append(parts, "Both the front and back of the document are attached.")
	} else {
		parts = append(parts, "Only the front of the document is attached.")
	}
	parts = append(parts,
		"",
		"Examine the document for:",
		"1. Tampering: digital edits, overlaid text, inconsistent fonts or spacing",
		"2. Photo substitution: misaligned portrait, shadow or glue marks",
		"3. Security features: holograms, microprint, consistent serial formatting",
		"4. Material authenticity: print quality, wear patterns, lamination",
		"",
		"Extract the holder's full name, ID number, date of birth, gender and",
		"nationality, plus issue and expiry dates when legible.",
		"List every forgery indicator found. Note any quality issues that limit",
		"the analysis and warnings the reviewer should see.",
	)
	return strings.Join(parts, "\n")
}

func (h *Handler) buildBusinessPrompt(kind string) string {
	parts := []string{
		"You are a document forensics system verifying a business document.",
	}

	switch kind {
	case KindRegistration:
		parts = append(parts,
			"The attached image is a certificate of business registration.",
			"Verify the registrar seal, certificate number format and issue date.",
			"Extract the business name into fullName and the registration number into idNumber.",
		)
	case KindTax:
		parts = append(parts,
			"The attached image is a tax registration certificate.",
			"Verify the revenue authority markings and the PIN format.",
			"Extract the registered name into fullName and the tax PIN into idNumber.",
		)
	case KindAddress:
		parts = append(parts,
			"The attached image is a proof of business address, such as a utility bill or lease.",
			"Verify the document is recent and names the business consistently.",
			"Extract the business name into fullName and the address into nationality.",
		)
	default:
		parts = append(parts,
			"Verify the attached business document for authenticity.",
		)
	}

	parts = append(parts,
		"",
		"Check for tampering, inconsistent fonts, and signs of digital editing.",
		"List every forgery indicator found.",
	)
	return strings.Join(parts, "\n")
}
