// internal/pipeline/identity/handler.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
)

// Handler runs the full identity verification: ID forgery analysis, liveness
// confirmation and face matching, folded through a fixed decision table.
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

// Verify runs the three component checks sequentially and aggregates their
// verdicts. It never returns an error: each component fails closed on gateway
// problems, and the decision table turns those sentinels into a rejection.
func (h *Handler) Verify(ctx context.Context, input Input) Record {
	idAnalysis := h.analyzeID(ctx, input.IDFrontImage, input.IDBackImage)
	liveness := h.checkLiveness(ctx, input.LiveFaceImages)
	faceMatch := h.matchFaces(ctx, input.LiveFaceImages, input.IDFrontImage)

	record := Decide(h.config.ReviewThreshold, idAnalysis, liveness, faceMatch)

	h.logger.Info("Identity verification completed", map[string]interface{}{
		"valid":          record.Valid,
		"confidence":     record.Confidence,
		"recommendation": record.Recommendation,
	})
	return record
}

// Decide applies the decision table to the three component verdicts.
// Precedence is fixed: forgery beats liveness beats face mismatch; only a
// fully valid triple can reach the confidence boundary, and below
// reviewThreshold the decision is manual review rather than approval.
func Decide(reviewThreshold int, idAnalysis IDAnalysis, liveness LivenessCheck, faceMatch FaceMatch) Record {
	overallValid := !idAnalysis.Forged && liveness.Passed && faceMatch.Matched

	avgConfidence := int(math.Round(
		float64(idAnalysis.Confidence+liveness.Confidence+faceMatch.Confidence) / 3,
	))

	var recommendation, feedback string
	switch {
	case idAnalysis.Forged:
		recommendation = RecommendReject
		feedback = fmt.Sprintf(
			"Identity verification failed. Your ID document appears to be forged or tampered with. Issues detected: %s. Please contact support if you believe this is an error.",
			strings.Join(idAnalysis.Issues, ", "),
		)
	case !liveness.Passed:
		recommendation = RecommendReject
		feedback = fmt.Sprintf(
			"Liveness detection failed. We could not verify that you are a real person in front of the camera. Issues: %s. Please try again with proper lighting and follow all prompts carefully.",
			strings.Join(liveness.SuspiciousActivity, ", "),
		)
	case !faceMatch.Matched:
		recommendation = RecommendReject
		feedback = fmt.Sprintf(
			"Face matching failed. The face in your live video does not match the face on your ID document. Reason: %s. Please ensure you're using your own ID and try again.",
			faceMatch.Reason,
		)
	case avgConfidence < reviewThreshold:
		recommendation = RecommendManualReview
		feedback = "Your verification is under review. While initial checks passed, we need additional verification to ensure accuracy. Our team will review within 24 hours."
	default:
		recommendation = RecommendApprove
		feedback = fmt.Sprintf(
			"Identity verified successfully! Your ID is authentic, liveness check passed, and your face matches your ID photo with %d%% confidence.",
			avgConfidence,
		)
	}

	return Record{
		Valid:            overallValid,
		Confidence:       avgConfidence,
		FaceMatch:        faceMatch,
		IDVerification:   idAnalysis,
		LivenessCheck:    liveness,
		Recommendation:   recommendation,
		DetailedFeedback: feedback,
	}
}

func (h *Handler) analyzeID(ctx context.Context, frontBase64, backBase64 string) IDAnalysis {
	media := []genai.Media{
		{MIMEType: "image/jpeg", Data: frontBase64},
	}
	if backBase64 != "" {
		media = append(media, genai.Media{MIMEType: "image/jpeg", Data: backBase64})
	}

	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task + "/id-analysis",
		Prompt:         h.buildIDAnalysisPrompt(),
		Media:          media,
		ResponseSchema: idAnalysisSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("ID analysis failed closed", map[string]interface{}{"error": err.Error()})
		return sentinelIDAnalysis()
	}

	var result IDAnalysis
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("ID analysis unmarshal failed", map[string]interface{}{"error": err.Error()})
		return sentinelIDAnalysis()
	}
	return result
}

func (h *Handler) checkLiveness(ctx context.Context, frames []string) LivenessCheck {
	media := make([]genai.Media, 0, len(frames))
	for _, frame := range frames {
		media = append(media, genai.Media{MIMEType: "image/jpeg", Data: frame})
	}

	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task + "/liveness",
		Prompt:         h.buildLivenessPrompt(),
		Media:          media,
		ResponseSchema: livenessSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Liveness check failed closed", map[string]interface{}{"error": err.Error()})
		return sentinelLiveness()
	}

	var result LivenessCheck
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("Liveness unmarshal failed", map[string]interface{}{"error": err.Error()})
		return sentinelLiveness()
	}
	return result
}

func (h *Handler) matchFaces(ctx context.Context, frames []string, idFrontBase64 string) FaceMatch {
	if len(frames) > maxFaceFrames {
		frames = frames[:maxFaceFrames]
	}
	media := make([]genai.Media, 0, len(frames)+1)
	for _, frame := range frames {
		media = append(media, genai.Media{MIMEType: "image/jpeg", Data: frame})
	}
	media = append(media, genai.Media{MIMEType: "image/jpeg", Data: idFrontBase64})

	out, err := h.gen.Generate(ctx, genai.Request{
		Task:           Task + "/face-match",
		Prompt:         h.buildFaceMatchPrompt(),
		Media:          media,
		ResponseSchema: faceMatchSchema,
		Temperature:    h.config.Temperature,
		MaxTokens:      h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Warn("Face match failed closed", map[string]interface{}{"error": err.Error()})
		return sentinelFaceMatch()
	}

	var result FaceMatch
	if err := json.Unmarshal(out, &result); err != nil {
		h.logger.Warn("Face match unmarshal failed", map[string]interface{}{"error": err.Error()})
		return sentinelFaceMatch()
	}
	return result
}

func (h *Handler) buildIDAnalysisPrompt() string {
	parts := []string{
		"You are an expert document verification specialist. Analyze these ID images for authenticity.",
		"",
		"Check for:",
		"1. Document quality and printing consistency",
		"2. Holograms, watermarks, and security features",
		"3. Font consistency and spacing",
		"4. Photo quality and alignment",
		"5. Any signs of digital manipulation or forgery",
		"6. Text clarity and barcode/MRZ integrity",
		"7. Document expiry status",
		"",
		"Extract all visible text including the full name, ID number, date of",
		"birth, expiry date and nationality.",
		"",
		"Report whether the document appears forged, your confidence from 0 to",
		"100, and every specific issue found.",
		"Be thorough and precise. If anything looks suspicious, flag it.",
	}
	return strings.Join(parts, "\n")
}

func (h *Handler) buildLivenessPrompt() string {
	parts := []string{
		"You are a biometric liveness detection expert. Analyze these sequential images from a liveness check.",
		"",
		"Look for:",
		"1. Consistent face across all frames",
		"2. Natural eye blinking, not static frames or video playback",
		"3. Natural head movement",
		"4. Natural facial expressions, not a mask or deepfake",
		"5. Proper lighting variation that rules out printed photos",
		"6. Depth perception cues",
		"7. Any signs of spoofing such as a held-up photo, screen replay or mask",
		"",
		"Report whether this is a real live person, your confidence from 0 to",
		"100, and any suspicious activities detected.",
		"Be strict. If anything looks artificial or manipulated, flag it.",
	}
	return strings.Join(parts, "\n")
}

func (h *Handler) buildFaceMatchPrompt() string {
	parts := []string{
		"You are a facial recognition expert. Compare the face in the live images with the face on the ID document.",
		"",
		"Analyze:",
		"1. Facial structure and proportions",
		"2. Eye shape and position",
		"3. Nose shape and size",
		"4. Mouth and lip structure",
		"5. Facial hair patterns",
		"6. Skin tone and texture",
		"7. Age consistency",
		"8. Any visible identifying marks",
		"",
		"Account for different lighting conditions, angles, natural aging and",
		"different expressions.",
		"Report whether the faces match, your confidence from 0 to 100, and a",
		"detailed explanation of the decision.",
		"Be thorough but fair. Minor differences due to lighting or angle are acceptable.",
	}
	return strings.Join(parts, "\n")
}
