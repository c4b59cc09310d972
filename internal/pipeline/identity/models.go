// internal/pipeline/identity/models.go
package identity

// Recommendation values produced by the decision table.
const (
	RecommendApprove      = "APPROVE"
	RecommendReject       = "REJECT"
	RecommendManualReview = "MANUAL_REVIEW"
)

// Input carries the captured images for a full identity verification.
type Input struct {
	LiveFaceImages []string `json:"liveFaceImages"` // base64 frames from the liveness capture
	IDFrontImage   string   `json:"idFrontImage"`
	IDBackImage    string   `json:"idBackImage"`
}

// ExtractedData holds the fields read off the ID document.
type ExtractedData struct {
	FullName    string `json:"fullName"`
	IDNumber    string `json:"idNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	ExpiryDate  string `json:"expiryDate,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// IDAnalysis is the forgery verdict for the ID document.
type IDAnalysis struct {
	Forged     bool          `json:"isForged"`
	Confidence int           `json:"confidence"`
	Issues     []string      `json:"issues"`
	Extracted  ExtractedData `json:"extractedData"`
}

// LivenessCheck is the live-person verdict across the captured frames.
type LivenessCheck struct {
	Passed             bool     `json:"passed"`
	Confidence         int      `json:"confidence"`
	SuspiciousActivity []string `json:"suspiciousActivity"`
}

// FaceMatch is the verdict on whether the live frames and the ID portrait
// show the same person.
type FaceMatch struct {
	Matched    bool   `json:"matched"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Record is the aggregated identity verification outcome. Confidence is the
// rounded mean of the three component confidences.
type Record struct {
	Valid            bool          `json:"isValid"`
	Confidence       int           `json:"confidence"`
	FaceMatch        FaceMatch     `json:"faceMatch"`
	IDVerification   IDAnalysis    `json:"idVerification"`
	LivenessCheck    LivenessCheck `json:"livenessCheck"`
	Recommendation   string        `json:"recommendation"`
	DetailedFeedback string        `json:"detailedFeedback"`
}

// Closed-fail records for each component call.

func sentinelIDAnalysis() IDAnalysis {
	return IDAnalysis{
		Forged:     true,
		Confidence: 0,
		Issues:     []string{"Technical error during verification"},
	}
}

func sentinelLiveness() LivenessCheck {
	return LivenessCheck{
		Passed:             false,
		Confidence:         0,
		SuspiciousActivity: []string{"Technical error during verification"},
	}
}

func sentinelFaceMatch() FaceMatch {
	return FaceMatch{
		Matched:    false,
		Confidence: 0,
		Reason:     "Technical error during verification",
	}
}

const idAnalysisSchema = `{
	"type": "object",
	"properties": {
		"isForged": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"issues": {"type": "array", "items": {"type": "string"}},
		"extractedData": {
			"type": "object",
			"properties": {
				"fullName": {"type": "string"},
				"idNumber": {"type": "string"},
				"dateOfBirth": {"type": "string"},
				"expiryDate": {"type": "string"},
				"nationality": {"type": "string"}
			},
			"required": ["fullName", "idNumber", "dateOfBirth"]
		}
	},
	"required": ["isForged", "confidence", "issues", "extractedData"]
}`

const livenessSchema = `{
	"type": "object",
	"properties": {
		"passed": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"suspiciousActivity": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["passed", "confidence", "suspiciousActivity"]
}`

const faceMatchSchema = `{
	"type": "object",
	"properties": {
		"matched": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"reason": {"type": "string"}
	},
	"required": ["matched", "confidence", "reason"]
}`
