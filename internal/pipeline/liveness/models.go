// internal/pipeline/liveness/models.go
package liveness

// Result is the liveness verdict for a single camera frame.
type Result struct {
	Passed           bool     `json:"isPassed"`
	Confidence       int      `json:"confidence"`
	SpoofingDetected bool     `json:"spoofingDetected"`
	SpoofingType     string   `json:"spoofingType"` // photo, video, mask or none
	QualityScore     int      `json:"qualityScore"`
	Recommendations  []string `json:"recommendations"`
}

// sentinelResult is the closed-fail record returned whenever the model call
// cannot complete. Spoofing is assumed so a gateway outage can never pass an
// applicant through.
func sentinelResult() Result {
	return Result{
		Passed:           false,
		Confidence:       0,
		SpoofingDetected: true,
		SpoofingType:     "none",
		QualityScore:     0,
		Recommendations:  []string{"Technical error - please retry"},
	}
}

const responseSchema = `{
	"type": "object",
	"properties": {
		"isPassed": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"spoofingDetected": {"type": "boolean"},
		"spoofingType": {"type": "string", "enum": ["photo", "video", "mask", "none"]},
		"qualityScore": {"type": "integer", "minimum": 0, "maximum": 100},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["isPassed", "confidence", "spoofingDetected", "spoofingType", "qualityScore", "recommendations"]
}`
