// internal/pipeline/document/models.go
package document

// ExtractedData holds the fields read off an identity document.
type ExtractedData struct {
	FullName    string `json:"fullName"`
	IDNumber    string `json:"idNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	IssueDate   string `json:"issueDate,omitempty"`
	ExpiryDate  string `json:"expiryDate,omitempty"`
}

// Result is the authenticity verdict for a document.
type Result struct {
	Authentic         bool          `json:"isAuthentic"`
	Confidence        int           `json:"confidence"`
	ForgeryDetected   bool          `json:"forgeryDetected"`
	ForgeryIndicators []string      `json:"forgeryIndicators"`
	Extracted         ExtractedData `json:"extractedData"`
	QualityIssues     []string      `json:"qualityIssues"`
	Warnings          []string      `json:"warnings"`
	Recommendations   []string      `json:"recommendations"`
}

// sentinelResult is returned whenever the model call cannot complete. Forgery
// is assumed so an outage can never authenticate a document.
func sentinelResult() Result {
	return Result{
		Authentic:         false,
		Confidence:        0,
		ForgeryDetected:   true,
		ForgeryIndicators: []string{"Technical error during verification"},
		QualityIssues:     []string{},
		Warnings:          []string{},
		Recommendations:   []string{},
	}
}

const responseSchema = `{
	"type": "object",
	"properties": {
		"isAuthentic": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"forgeryDetected": {"type": "boolean"},
		"forgeryIndicators": {"type": "array", "items": {"type": "string"}},
		"extractedData": {
			"type": "object",
			"properties": {
				"fullName": {"type": "string"},
				"idNumber": {"type": "string"},
				"dateOfBirth": {"type": "string"},
				"gender": {"type": "string"},
				"nationality": {"type": "string"},
				"issueDate": {"type": "string"},
				"expiryDate": {"type": "string"}
			}
		},
		"qualityIssues": {"type": "array", "items": {"type": "string"}},
		"warnings": {"type": "array", "items": {"type": "string"}},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["isAuthentic", "confidence", "forgeryDetected", "forgeryIndicators", "extractedData"]
}`
