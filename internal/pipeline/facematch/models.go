// internal/pipeline/facematch/models.go
package facematch

// Result is the verdict on whether a live frame and an ID portrait show the
// same person.
type Result struct {
	Match           bool     `json:"isMatch"`
	Confidence      int      `json:"confidence"`
	Reasons         []string `json:"reasons"`
	Warnings        []string `json:"warnings"`
	FraudIndicators []string `json:"fraudIndicators"`
}

// sentinelResult is the closed-fail record for gateway failures.
func sentinelResult() Result {
	return Result{
		Match:           false,
		Confidence:      0,
		Reasons:         []string{"Technical error during verification"},
		Warnings:        []string{"Unable to complete verification"},
		FraudIndicators: []string{},
	}
}

const responseSchema = `{
	"type": "object",
	"properties": {
		"isMatch": {"type": "boolean"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"reasons": {"type": "array", "items": {"type": "string"}},
		"warnings": {"type": "array", "items": {"type": "string"}},
		"fraudIndicators": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["isMatch", "confidence", "reasons"]
}`
