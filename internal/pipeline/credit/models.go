// internal/pipeline/credit/models.go
package credit

import (
	"quickscore/internal/models"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
)

// Approval statuses.
const (
	StatusApproved              = "APPROVED"
	StatusConditionallyApproved = "CONDITIONALLY_APPROVED"
	StatusRejected              = "REJECTED"
	StatusUnderReview           = "UNDER_REVIEW"
)

// ApplicantInfo is the personal context embedded in the assessment prompt.
type ApplicantInfo struct {
	FullName         string  `json:"fullName"`
	DateOfBirth      string  `json:"dateOfBirth"`
	EmploymentStatus string  `json:"employmentStatus"`
	MonthlyIncome    float64 `json:"monthlyIncome,omitempty"`
	EmployerName     string  `json:"employerName,omitempty"`
}

// Input is the material for an individual credit assessment.
type Input struct {
	Applicant   ApplicantInfo       `json:"applicantInfo"`
	Identity    identity.Record     `json:"identityVerification"`
	Financial   financial.Record    `json:"financialAnalysis"`
	LoanRequest *models.LoanRequest `json:"loanRequest,omitempty"`
}

// BusinessInput is the material for a business credit assessment.
type BusinessInput struct {
	Business           models.BusinessInfo       `json:"businessInfo"`
	MonthlyRevenue     float64                   `json:"monthlyRevenue"`
	Industry           string                    `json:"industry"`
	EmployeeCount      string                    `json:"employeeCount"`
	DocumentsVerified  bool                      `json:"documentsVerified"`
	DocumentConfidence int                       `json:"documentConfidence"`
	Transactions       []models.MpesaTransaction `json:"transactions"`
	Statements         []models.BankStatement    `json:"statements"`
}

// Range is a min/max/recommended triple.
type Range struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Recommended float64 `json:"recommended"`
}

// PeriodRange is a repayment period triple in months.
type PeriodRange struct {
	MinMonths         int `json:"minMonths"`
	MaxMonths         int `json:"maxMonths"`
	RecommendedMonths int `json:"recommendedMonths"`
}

// LoanRecommendation is the sized loan offer.
type LoanRecommendation struct {
	MinAmount         float64     `json:"minAmount"`
	MaxAmount         float64     `json:"maxAmount"`
	RecommendedAmount float64     `json:"recommendedAmount"`
	InterestRate      Range       `json:"interestRate"`
	RepaymentPeriod   PeriodRange `json:"repaymentPeriod"`
	MonthlyRepayment  Range       `json:"monthlyRepayment"`
}

// Factor is one weighted scoring component.
type Factor struct {
	Score   int    `json:"score"`
	Weight  int    `json:"weight"`
	Impact  string `json:"impact"` // POSITIVE, NEUTRAL, NEGATIVE
	Details string `json:"details"`
}

// AssessmentFactors is the weighted factor breakdown.
type AssessmentFactors struct {
	IdentityVerification Factor `json:"identityVerification"`
	IncomeStability      Factor `json:"incomeStability"`
	SpendingBehavior     Factor `json:"spendingBehavior"`
	SavingsCapacity      Factor `json:"savingsCapacity"`
	DebtBurden           Factor `json:"debtBurden"`
}

// Insight is one model-generated observation.
type Insight struct {
	Type        string `json:"type"` // STRENGTH, WEAKNESS, WARNING, OPPORTUNITY
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"` // HIGH, MEDIUM, LOW
}

// RiskAssessment summarizes default risk.
type RiskAssessment struct {
	OverallRisk           string   `json:"overallRisk"` // LOW, MEDIUM, HIGH, VERY_HIGH
	DefaultProbability    int      `json:"defaultProbability"`
	RiskFactors           []string `json:"riskFactors"`
	MitigationSuggestions []string `json:"mitigationSuggestions"`
}

// Condition attaches requirements to conditional approvals.
type Condition struct {
	Type        string `json:"type"` // REQUIRED, RECOMMENDED, OPTIONAL
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// Record is the full credit assessment outcome. The model's creditScore is
// authoritative: nothing downstream recomputes or second-guesses it.
type Record struct {
	CreditScore         int                `json:"creditScore"`
	ApprovalStatus      string             `json:"approvalStatus"`
	LoanRecommendation  LoanRecommendation `json:"loanRecommendation"`
	AssessmentFactors   AssessmentFactors  `json:"assessmentFactors"`
	KeyInsights         []Insight          `json:"keyInsights"`
	RiskAssessment      RiskAssessment     `json:"riskAssessment"`
	Conditions          []Condition        `json:"conditions"`
	DetailedExplanation string             `json:"detailedExplanation"`
	NextSteps           []string           `json:"nextSteps"`
	RejectionReasons    []string           `json:"rejectionReasons,omitempty"`
}

const responseSchema = `{
	"type": "object",
	"properties": {
		"creditScore": {"type": "number", "minimum": 0, "maximum": 100},
		"approvalStatus": {"type": "string", "enum": ["APPROVED", "CONDITIONALLY_APPROVED", "REJECTED", "UNDER_REVIEW"]},
		"loanRecommendation": {
			"type": "object",
			"properties": {
				"minAmount": {"type": "number"},
				"maxAmount": {"type": "number"},
				"recommendedAmount": {"type": "number"},
				"interestRate": {
					"type": "object",
					"properties": {
						"min": {"type": "number"},
						"max": {"type": "number"},
						"recommended": {"type": "number"}
					},
					"required": ["min", "max", "recommended"]
				},
				"repaymentPeriod": {
					"type": "object",
					"properties": {
						"minMonths": {"type": "number"},
						"maxMonths": {"type": "number"},
						"recommendedMonths": {"type": "number"}
					},
					"required": ["minMonths", "maxMonths", "recommendedMonths"]
				},
				"monthlyRepayment": {
					"type": "object",
					"properties": {
						"min": {"type": "number"},
						"max": {"type": "number"},
						"recommended": {"type": "number"}
					},
					"required": ["min", "max", "recommended"]
				}
			},
			"required": ["minAmount", "maxAmount", "recommendedAmount", "interestRate", "repaymentPeriod", "monthlyRepayment"]
		},
		"assessmentFactors": {
			"type": "object",
			"properties": {
				"identityVerification": {"$ref": "#/definitions/factor"},
				"incomeStability": {"$ref": "#/definitions/factor"},
				"spendingBehavior": {"$ref": "#/definitions/factor"},
				"savingsCapacity": {"$ref": "#/definitions/factor"},
				"debtBurden": {"$ref": "#/definitions/factor"}
			},
			"required": ["identityVerification", "incomeStability", "spendingBehavior", "savingsCapacity", "debtBurden"]
		},
		"keyInsights": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"type": {"type": "string", "enum": ["STRENGTH", "WEAKNESS", "WARNING", "OPPORTUNITY"]},
					"title": {"type": "string"},
					"description": {"type": "string"},
					"impact": {"type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]}
				},
				"required": ["type", "title", "description", "impact"]
			}
		},
		"riskAssessment": {
			"type": "object",
			"properties": {
				"overallRisk": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "VERY_HIGH"]},
				"defaultProbability": {"type": "number", "minimum": 0, "maximum": 100},
				"riskFactors": {"type": "array", "items": {"type": "string"}},
				"mitigationSuggestions": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["overallRisk", "defaultProbability", "riskFactors", "mitigationSuggestions"]
		},
		"conditions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"type": {"type": "string", "enum": ["REQUIRED", "RECOMMENDED", "OPTIONAL"]},
					"description": {"type": "string"},
					"reason": {"type": "string"}
				},
				"required": ["type", "description", "reason"]
			}
		},
		"detailedExplanation": {"type": "string"},
		"nextSteps": {"type": "array", "items": {"type": "string"}},
		"rejectionReasons": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["creditScore", "approvalStatus", "loanRecommendation", "assessmentFactors", "keyInsights", "riskAssessment", "conditions", "detailedExplanation", "nextSteps"],
	"definitions": {
		"factor": {
			"type": "object",
			"properties": {
				"score": {"type": "number", "minimum": 0, "maximum": 100},
				"weight": {"type": "number"},
				"impact": {"type": "string", "enum": ["POSITIVE", "NEUTRAL", "NEGATIVE"]},
				"details": {"type": "string"}
			},
			"required": ["score", "weight", "impact", "details"]
		}
	}
}`
