// internal/onboarding/models.go
package onboarding

import (
	"time"

	"quickscore/internal/models"
	"quickscore/internal/pipeline/credit"
)

// Step statuses.
const (
	StepPending    = "pending"
	StepProcessing = "processing"
	StepCompleted  = "completed"
	StepFailed     = "failed"
)

// Progress stages.
const (
	StageIdentity   = "identity"
	StageDocuments  = "documents"
	StageFinancial  = "financial"
	StageAssessment = "assessment"
	StageComplete   = "complete"
)

// Step is one entry in the per-run processing log.
type Step struct {
	Name      string    `json:"step"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress is a stage-boundary snapshot handed to the observer.
type Progress struct {
	Stage                     string `json:"stage"`
	Percent                   int    `json:"progress"`
	CurrentAction             string `json:"currentAction"`
	EstimatedSecondsRemaining int    `json:"estimatedTimeRemaining"`
}

// ProgressObserver receives stage-boundary snapshots. Calls are synchronous
// and best-effort: the pipeline does not wait for acknowledgement and ignores
// observer failures.
type ProgressObserver interface {
	OnProgress(runID string, progress Progress)
}

// FinancialConnection describes where the applicant's records come from.
type FinancialConnection struct {
	Type       string `json:"type"` // mpesa | bank | till | manual | skip
	AccountRef string `json:"accountInfo,omitempty"`
}

// IndividualRequest carries everything needed for an individual run.
type IndividualRequest struct {
	LivenessImage       string              `json:"livenessImage"` // base64
	IDFrontImage        string              `json:"idFrontImage"`
	IDBackImage         string              `json:"idBackImage"`
	Personal            models.PersonalInfo `json:"personalInfo"`
	EmploymentStatus    string              `json:"employmentStatus"`
	MonthlyIncome       float64             `json:"monthlyIncome"`
	FinancialConnection FinancialConnection `json:"financialConnection"`
	LoanRequest         *models.LoanRequest `json:"loanRequest,omitempty"`
}

// BusinessDocuments holds the base64 document images for a business run.
type BusinessDocuments struct {
	RegistrationCert string `json:"registrationCert"`
	TaxCert          string `json:"taxCert"`
	AddressProof     string `json:"addressProof,omitempty"`
}

// Representative identifies who is applying on the business's behalf.
type Representative struct {
	Name         string `json:"name"`
	IDNumber     string `json:"idNumber"`
	Relationship string `json:"relationship"`
}

// BusinessRequest carries everything needed for a business run.
type BusinessRequest struct {
	Business            models.BusinessInfo `json:"businessInfo"`
	Industry            string              `json:"industry"`
	EmployeeCount       string              `json:"employeeCount"`
	MonthlyRevenue      float64             `json:"monthlyRevenue"`
	Documents           BusinessDocuments   `json:"documents"`
	Representative      Representative      `json:"representative"`
	FinancialConnection FinancialConnection `json:"financialConnection"`
}

// Result is the terminal outcome of a run. Success mirrors the assessment:
// anything other than a REJECTED status counts as a successful run.
type Result struct {
	ID         string        `json:"userId"`
	Success    bool          `json:"success"`
	Assessment credit.Record `json:"assessmentResult"`
	Steps      []Step        `json:"processingSteps"`
}
