// internal/models/applicant.go
package models

// PersonalInfo is the applicant identity data captured during onboarding.
type PersonalInfo struct {
	FullName    string `json:"fullName"`
	IDNumber    string `json:"idNumber"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
}

// EmploymentStatus values accepted by the financial analysis adapter.
const (
	EmploymentEmployed      = "employed"
	EmploymentSelfEmployed  = "self-employed"
	EmploymentBusinessOwner = "business-owner"
	EmploymentUnemployed    = "unemployed"
)

// BusinessInfo is the registered business data for business onboarding.
type BusinessInfo struct {
	BusinessName       string `json:"businessName"`
	RegistrationNumber string `json:"registrationNumber"`
	TaxPIN             string `json:"taxPin"`
	BusinessType       string `json:"businessType"`
	YearsInOperation   int    `json:"yearsInOperation"`
	PhysicalAddress    string `json:"physicalAddress,omitempty"`
	OwnerName          string `json:"ownerName"`
	OwnerIDNumber      string `json:"ownerIdNumber"`
	Email              string `json:"email,omitempty"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
}

// LoanRequest is the optional loan ask attached to an application.
type LoanRequest struct {
	Amount          float64 `json:"amount"`
	Purpose         string  `json:"purpose"`
	RepaymentMonths int     `json:"repaymentMonths"`
}
