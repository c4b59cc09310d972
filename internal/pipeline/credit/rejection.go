// internal/pipeline/credit/rejection.go
package credit

import "quickscore/internal/pipeline/identity"

// fastPathRejection builds the rejection record for an applicant whose
// identity verification already recommended REJECT. No model call is made.
func fastPathRejection(id identity.Record) Record {
	notAssessed := func(weight int) Factor {
		return Factor{
			Score:   0,
			Weight:  weight,
			Impact:  "NEUTRAL",
			Details: "Not assessed due to identity verification failure",
		}
	}
	reasons := append([]string{id.DetailedFeedback}, id.IDVerification.Issues...)
	return Record{
		CreditScore:        0,
		ApprovalStatus:     StatusRejected,
		LoanRecommendation: LoanRecommendation{},
		AssessmentFactors: AssessmentFactors{
			IdentityVerification: Factor{
				Score:   id.Confidence,
				Weight:  weightIdentity,
				Impact:  "NEGATIVE",
				Details: "Identity verification failed",
			},
			IncomeStability:  notAssessed(weightIncome),
			SpendingBehavior: notAssessed(weightSpending),
			SavingsCapacity:  notAssessed(weightSavings),
			DebtBurden:       notAssessed(weightDebt),
		},
		KeyInsights: []Insight{
			{
				Type:        "WARNING",
				Title:       "Identity Verification Failed",
				Description: id.DetailedFeedback,
				Impact:      "HIGH",
			},
		},
		RiskAssessment: RiskAssessment{
			OverallRisk:           "VERY_HIGH",
			DefaultProbability:    100,
			RiskFactors:           []string{"Identity verification failed"},
			MitigationSuggestions: []string{},
		},
		Conditions:          []Condition{},
		DetailedExplanation: id.DetailedFeedback,
		NextSteps: []string{
			"Your application has been rejected due to identity verification issues.",
			"Please contact support if you believe this is an error.",
		},
		RejectionReasons: reasons,
	}
}

// Rejection builds a rejected record carrying a single reason. Used when the
// assessment itself could not run, or when an earlier onboarding stage failed.
func Rejection(reason string) Record {
	return Record{
		CreditScore:        0,
		ApprovalStatus:     StatusRejected,
		LoanRecommendation: LoanRecommendation{},
		AssessmentFactors: AssessmentFactors{
			IdentityVerification: Factor{Score: 0, Weight: weightIdentity, Impact: "NEUTRAL", Details: reason},
			IncomeStability:      Factor{Score: 0, Weight: weightIncome, Impact: "NEUTRAL", Details: reason},
			SpendingBehavior:     Factor{Score: 0, Weight: weightSpending, Impact: "NEUTRAL", Details: reason},
			SavingsCapacity:      Factor{Score: 0, Weight: weightSavings, Impact: "NEUTRAL", Details: reason},
			DebtBurden:           Factor{Score: 0, Weight: weightDebt, Impact: "NEUTRAL", Details: reason},
		},
		KeyInsights: []Insight{},
		RiskAssessment: RiskAssessment{
			OverallRisk:           "VERY_HIGH",
			DefaultProbability:    100,
			RiskFactors:           []string{reason},
			MitigationSuggestions: []string{},
		},
		Conditions:          []Condition{},
		DetailedExplanation: reason,
		NextSteps: []string{
			"Please contact support if you believe this is an error.",
		},
		RejectionReasons: []string{reason},
	}
}
