// internal/httpapi/handlers.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	stderrors "errors"

	"quickscore/internal/common/errors"
	"quickscore/internal/common/logger"
	"quickscore/internal/genai"
	"quickscore/internal/onboarding"
	"quickscore/internal/pipeline/credit"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
	"quickscore/internal/pipeline/insights"
	"quickscore/internal/store"
)

// Service interfaces consumed by the HTTP layer. The concrete pipeline types
// satisfy them; tests substitute stubs.
type OnboardingService interface {
	ProcessIndividual(ctx context.Context, req onboarding.IndividualRequest) onboarding.Result
	ProcessBusiness(ctx context.Context, req onboarding.BusinessRequest) onboarding.Result
}

type IdentityVerifier interface {
	Verify(ctx context.Context, input identity.Input) identity.Record
}

type FinancialAnalyzer interface {
	Analyze(ctx context.Context, input financial.Input) financial.Record
}

type CreditAssessor interface {
	Assess(ctx context.Context, input credit.Input) credit.Record
}

type InsightsService interface {
	FlagFraud(ctx context.Context, input insights.FraudInput) (*insights.FraudResult, error)
	RecommendLoan(ctx context.Context, input insights.LoanInput) (*insights.LoanResult, error)
	SummarizeFinancials(ctx context.Context, financialData string) (*insights.SummaryResult, error)
}

type ApplicationStore interface {
	SaveResult(ctx context.Context, applicantType, applicantName string, result onboarding.Result) error
	GetApplication(ctx context.Context, id string) (*store.Application, error)
	ListApplications(ctx context.Context, limit int) ([]store.Application, error)
}

type ProgressReader interface {
	Get(ctx context.Context, runID string) (*onboarding.Progress, error)
}

type DecisionNotifier interface {
	SendDecision(ctx context.Context, recipientEmail, applicantName string, result onboarding.Result) error
	SendDecisionSMS(ctx context.Context, phoneNumber string, result onboarding.Result) error
}

// Handlers bundles the request handlers and their collaborators. Store,
// progress and notifier are optional: a nil value disables that surface.
type Handlers struct {
	onboarding OnboardingService
	identity   IdentityVerifier
	financial  FinancialAnalyzer
	credit     CreditAssessor
	insights   InsightsService
	store      ApplicationStore
	progress   ProgressReader
	notifier   DecisionNotifier
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandlers(
	onboardingSvc OnboardingService,
	identityVerifier IdentityVerifier,
	financialAnalyzer FinancialAnalyzer,
	creditAssessor CreditAssessor,
	insightsSvc InsightsService,
	applicationStore ApplicationStore,
	progressReader ProgressReader,
	notifier DecisionNotifier,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		onboarding: onboardingSvc,
		identity:   identityVerifier,
		financial:  financialAnalyzer,
		credit:     creditAssessor,
		insights:   insightsSvc,
		store:      applicationStore,
		progress:   progressReader,
		notifier:   notifier,
		errHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"component": "httpapi",
		}),
	}
}

type onboardRequest struct {
	Type string          `json:"type"` // individual | business
	Data json.RawMessage `json:"data"`
}

func (h *Handlers) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}

	var result onboarding.Result
	var applicantType, applicantName, recipientEmail, recipientPhone string

	switch req.Type {
	case "individual":
		var data onboarding.IndividualRequest
		if err := json.Unmarshal(req.Data, &data); err != nil {
			h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid individual payload"))
			return
		}
		if data.LivenessImage == "" || data.IDFrontImage == "" || data.Personal.FullName == "" {
			h.errHandler.HandleHTTPError(w, r,
				errors.NewInvalidApplicantDataError("livenessImage, idFrontImage and personalInfo.fullName are required"))
			return
		}
		result = h.onboarding.ProcessIndividual(r.Context(), data)
		applicantType, applicantName = "individual", data.Personal.FullName
		recipientEmail, recipientPhone = data.Personal.Email, data.Personal.PhoneNumber

	case "business":
		var data onboarding.BusinessRequest
		if err := json.Unmarshal(req.Data, &data); err != nil {
			h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid business payload"))
			return
		}
		if data.Documents.RegistrationCert == "" || data.Documents.TaxCert == "" || data.Business.BusinessName == "" {
			h.errHandler.HandleHTTPError(w, r,
				errors.NewInvalidApplicantDataError("registrationCert, taxCert and businessInfo.businessName are required"))
			return
		}
		result = h.onboarding.ProcessBusiness(r.Context(), data)
		applicantType, applicantName = "business", data.Business.BusinessName
		recipientEmail, recipientPhone = data.Business.Email, data.Business.PhoneNumber

	default:
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("type must be individual or business"))
		return
	}

	// Persistence and notification are best-effort: the applicant already has
	// a decision, so downstream failures only get logged.
	if h.store != nil {
		if err := h.store.SaveResult(r.Context(), applicantType, applicantName, result); err != nil {
			h.logger.Error("Failed to persist onboarding result", map[string]interface{}{
				"applicationId": result.ID,
				"error":         err.Error(),
			})
		}
	}
	if h.notifier != nil {
		if err := h.notifier.SendDecision(r.Context(), recipientEmail, applicantName, result); err != nil {
			h.logger.Error("Failed to send decision notification", map[string]interface{}{
				"applicationId": result.ID,
				"error":         err.Error(),
			})
		}
		if err := h.notifier.SendDecisionSMS(r.Context(), recipientPhone, result); err != nil {
			h.logger.Error("Failed to send decision SMS", map[string]interface{}{
				"applicationId": result.ID,
				"error":         err.Error(),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

func (h *Handlers) VerifyIdentity(w http.ResponseWriter, r *http.Request) {
	var input identity.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}
	if len(input.LiveFaceImages) == 0 || input.IDFrontImage == "" {
		h.errHandler.HandleHTTPError(w, r,
			errors.NewInvalidApplicantDataError("liveFaceImages and idFrontImage are required"))
		return
	}

	record := h.identity.Verify(r.Context(), input)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    record,
	})
}

func (h *Handlers) AnalyzeFinancials(w http.ResponseWriter, r *http.Request) {
	var input financial.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}
	if input.PhoneNumber == "" || len(input.Transactions) == 0 {
		h.errHandler.HandleHTTPError(w, r,
			errors.NewInvalidApplicantDataError("phoneNumber and transactions are required"))
		return
	}

	record := h.financial.Analyze(r.Context(), input)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    record,
	})
}

func (h *Handlers) AssessCredit(w http.ResponseWriter, r *http.Request) {
	var input credit.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}
	if input.Applicant.FullName == "" {
		h.errHandler.HandleHTTPError(w, r,
			errors.NewInvalidApplicantDataError("applicantInfo.fullName is required"))
		return
	}

	record := h.credit.Assess(r.Context(), input)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    record,
	})
}

func (h *Handlers) FlagFraud(w http.ResponseWriter, r *http.Request) {
	var input insights.FraudInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}

	result, err := h.insights.FlagFraud(r.Context(), input)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, mapGatewayError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

func (h *Handlers) LoanRecommendations(w http.ResponseWriter, r *http.Request) {
	var input insights.LoanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}

	result, err := h.insights.RecommendLoan(r.Context(), input)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, mapGatewayError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

type summarizeRequest struct {
	FinancialData string `json:"financialData"`
}

func (h *Handlers) SummarizeFinancials(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("invalid request body"))
		return
	}
	if req.FinancialData == "" {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidApplicantDataError("financialData is required"))
		return
	}

	result, err := h.insights.SummarizeFinancials(r.Context(), req.FinancialData)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, mapGatewayError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewDataSourceUnavailableError("application-store"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	apps, err := h.store.ListApplications(r.Context(), limit)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    apps,
	})
}

func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewDataSourceUnavailableError("application-store"))
		return
	}
	app, err := h.store.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    app,
	})
}

func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	if h.progress == nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewDataSourceUnavailableError("progress-cache"))
		return
	}
	snapshot, err := h.progress.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshot,
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// mapGatewayError converts gateway sentinel errors into their standardized
// form so HTTPStatus maps them to 502.
func mapGatewayError(err error) error {
	switch {
	case stderrors.Is(err, genai.ErrGatewayTimeout):
		return errors.NewGatewayTimeoutError()
	case stderrors.Is(err, genai.ErrSchemaViolation):
		return errors.NewSchemaValidationFailedError(err.Error())
	case stderrors.Is(err, genai.ErrGatewayCall):
		return errors.NewGatewayCallFailedError(err)
	default:
		return errors.NewGatewayCallFailedError(err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
