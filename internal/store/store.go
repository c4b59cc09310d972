// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"quickscore/internal/common/database"
	"quickscore/internal/common/errors"
	"quickscore/internal/common/logger"
	"quickscore/internal/onboarding"
)

// Application is one persisted onboarding run, shaped for lender review.
type Application struct {
	ID            string          `json:"id"`
	ApplicantType string          `json:"applicantType"` // individual | business
	ApplicantName string          `json:"applicantName"`
	Status        string          `json:"status"`
	CreditScore   int             `json:"creditScore"`
	Result        json.RawMessage `json:"result"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Postgres persists onboarding results to the applications table.
type Postgres struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewPostgres(db *database.PostgresClient, log logger.Logger) *Postgres {
	return &Postgres{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "store",
		}),
	}
}

const insertApplication = `
	INSERT INTO applications (id, applicant_type, applicant_name, status, credit_score, result, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// SaveResult stores the terminal outcome of a run.
func (s *Postgres) SaveResult(ctx context.Context, applicantType, applicantName string, result onboarding.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	_, err = s.db.Exec(ctx, insertApplication,
		result.ID,
		applicantType,
		applicantName,
		result.Assessment.ApprovalStatus,
		result.Assessment.CreditScore,
		payload,
		time.Now(),
	)
	if err != nil {
		s.logger.Error("Failed to persist application", map[string]interface{}{
			"applicationId": result.ID,
			"error":         err.Error(),
		})
		return errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("Application persisted", map[string]interface{}{
		"applicationId": result.ID,
		"status":        result.Assessment.ApprovalStatus,
	})
	return nil
}

const selectApplication = `
	SELECT id, applicant_type, applicant_name, status, credit_score, result, created_at
	FROM applications
	WHERE id = $1`

// GetApplication fetches a single run by its ID.
func (s *Postgres) GetApplication(ctx context.Context, id string) (*Application, error) {
	var app Application
	err := s.db.QueryRow(ctx, selectApplication, id).Scan(
		&app.ID,
		&app.ApplicantType,
		&app.ApplicantName,
		&app.Status,
		&app.CreditScore,
		&app.Result,
		&app.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	return &app, nil
}

const selectApplications = `
	SELECT id, applicant_type, applicant_name, status, credit_score, result, created_at
	FROM applications
	ORDER BY created_at DESC
	LIMIT $1`

// ListApplications returns the most recent runs, newest first.
func (s *Postgres) ListApplications(ctx context.Context, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, selectApplications, limit)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(
			&app.ID,
			&app.ApplicantType,
			&app.ApplicantName,
			&app.Status,
			&app.CreditScore,
			&app.Result,
			&app.CreatedAt,
		); err != nil {
			return nil, errors.NewDatabaseConnectionFailedError(err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	return apps, nil
}
