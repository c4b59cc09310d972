// internal/datasource/source.go
package datasource

import (
	"context"
	"fmt"

	"quickscore/internal/common/config"
	"quickscore/internal/common/logger"
	"quickscore/internal/models"
)

// Source provides the applicant financial data fed into the onboarding
// pipeline. Implementations are swappable: synthetic generation for demos and
// load tests, a live statement connector for production.
type Source interface {
	// Profile returns the financial profile shape for a risk tier.
	Profile(tier models.RiskTier) models.FinancialProfile

	// MpesaTransactions returns the mobile money history for an applicant,
	// newest first.
	MpesaTransactions(ctx context.Context, phoneNumber string, months int, profile models.FinancialProfile) ([]models.MpesaTransaction, error)

	// BankStatements returns monthly account summaries, newest first.
	BankStatements(ctx context.Context, accountRef string, months int, profile models.FinancialProfile) ([]models.BankStatement, error)
}

// New builds the Source selected by the configured mode.
func New(cfg config.DataSourceConfig, log logger.Logger) (Source, error) {
	switch cfg.Mode {
	case "synthetic", "":
		return NewSynthetic(cfg.Seed, log), nil
	case "connector":
		return NewConnector(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown data source mode: %s", cfg.Mode)
	}
}
