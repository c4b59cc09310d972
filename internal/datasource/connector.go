// internal/datasource/connector.go
package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quickscore/internal/common/config"
	"quickscore/internal/common/errors"
	commonhttp "quickscore/internal/common/http"
	"quickscore/internal/common/logger"
	"quickscore/internal/models"
)

// Connector fetches applicant records from an external statement provider.
type Connector struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
	logger  logger.Logger
}

func NewConnector(cfg config.DataSourceConfig, log logger.Logger) *Connector {
	timeout := time.Duration(cfg.Connector.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Connector{
		baseURL: cfg.Connector.BaseURL,
		apiKey:  cfg.Connector.APIKey,
		client:  commonhttp.NewClient(timeout),
		logger: log.With(map[string]interface{}{
			"datasource": "connector",
		}),
	}
}

// Profile returns a neutral medium-tier profile. The connector has no risk
// tiering of its own; the real shape comes from the fetched records.
func (c *Connector) Profile(tier models.RiskTier) models.FinancialProfile {
	return models.FinancialProfile{RiskTier: tier}
}

func (c *Connector) MpesaTransactions(ctx context.Context, phoneNumber string, months int, profile models.FinancialProfile) ([]models.MpesaTransaction, error) {
	var txns []models.MpesaTransaction
	url := fmt.Sprintf("%s/v1/statements/mpesa?phone=%s&months=%d", c.baseURL, phoneNumber, months)
	if err := c.fetch(ctx, url, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (c *Connector) BankStatements(ctx context.Context, accountRef string, months int, profile models.FinancialProfile) ([]models.BankStatement, error) {
	var statements []models.BankStatement
	url := fmt.Sprintf("%s/v1/statements/bank?account=%s&months=%d", c.baseURL, accountRef, months)
	if err := c.fetch(ctx, url, &statements); err != nil {
		return nil, err
	}
	return statements, nil
}

func (c *Connector) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.NewDataFetchFailedError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Statement connector unreachable", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return errors.NewDataSourceUnavailableError("statement-connector")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewDataFetchFailedError(fmt.Errorf("connector returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewDataFetchFailedError(err)
	}
	return nil
}
