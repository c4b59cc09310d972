// Package genai is the client for the hosted model gateway. Every adapter in
// the pipeline goes through Generate: one prompt, optional media, an optional
// response schema, exactly one attempt.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"quickscore/internal/common/config"
	"quickscore/internal/common/logger"
	"quickscore/internal/common/metrics"
	"quickscore/internal/common/validation"
)

// Generator is the call surface adapters depend on. Tests substitute stubs
// to count calls and inject failures.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// Media is an inline image attached to a prompt.
type Media struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// Request describes a single model call.
type Request struct {
	Task           string  // metrics label, not sent over the wire
	Prompt         string  `json:"prompt"`
	Media          []Media `json:"media,omitempty"`
	ResponseSchema string  // JSON schema the output must satisfy
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
}

type generateRequest struct {
	Model          string          `json:"model,omitempty"`
	Prompt         string          `json:"prompt"`
	Media          []Media         `json:"media,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseSchema json.RawMessage `json:"response_schema,omitempty"`
}

type generateResponse struct {
	Output json.RawMessage `json:"output"`
}

// Config holds gateway connection settings.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// ConfigFromApp builds a gateway Config from the application configuration.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		BaseURL:   cfg.APIs.GenAI.BaseURL,
		APIKey:    cfg.APIs.GenAI.APIKey,
		Model:     cfg.APIs.GenAI.Model,
		Timeout:   config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxTokens: cfg.APIs.GenAI.MaxTokens,
	}
}

// Client talks to the model gateway over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.With(map[string]interface{}{
			"component": "genai-client",
		}),
	}
}

// Generate sends one prompt to the gateway and returns the structured model
// output. There is no retry: the trust boundary treats any failure here as a
// terminal condition the caller converts into its own closed-fail record.
func (c *Client) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	metrics.GatewayCalls.WithLabelValues(req.Task).Inc()

	out, err := c.generate(ctx, req)

	metrics.GatewayCallDuration.WithLabelValues(req.Task).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayFailures.WithLabelValues(req.Task, failureCode(err)).Inc()
		c.logger.Error("Gateway call failed", map[string]interface{}{
			"task":       req.Task,
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	c.logger.Debug("Gateway call completed", map[string]interface{}{
		"task":       req.Task,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (c *Client) generate(ctx context.Context, req Request) (json.RawMessage, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	body := generateRequest{
		Model:       c.config.Model,
		Prompt:      req.Prompt,
		Media:       req.Media,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	if req.ResponseSchema != "" {
		body.ResponseSchema = json.RawMessage(req.ResponseSchema)
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGatewayCall, err)
	}

	url := c.config.BaseURL + "/v1/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrGatewayCall, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, ErrGatewayTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayCall, resp.StatusCode, string(snippet))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGatewayCall, err)
	}
	if len(result.Output) == 0 {
		return nil, fmt.Errorf("%w: empty model output", ErrGatewayCall)
	}

	if req.ResponseSchema != "" {
		vr, err := validation.ValidateJSONString(req.ResponseSchema, string(result.Output))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
		}
		if !vr.Valid {
			return nil, fmt.Errorf("%w: %s", ErrSchemaViolation, validation.FormatErrors(vr.Errors))
		}
	}

	return result.Output, nil
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, ErrGatewayTimeout):
		return "timeout"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "call_failed"
	}
}
