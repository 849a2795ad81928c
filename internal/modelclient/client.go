// Package modelclient is an HTTP client for the remote inference endpoints.
// One Client instance exists per provider; research and synthesis differ only
// in endpoint, model name and timeout budget.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/metrics"
)

// Failure modes. All of them are ordinary: the orchestrator absorbs them per
// pass, none aborts the process.
var (
	// ErrTransport indicates the endpoint was unreachable or timed out.
	ErrTransport = errors.New("inference endpoint unreachable")
	// ErrBadStatus indicates a non-2xx HTTP response.
	ErrBadStatus = errors.New("inference endpoint returned bad status")
	// ErrBadResponse indicates a response body that could not be decoded.
	ErrBadResponse = errors.New("inference endpoint returned unparseable body")
	// ErrModelFailure indicates the endpoint explicitly reported failure.
	ErrModelFailure = errors.New("inference endpoint reported failure")
)

// Config holds the connection settings for one inference endpoint.
type Config struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client calls a remote inference endpoint. Stateless; no retries here.
type Client struct {
	name       string
	cfg        Config
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// inferenceRequest is the wire request shape shared by both endpoints.
type inferenceRequest struct {
	ProviderKey  string `json:"provider_key"`
	SystemPrompt string `json:"system_prompt"`
	UserContent  string `json:"user_content"`
	Model        string `json:"model"`
}

// inferenceResponse is the wire response shape shared by both endpoints.
type inferenceResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// New creates a client for one inference endpoint. The name labels logs and
// the call-duration metric ("research", "synthesis"); m may be nil.
func New(name string, cfg Config, m *metrics.Metrics, log logging.Logger) *Client {
	return &Client{
		name: name,
		cfg:  cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: m,
		logger:  log,
	}
}

// Call sends one prompt pair to the endpoint and returns the response text.
// Ordinary failures (transport, bad status, bad body, explicit failure flag)
// come back as an empty string and a wrapped sentinel error, already logged.
func (c *Client) Call(ctx context.Context, apiKey, systemPrompt, userContent string) (string, error) {
	body, err := json.Marshal(inferenceRequest{
		ProviderKey:  apiKey,
		SystemPrompt: systemPrompt,
		UserContent:  userContent,
		Model:        c.cfg.Model,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	defer func() {
		c.metrics.ObserveModelCall(c.name, time.Since(start))
	}()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("model call failed at transport level",
			"client", c.name, "endpoint", c.cfg.Endpoint, "error", err)
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("model call returned bad status",
			"client", c.name, "status", resp.StatusCode)
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var decoded inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("model call returned unparseable body",
			"client", c.name, "error", err)
		return "", fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	if !decoded.Success {
		c.logger.Warn("model call reported failure",
			"client", c.name, "model_error", decoded.Error)
		return "", fmt.Errorf("%w: %s", ErrModelFailure, decoded.Error)
	}

	c.logger.Debug("model call completed",
		"client", c.name,
		"duration", time.Since(start),
		"response_chars", len(decoded.Content))
	return decoded.Content, nil
}

// Healthy reports whether the endpoint looks reachable. Used by the /health
// endpoint; a HEAD request keeps it cheap.
func (c *Client) Healthy(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.Endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return nil
}

// Name returns the client's log name.
func (c *Client) Name() string {
	return strings.ToLower(c.name)
}
