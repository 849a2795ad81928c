// Package pdfclient converts rendered HTML documents to PDF via the
// converter sidecar.
package pdfclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/retry"
)

// ErrNotConfigured is returned when no converter URL is set.
var ErrNotConfigured = errors.New("pdf converter not configured")

// ErrConversionFailed wraps every failure mode of the converter sidecar.
var ErrConversionFailed = errors.New("pdf conversion failed")

// convertRequest is the wire format sent to the converter.
type convertRequest struct {
	HTML     string `json:"html"`
	Filename string `json:"filename"`
}

// convertResponse is the wire format returned by the converter.
type convertResponse struct {
	Success bool   `json:"success"`
	PDF     string `json:"pdf"`
	Error   string `json:"error"`
}

// Client converts HTML to PDF through the sidecar.
type Client struct {
	serviceURL string
	httpClient *http.Client
	retryCfg   retry.Config
	log        logging.Logger
}

// New creates a PDF client. An empty service URL is valid; Convert then
// returns ErrNotConfigured and callers degrade to HTML-only delivery.
func New(cfg config.PDF, log logging.Logger) *Client {
	return &Client{
		serviceURL: cfg.ServiceURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryCfg:   retry.DefaultConfig(),
		log:        log,
	}
}

// Configured reports whether a converter URL is set.
func (c *Client) Configured() bool {
	return c.serviceURL != ""
}

// Convert renders one HTML document to PDF bytes.
func (c *Client) Convert(ctx context.Context, html, filename string) ([]byte, error) {
	if c.serviceURL == "" {
		return nil, ErrNotConfigured
	}

	var pdf []byte
	err := retry.Do(ctx, c.retryCfg, func() error {
		data, err := c.convert(ctx, html, filename)
		if err != nil {
			return err
		}
		pdf = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug("pdf conversion done", "filename", filename, "bytes", len(pdf))
	return pdf, nil
}

func (c *Client) convert(ctx context.Context, html, filename string) ([]byte, error) {
	body, err := json.Marshal(convertRequest{HTML: html, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("marshal convert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrConversionFailed, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrConversionFailed, err)
	}

	var parsed convertResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrConversionFailed, err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("%w: %s", ErrConversionFailed, parsed.Error)
	}

	pdf, err := base64.StdEncoding.DecodeString(parsed.PDF)
	if err != nil {
		return nil, fmt.Errorf("%w: decode pdf payload: %w", ErrConversionFailed, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty pdf payload", ErrConversionFailed)
	}

	c.log.Debug("converter responded",
		"filename", filename, "duration_ms", time.Since(start).Milliseconds())
	return pdf, nil
}
