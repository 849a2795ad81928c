// Package capture dispatches visual capture requests to the capture worker
// sidecar and records the resulting assets.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/metrics"
	"github.com/jonesrussell/audit-engine/internal/retry"
	"github.com/jonesrussell/audit-engine/internal/storage"
)

// cropViewport is the only crop mode the worker is asked for. Full-page
// captures produced unusable strips for long pages.
const cropViewport = "viewport"

// AssetStore is the subset of the capture asset store the dispatcher needs.
type AssetStore interface {
	SaveAsset(ctx context.Context, auditID, shotID string, asset storage.Asset) error
	HasAsset(ctx context.Context, auditID, shotID string) (bool, error)
}

// workerRequest is the wire format sent to the capture worker.
type workerRequest struct {
	URL      string `json:"url"`
	CropMode string `json:"crop_mode"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	AuditID  string `json:"audit_id"`
	ShotID   string `json:"shot_id"`
}

// workerResponse is the wire format returned by the capture worker.
// ScreenshotURL is the field name older worker builds still send.
type workerResponse struct {
	AssetURL      string `json:"asset_url"`
	ScreenshotURL string `json:"screenshot_url"`
	Error         string `json:"error"`
}

// Dispatcher sends capture plans to the worker, one request at a time.
// Dispatch is best-effort throughout: no error it encounters escalates past a
// log line, and every failure leaves the rest of the plan running.
type Dispatcher struct {
	workerURL  string
	httpClient *http.Client
	assets     AssetStore
	retryCfg   retry.Config
	metrics    *metrics.Metrics
	log        logging.Logger
}

// NewDispatcher creates a capture dispatcher. An empty worker URL is valid
// and turns Dispatch into a logged no-op; m may be nil.
func NewDispatcher(cfg config.Capture, assets AssetStore, m *metrics.Metrics, log logging.Logger) *Dispatcher {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 2

	return &Dispatcher{
		workerURL:  cfg.WorkerURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		assets:     assets,
		retryCfg:   retryCfg,
		metrics:    m,
		log:        log,
	}
}

// Dispatch sends every usable record of the plan to the capture worker.
// It returns the number of assets newly resolved.
func (d *Dispatcher) Dispatch(ctx context.Context, auditID string, plan domain.CapturePlan) int {
	if d.workerURL == "" {
		d.log.Info("capture worker not configured, skipping dispatch",
			"audit_id", auditID, "plan_size", len(plan))
		return 0
	}

	resolved := 0
	for _, record := range plan {
		if record.ID == "" || record.URL == "" {
			d.log.Warn("dropping malformed capture record",
				"audit_id", auditID, "shot_id", record.ID, "url", record.URL)
			d.metrics.CountCapture(metrics.CaptureSkipped)
			continue
		}

		exists, err := d.assets.HasAsset(ctx, auditID, record.ID)
		if err != nil {
			d.log.Warn("asset lookup failed, skipping record",
				"audit_id", auditID, "shot_id", record.ID, "error", err)
			d.metrics.CountCapture(metrics.CaptureSkipped)
			continue
		}
		if exists {
			d.log.Debug("capture already resolved",
				"audit_id", auditID, "shot_id", record.ID)
			d.metrics.CountCapture(metrics.CaptureSkipped)
			continue
		}

		assetURL, err := d.dispatchOne(ctx, auditID, record)
		if err != nil {
			d.log.Warn("capture dispatch failed",
				"audit_id", auditID, "shot_id", record.ID, "error", err)
			d.metrics.CountCapture(metrics.CaptureFailed)
			continue
		}

		asset := storage.Asset{
			URL: assetURL,
			Metadata: map[string]string{
				"device": record.Device,
				"group":  record.Group,
			},
		}
		if err := d.assets.SaveAsset(ctx, auditID, record.ID, asset); err != nil {
			d.log.Warn("failed to persist capture asset",
				"audit_id", auditID, "shot_id", record.ID, "error", err)
			d.metrics.CountCapture(metrics.CaptureFailed)
			continue
		}

		d.metrics.CountCapture(metrics.CaptureResolved)
		resolved++
	}

	d.log.Info("capture dispatch finished",
		"audit_id", auditID, "plan_size", len(plan), "resolved", resolved)
	return resolved
}

// dispatchOne sends a single capture request, retrying transient failures.
func (d *Dispatcher) dispatchOne(ctx context.Context, auditID string, record domain.CaptureRequest) (string, error) {
	var assetURL string
	err := retry.Do(ctx, d.retryCfg, func() error {
		url, err := d.send(ctx, auditID, record)
		if err != nil {
			return err
		}
		assetURL = url
		return nil
	})
	return assetURL, err
}

func (d *Dispatcher) send(ctx context.Context, auditID string, record domain.CaptureRequest) (string, error) {
	payload := workerRequest{
		URL:      record.URL,
		CropMode: cropViewport,
		Width:    record.Viewport.Width,
		Height:   record.Viewport.Height,
		AuditID:  auditID,
		ShotID:   record.ID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.workerURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("capture worker unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capture worker returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read capture response: %w", err)
	}

	var parsed workerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode capture response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("capture worker error: %s", parsed.Error)
	}

	assetURL := parsed.AssetURL
	if assetURL == "" {
		assetURL = parsed.ScreenshotURL
	}
	if assetURL == "" {
		return "", fmt.Errorf("capture worker returned no asset URL")
	}

	d.log.Debug("capture resolved",
		"audit_id", auditID, "shot_id", record.ID,
		"duration_ms", time.Since(start).Milliseconds())
	return assetURL, nil
}
