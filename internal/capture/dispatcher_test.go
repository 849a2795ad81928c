package capture

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/metrics"
	"github.com/jonesrussell/audit-engine/internal/storage"
)

// memAssets is an in-memory AssetStore for tests.
type memAssets struct {
	mu     sync.Mutex
	assets map[string]storage.Asset
}

func newMemAssets() *memAssets {
	return &memAssets{assets: make(map[string]storage.Asset)}
}

func (m *memAssets) SaveAsset(_ context.Context, auditID, shotID string, asset storage.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[auditID+"/"+shotID] = asset
	return nil
}

func (m *memAssets) HasAsset(_ context.Context, auditID, shotID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assets[auditID+"/"+shotID]
	return ok, nil
}

func record(id, url string) domain.CaptureRequest {
	return domain.CaptureRequest{
		ID:       id,
		URL:      url,
		Caption:  "Homepage above the fold",
		Device:   domain.DeviceDesktop,
		Viewport: domain.Viewport{Width: 1440, Height: 900},
		Group:    domain.GroupVisibility,
	}
}

func mobileRecord(id, url string) domain.CaptureRequest {
	return domain.CaptureRequest{
		ID:       id,
		URL:      url,
		Caption:  "Homepage on a phone",
		Device:   domain.DeviceMobile,
		Viewport: domain.Viewport{Width: 390, Height: 844},
		Group:    domain.GroupExperience,
	}
}

func newTestDispatcher(workerURL string, assets AssetStore) *Dispatcher {
	d := NewDispatcher(config.Capture{
		WorkerURL: workerURL,
		Timeout:   2 * time.Second,
	}, assets, nil, logging.NewNop())
	d.retryCfg.InitialDelay = time.Millisecond
	return d
}

func TestDispatch_NoWorkerConfigured(t *testing.T) {
	assets := newMemAssets()
	d := newTestDispatcher("", assets)

	resolved := d.Dispatch(context.Background(), "AR-0130", domain.CapturePlan{
		record("homepage-hero", "https://example.com"),
	})

	assert.Zero(t, resolved)
	assert.Empty(t, assets.assets)
}

func TestDispatch_SendsWireFormat(t *testing.T) {
	var got workerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{
			"asset_url": "https://assets.example.com/hero.png",
		})
	}))
	defer srv.Close()

	assets := newMemAssets()
	d := newTestDispatcher(srv.URL, assets)

	resolved := d.Dispatch(context.Background(), "AR-0130", domain.CapturePlan{
		record("homepage-hero", "https://example.com"),
	})

	assert.Equal(t, 1, resolved)
	assert.Equal(t, "https://example.com", got.URL)
	assert.Equal(t, "viewport", got.CropMode)
	assert.Equal(t, 1440, got.Width)
	assert.Equal(t, 900, got.Height)
	assert.Equal(t, "AR-0130", got.AuditID)
	assert.Equal(t, "homepage-hero", got.ShotID)

	saved := assets.assets["AR-0130/homepage-hero"]
	assert.Equal(t, "https://assets.example.com/hero.png", saved.URL)
	assert.Equal(t, domain.DeviceDesktop, saved.Metadata["device"])
}

func TestDispatch_AcceptsLegacyScreenshotURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"screenshot_url": "https://assets.example.com/legacy.png",
		})
	}))
	defer srv.Close()

	assets := newMemAssets()
	d := newTestDispatcher(srv.URL, assets)

	resolved := d.Dispatch(context.Background(), "AR-0131", domain.CapturePlan{
		record("contact-form", "https://example.com/contact"),
	})

	assert.Equal(t, 1, resolved)
	assert.Equal(t, "https://assets.example.com/legacy.png",
		assets.assets["AR-0131/contact-form"].URL)
}

func TestDispatch_DropsMalformedRecords(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]string{"asset_url": "https://a.example.com/x.png"})
	}))
	defer srv.Close()

	d := newTestDispatcher(srv.URL, newMemAssets())

	resolved := d.Dispatch(context.Background(), "AR-0132", domain.CapturePlan{
		record("", "https://example.com"),
		record("no-url", ""),
		record("good", "https://example.com"),
	})

	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, calls)
}

func TestDispatch_SkipsResolvedAssets(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]string{"asset_url": "https://a.example.com/x.png"})
	}))
	defer srv.Close()

	assets := newMemAssets()
	require.NoError(t, assets.SaveAsset(context.Background(), "AR-0133", "already-done",
		storage.Asset{URL: "https://a.example.com/done.png"}))

	d := newTestDispatcher(srv.URL, assets)

	resolved := d.Dispatch(context.Background(), "AR-0133", domain.CapturePlan{
		record("already-done", "https://example.com"),
		record("fresh", "https://example.com/about"),
	})

	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, calls)
	// The pre-existing asset is untouched.
	assert.Equal(t, "https://a.example.com/done.png",
		assets.assets["AR-0133/already-done"].URL)
}

func TestDispatch_ContinuesPastFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req workerRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ShotID == "broken" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"asset_url": "https://a.example.com/ok.png"})
	}))
	defer srv.Close()

	assets := newMemAssets()
	d := newTestDispatcher(srv.URL, assets)

	resolved := d.Dispatch(context.Background(), "AR-0134", domain.CapturePlan{
		record("broken", "https://example.com/broken"),
		record("works", "https://example.com"),
	})

	assert.Equal(t, 1, resolved)
	_, ok := assets.assets["AR-0134/works"]
	assert.True(t, ok)
	_, ok = assets.assets["AR-0134/broken"]
	assert.False(t, ok)
}

func TestDispatch_SendsMobileViewport(t *testing.T) {
	var got workerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{
			"asset_url": "https://assets.example.com/mobile.png",
		})
	}))
	defer srv.Close()

	assets := newMemAssets()
	d := newTestDispatcher(srv.URL, assets)

	resolved := d.Dispatch(context.Background(), "AR-0136", domain.CapturePlan{
		mobileRecord("homepage-mobile", "https://example.com"),
	})

	assert.Equal(t, 1, resolved)
	assert.Equal(t, 390, got.Width)
	assert.Equal(t, 844, got.Height)
	assert.Equal(t, domain.DeviceMobile,
		assets.assets["AR-0136/homepage-mobile"].Metadata["device"])
}

func TestDispatch_CountsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req workerRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ShotID == "broken" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"asset_url": "https://a.example.com/ok.png"})
	}))
	defer srv.Close()

	assets := newMemAssets()
	require.NoError(t, assets.SaveAsset(context.Background(), "AR-0137", "already-done",
		storage.Asset{URL: "https://a.example.com/done.png"}))

	m := metrics.New()
	d := NewDispatcher(config.Capture{
		WorkerURL: srv.URL,
		Timeout:   2 * time.Second,
	}, assets, m, logging.NewNop())
	d.retryCfg.InitialDelay = time.Millisecond

	d.Dispatch(context.Background(), "AR-0137", domain.CapturePlan{
		record("good", "https://example.com"),
		record("broken", "https://example.com/broken"),
		record("already-done", "https://example.com"),
		record("", "https://example.com"),
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Captures.WithLabelValues(metrics.CaptureResolved)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Captures.WithLabelValues(metrics.CaptureFailed)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Captures.WithLabelValues(metrics.CaptureSkipped)))
}

func TestDispatch_WorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "navigation timed out"})
	}))
	defer srv.Close()

	d := newTestDispatcher(srv.URL, newMemAssets())

	resolved := d.Dispatch(context.Background(), "AR-0135", domain.CapturePlan{
		record("homepage-hero", "https://example.com"),
	})
	assert.Zero(t, resolved)
}
