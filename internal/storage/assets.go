package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// assetsKey returns the hash key holding one audit's capture assets,
// shot id → Asset JSON.
func assetsKey(auditID string) string {
	return "audit:" + auditID + ":assets"
}

// assetTTL keeps capture assets around long enough for report delivery and
// admin inspection, then lets them expire.
const assetTTL = 90 * 24 * time.Hour

// Asset is one resolved capture result.
type Asset struct {
	URL        string            `json:"asset_url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// CaptureAssetStore persists capture results incrementally, per audit id and
// shot id, so partial completion survives a mid-run failure.
type CaptureAssetStore struct {
	rdb *redis.Client
}

// NewCaptureAssetStore creates an asset store on the given Redis client.
func NewCaptureAssetStore(rdb *redis.Client) *CaptureAssetStore {
	return &CaptureAssetStore{rdb: rdb}
}

// SaveAsset persists one resolved capture.
func (s *CaptureAssetStore) SaveAsset(ctx context.Context, auditID, shotID string, asset Asset) error {
	if asset.ResolvedAt.IsZero() {
		asset.ResolvedAt = time.Now().UTC()
	}
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("marshal asset: %w", err)
	}

	key := assetsKey(auditID)
	if err := s.rdb.HSet(ctx, key, shotID, data).Err(); err != nil {
		return fmt.Errorf("save asset %s/%s: %w", auditID, shotID, err)
	}
	if err := s.rdb.Expire(ctx, key, assetTTL).Err(); err != nil {
		return fmt.Errorf("expire assets %s: %w", auditID, err)
	}
	return nil
}

// HasAsset reports whether a shot id is already resolved for this audit.
func (s *CaptureAssetStore) HasAsset(ctx context.Context, auditID, shotID string) (bool, error) {
	ok, err := s.rdb.HExists(ctx, assetsKey(auditID), shotID).Result()
	if err != nil {
		return false, fmt.Errorf("check asset %s/%s: %w", auditID, shotID, err)
	}
	return ok, nil
}

// ListAssets returns all resolved captures for an audit, keyed by shot id.
func (s *CaptureAssetStore) ListAssets(ctx context.Context, auditID string) (map[string]Asset, error) {
	raw, err := s.rdb.HGetAll(ctx, assetsKey(auditID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list assets %s: %w", auditID, err)
	}

	assets := make(map[string]Asset, len(raw))
	for shotID, data := range raw {
		var a Asset
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			// A corrupt entry should not hide the rest.
			continue
		}
		assets[shotID] = a
	}
	return assets, nil
}

// AssetURLs returns shot id → asset URL for placeholder resolution.
func (s *CaptureAssetStore) AssetURLs(ctx context.Context, auditID string) (map[string]string, error) {
	assets, err := s.ListAssets(ctx, auditID)
	if err != nil {
		return nil, err
	}
	urls := make(map[string]string, len(assets))
	for shotID, a := range assets {
		urls[shotID] = a.URL
	}
	return urls, nil
}
