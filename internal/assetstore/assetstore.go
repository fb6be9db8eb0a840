// Package assetstore provides the redis-backed artifact registry.
// This package is internal and should not be imported by external projects.
package assetstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	assetPrefix   = "asset:"
	texturePrefix = "textures:"
)

// Store maps asset ids to their artifact URLs and optional texture map sets.
// Entries are written exactly once per successful job and never updated.
type Store struct {
	redis  *redis.Client
	logger *zap.Logger
}

// New creates a Store on an existing redis client.
func New(client *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		redis:  client,
		logger: logger.With(zap.String("component", "assetstore")),
	}
}

// SetAssetURL registers the artifact URL for assetID.
func (s *Store) SetAssetURL(ctx context.Context, assetID, url string) error {
	if err := s.redis.Set(ctx, assetPrefix+assetID, url, 0).Err(); err != nil {
		return fmt.Errorf("failed to register asset %s: %w", assetID, err)
	}
	s.logger.Debug("asset registered", zap.String("asset_id", assetID), zap.String("url", url))
	return nil
}

// GetAssetURL returns the artifact URL for assetID, or "" when unknown.
func (s *Store) GetAssetURL(ctx context.Context, assetID string) (string, error) {
	url, err := s.redis.Get(ctx, assetPrefix+assetID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read asset %s: %w", assetID, err)
	}
	return url, nil
}

// SetTextureMaps stores the named texture map URLs for assetID as one JSON
// object under textures:<assetID>.
func (s *Store) SetTextureMaps(ctx context.Context, assetID string, maps map[string]string) error {
	if len(maps) == 0 {
		return nil
	}
	payload, err := json.Marshal(maps)
	if err != nil {
		return fmt.Errorf("failed to encode texture maps for %s: %w", assetID, err)
	}
	if err := s.redis.Set(ctx, texturePrefix+assetID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to register textures for %s: %w", assetID, err)
	}
	s.logger.Debug("texture maps registered",
		zap.String("asset_id", assetID),
		zap.Int("count", len(maps)),
	)
	return nil
}

// GetTextureMaps returns the texture map URLs for assetID, or nil when none
// were recorded.
func (s *Store) GetTextureMaps(ctx context.Context, assetID string) (map[string]string, error) {
	payload, err := s.redis.Get(ctx, texturePrefix+assetID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read textures for %s: %w", assetID, err)
	}
	var maps map[string]string
	if err := json.Unmarshal([]byte(payload), &maps); err != nil {
		return nil, fmt.Errorf("corrupt texture record for %s: %w", assetID, err)
	}
	return maps, nil
}
