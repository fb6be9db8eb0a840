// Package history keeps a bounded, most-recent-first job history in redis.
// This package is internal and should not be imported by external projects.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/types"
)

const (
	historyKey     = "job:history"
	maxHistorySize = 1000
)

// Record is one job history entry.
type Record struct {
	JobID     string          `json:"jobId"`
	Type      types.JobType   `json:"type"`
	Prompt    string          `json:"prompt"`
	Status    types.JobStatus `json:"status"`
	CreatedAt int64           `json:"createdAt"`
	AssetID   *string         `json:"assetId"`
}

// Store appends and updates job history entries.
type Store struct {
	redis  *redis.Client
	logger *zap.Logger
}

// New creates a history Store on an existing redis client.
func New(client *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		redis:  client,
		logger: logger.With(zap.String("component", "history")),
	}
}

// Append records a new entry at the head of the list and trims the list to
// the retention bound.
func (s *Store) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, maxHistorySize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// UpdateStatus rewrites the status (and asset id, when non-nil) of the entry
// matching jobID in place. Unknown job ids are a no-op.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, assetID *string) error {
	entries, err := s.redis.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	for i, raw := range entries {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("skipping corrupt history entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if rec.JobID != jobID {
			continue
		}
		rec.Status = status
		if assetID != nil {
			rec.AssetID = assetID
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode history record: %w", err)
		}
		if err := s.redis.LSet(ctx, historyKey, int64(i), payload).Err(); err != nil {
			return fmt.Errorf("failed to update history record: %w", err)
		}
		return nil
	}
	return nil
}

// Page returns one page of history, most recent first. page is 1-based.
func (s *Store) Page(ctx context.Context, page, limit int) ([]Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	total, err := s.redis.LLen(ctx, historyKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read history length: %w", err)
	}
	start := int64((page - 1) * limit)
	stop := start + int64(limit) - 1
	entries, err := s.redis.LRange(ctx, historyKey, start, stop).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read history page: %w", err)
	}
	records := make([]Record, 0, len(entries))
	for _, raw := range entries {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, total, nil
}
