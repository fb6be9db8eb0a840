package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/gen3d"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/types"
)

// assetRegistry 是产物登记的写入端.
type assetRegistry interface {
	SetAssetURL(ctx context.Context, assetID, url string) error
	SetTextureMaps(ctx context.Context, assetID string, maps map[string]string) error
}

type historyUpdater interface {
	UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, assetID *string) error
}

// Handler 处理一个生成任务的完整生命周期.
type Handler struct {
	deps    gen3d.Deps
	assets  assetRegistry
	history historyUpdater
	metrics *metrics.Collector
	logger  *zap.Logger

	generate func(ctx context.Context, job *types.JobRecord, deps gen3d.Deps) (*types.ProviderResult, error)
}

// NewHandler 创建任务处理器. assets、history 与 collector 均可为 nil，
// 对应的副作用会被跳过.
func NewHandler(deps gen3d.Deps, assets assetRegistry, hist historyUpdater, collector *metrics.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		deps:     deps,
		assets:   assets,
		history:  hist,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "worker")),
		generate: gen3d.Generate3D,
	}
}

// ProcessTask 实现 asynq.Handler. 返回的错误交给队列按退避策略重投，
// 重试额度耗尽后任务归档为失败.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var job types.JobRecord
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		// A payload that never decodes will not decode on redelivery either.
		h.logger.Error("dropping undecodable job payload", zap.Error(err))
		return asynq.SkipRetry
	}

	logger := h.logger.With(
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
	)
	logger.Info("job started")
	start := time.Now()

	result, err := h.generate(ctx, &job, h.deps)
	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		h.recordOutcome(ctx, &job, nil, err)
		return err
	}

	if h.assets != nil {
		if err := h.assets.SetAssetURL(ctx, result.AssetID, result.AssetURL); err != nil {
			// The artifact exists in storage but is not registered: fail the
			// attempt so redelivery re-registers it.
			logger.Error("failed to register asset", zap.Error(err))
			return err
		}
		if len(result.TextureMapIDs) > 0 {
			if err := h.assets.SetTextureMaps(ctx, result.AssetID, result.TextureMapIDs); err != nil {
				logger.Warn("failed to register texture maps", zap.Error(err))
			}
		}
	}

	// ResultWriter is only wired on tasks delivered by the queue server.
	if rw := task.ResultWriter(); rw != nil {
		if payload, err := json.Marshal(result); err == nil {
			if _, err := rw.Write(payload); err != nil {
				logger.Warn("failed to write task result", zap.Error(err))
			}
		}
	}

	h.recordOutcome(ctx, &job, result, nil)
	logger.Info("job succeeded",
		zap.String("asset_id", result.AssetID),
		zap.Duration("elapsed", time.Since(start)),
	)
	if h.metrics != nil {
		h.metrics.RecordJobDuration(string(job.Type), job.Provider, time.Since(start))
	}
	return nil
}

// recordOutcome 更新历史与指标. 失败只在重试额度耗尽时落历史，中间
// 失败仍会重投，历史里保持 queued.
func (h *Handler) recordOutcome(ctx context.Context, job *types.JobRecord, result *types.ProviderResult, jobErr error) {
	if jobErr == nil {
		if h.metrics != nil {
			h.metrics.RecordJob(string(job.Type), "succeeded")
		}
		if h.history != nil {
			assetID := &result.AssetID
			if err := h.history.UpdateStatus(ctx, job.ID, types.JobStatusSucceeded, assetID); err != nil {
				h.logger.Warn("failed to update job history", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordJob(string(job.Type), "failed")
	}
	if h.history == nil || !finalAttempt(ctx) {
		return
	}
	if err := h.history.UpdateStatus(ctx, job.ID, types.JobStatusFailed, nil); err != nil {
		h.logger.Warn("failed to update job history", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func finalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
