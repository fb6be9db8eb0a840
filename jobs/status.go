package jobs

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/queue"
	"github.com/BaSui01/meshforge/types"
)

// genericFailure is surfaced when the queue recorded no failure reason.
const genericFailure = "job failed"

// QueueInspector reads queue-native job state.
type QueueInspector interface {
	GetJob(ctx context.Context, jobID string) (*queue.JobInfo, error)
}

// Status 把队列原生状态投影为客户端状态视图.
type Status struct {
	inspector QueueInspector
	logger    *zap.Logger
}

// NewStatus 创建状态投影.
func NewStatus(inspector QueueInspector, logger *zap.Logger) *Status {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Status{
		inspector: inspector,
		logger:    logger.With(zap.String("component", "status")),
	}
}

// GetJobStatus 查询一个任务的客户端状态视图. 队列不认识的任务返回
// NOT_FOUND；可选字段缺失一律填 null，不报错.
func (s *Status) GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusView, error) {
	info, err := s.inspector.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &types.JobStatusView{JobID: jobID, Status: types.JobStatusQueued}

	switch info.State {
	case types.QueueStateActive:
		view.Status = types.JobStatusRunning
	case types.QueueStateCompleted:
		view.Status = types.JobStatusSucceeded
		view.AssetID = assetIDFromResult(info.Result)
	case types.QueueStateFailed:
		view.Status = types.JobStatusFailed
		reason := info.LastErr
		if reason == "" {
			reason = genericFailure
		}
		view.Error = &reason
	case types.QueueStateWaiting, types.QueueStateDelayed:
		// queued, set above
	default:
		// Unknown queue states project to queued rather than erroring:
		// the job exists, the vocabulary is closed.
		s.logger.Debug("unknown queue state, projecting as queued",
			zap.String("job_id", jobID),
			zap.String("state", string(info.State)),
		)
	}
	return view, nil
}

func assetIDFromResult(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}
	var result types.ProviderResult
	if err := json.Unmarshal(raw, &result); err != nil || result.AssetID == "" {
		return nil
	}
	return &result.AssetID
}
