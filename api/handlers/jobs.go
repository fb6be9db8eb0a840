package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/jobs"
	"github.com/BaSui01/meshforge/types"
)

// =============================================================================
// 🎨 任务 Handler
// =============================================================================

// JobCreator 接收创建请求并入队
type JobCreator interface {
	CreateJob(ctx context.Context, req *jobs.CreateRequest) (*jobs.CreateResponse, error)
}

// JobStatusReader 查询任务状态投影
type JobStatusReader interface {
	GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusView, error)
}

// JobsHandler 任务处理器
type JobsHandler struct {
	intake JobCreator
	status JobStatusReader
	logger *zap.Logger
}

// NewJobsHandler 创建任务处理器
func NewJobsHandler(intake JobCreator, status JobStatusReader, logger *zap.Logger) *JobsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsHandler{
		intake: intake,
		status: status,
		logger: logger.With(zap.String("component", "jobs_handler")),
	}
}

// HandleCreateJob 处理 POST /v1/jobs
// 校验通过入队后返回 201；校验失败返回 400 + 全部违反项.
func (h *JobsHandler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobs.CreateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.intake.CreateJob(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, http.StatusCreated, resp)
}

// HandleGetJob 处理 GET /v1/jobs/{jobID}
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "job id is required", h.logger)
		return
	}

	view, err := h.status.GetJobStatus(r.Context(), jobID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, http.StatusOK, view)
}
