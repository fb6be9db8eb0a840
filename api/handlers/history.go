package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/internal/history"
	"github.com/BaSui01/meshforge/types"
)

// =============================================================================
// 📜 历史 Handler
// =============================================================================

// HistoryPager 分页读取任务历史
type HistoryPager interface {
	Page(ctx context.Context, page, limit int) ([]history.Record, int64, error)
}

// HistoryPage 一页任务历史
type HistoryPage struct {
	Records []history.Record `json:"records"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Total   int64            `json:"total"`
}

// HistoryHandler 历史处理器
type HistoryHandler struct {
	store  HistoryPager
	logger *zap.Logger
}

// NewHistoryHandler 创建历史处理器
func NewHistoryHandler(store HistoryPager, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{
		store:  store,
		logger: logger.With(zap.String("component", "history_handler")),
	}
}

// HandleListHistory 处理 GET /v1/history?page=&limit=
// 非法分页参数静默回退到默认值.
func (h *HistoryHandler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, total, err := h.store.Page(r.Context(), page, limit)
	if err != nil {
		WriteError(w, types.NewError(types.ErrStorage, "failed to read job history").WithCause(err), h.logger)
		return
	}

	WriteSuccess(w, http.StatusOK, HistoryPage{
		Records: records,
		Page:    page,
		Limit:   limit,
		Total:   total,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
