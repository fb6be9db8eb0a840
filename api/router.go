package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/meshforge/api/handlers"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/types"
)

// =============================================================================
// 🚏 路由装配
// =============================================================================

// RouterConfig 路由依赖
type RouterConfig struct {
	// Jobs 任务处理器（必填）
	Jobs *handlers.JobsHandler
	// Assets 产物处理器（必填）
	Assets *handlers.AssetsHandler
	// History 历史处理器（必填）
	History *handlers.HistoryHandler
	// Health 健康检查处理器（必填）
	Health *handlers.HealthHandler

	// Metrics 指标收集器，nil 时跳过请求计数
	Metrics *metrics.Collector
	// Gatherer /metrics 端点的指标来源，nil 时不挂载
	Gatherer prometheus.Gatherer

	// StaticDir 非空时把本地产物目录挂载到 /storage/
	StaticDir string

	// RateLimit 每秒请求数上限，0 表示不限流
	RateLimit float64
	// RateBurst 突发容量，默认等于 RateLimit
	RateBurst int

	// Logger 请求日志
	Logger *zap.Logger
}

// NewRouter 装配 HTTP 路由
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(metricsMiddleware(cfg.Metrics))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = int(cfg.RateLimit)
		}
		r.Use(rateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst), logger))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", cfg.Jobs.HandleCreateJob)
		r.Get("/jobs/{jobID}", cfg.Jobs.HandleGetJob)
		r.Get("/assets/{assetID}", cfg.Assets.HandleGetAsset)
		r.Get("/assets/{assetID}/preview", cfg.Assets.HandleGetPreview)
		r.Get("/assets/{assetID}/textures", cfg.Assets.HandleGetTextures)
		r.Get("/history", cfg.History.HandleListHistory)
	})

	r.Get("/healthz", cfg.Health.HandleHealthz)
	r.Get("/readyz", cfg.Health.HandleReady)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.StaticDir != "" {
		fs := http.StripPrefix("/storage/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.Get("/storage/*", fs.ServeHTTP)
	}

	return r
}

// =============================================================================
// 🧩 中间件
// =============================================================================

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.StatusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func metricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			// 用路由模板而不是原始路径做标签，避免基数爆炸
			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = r.URL.Path
			}
			collector.RecordHTTPRequest(r.Method, path, strconv.Itoa(rw.StatusCode))
		})
	}
}

func rateLimiter(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				handlers.WriteErrorMessage(w, http.StatusTooManyRequests,
					types.ErrInvalidInput, "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
