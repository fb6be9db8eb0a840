package worker

import (
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/queue"
)

// DefaultConcurrency bounds how many jobs run at once per worker process.
const DefaultConcurrency = 2

// Server 封装 asynq 消费端：单队列、有限并发、指数退避重投.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewServer 创建 worker 消费端. concurrency <= 0 时使用默认并发度.
func NewServer(cfg queue.Config, concurrency int, handler asynq.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	srv := asynq.NewServer(cfg.RedisOpt(), asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{queue.DefaultQueue: 1},
		RetryDelayFunc: cfg.RetryDelay,
		Logger:         &asynqLogger{logger.With(zap.String("component", "worker.server"))},
	})

	mux := asynq.NewServeMux()
	mux.Handle(queue.TaskTypeGenerate, handler)

	return &Server{
		server: srv,
		mux:    mux,
		logger: logger.With(zap.String("component", "worker.server")),
	}
}

// Run 阻塞运行直到收到停机信号或发生致命错误.
func (s *Server) Run() error {
	s.logger.Info("worker started")
	return s.server.Run(s.mux)
}

// Start 非阻塞启动，配合 Shutdown 使用.
func (s *Server) Start() error {
	return s.server.Start(s.mux)
}

// Shutdown 优雅停机：等待在途任务完成，未完成的任务由队列重投.
func (s *Server) Shutdown() {
	s.logger.Info("worker shutting down")
	s.server.Shutdown()
}

// asynqLogger 把 asynq 的日志接到 zap 上.
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Sugar().Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Sugar().Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Sugar().Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Sugar().Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Sugar().Fatal(args...) }
