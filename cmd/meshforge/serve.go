// =============================================================================
// 🖥️ serve 命令：依赖装配与运行
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/meshforge/api"
	"github.com/BaSui01/meshforge/api/handlers"
	"github.com/BaSui01/meshforge/config"
	"github.com/BaSui01/meshforge/gen3d"
	"github.com/BaSui01/meshforge/gen3d/placeholder"
	"github.com/BaSui01/meshforge/gen3d/providers/hunyuan"
	"github.com/BaSui01/meshforge/gen3d/providers/meshy"
	"github.com/BaSui01/meshforge/internal/assetstore"
	"github.com/BaSui01/meshforge/internal/history"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/internal/storage"
	"github.com/BaSui01/meshforge/jobs"
	"github.com/BaSui01/meshforge/queue"
	"github.com/BaSui01/meshforge/worker"
)

// serveMode 选择同一进程里跑哪些组件
type serveMode int

const (
	serveAPI serveMode = 1 << iota
	serveWorker
)

func runServe(args []string, mode serveMode) {
	cfg := loadConfig("serve", args)

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting meshforge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.Bool("api", mode&serveAPI != 0),
		zap.Bool("worker", mode&serveWorker != 0),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, mode, logger); err != nil {
		logger.Fatal("meshforge exited with error", zap.Error(err))
	}
	logger.Info("meshforge stopped")
}

func serve(ctx context.Context, cfg *config.Config, mode serveMode, logger *zap.Logger) error {
	// 队列与登记共用同一个平台 Redis
	qcfg := cfg.Queue
	qcfg.RedisAddr = cfg.Redis.Addr
	qcfg.RedisPassword = cfg.Redis.Password
	qcfg.RedisDB = cfg.Redis.DB

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("meshforge", registry, logger)

	uploader, localDir, err := buildUploader(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	assets := assetstore.New(redisClient, logger)
	hist := history.New(redisClient, logger)

	hy := hunyuan.New(cfg.Providers.Hunyuan, logger)
	hy.SetMetrics(collector)
	ms := meshy.New(cfg.Providers.Meshy, logger)
	ms.SetMetrics(collector)
	adapters := []gen3d.Adapter{hy, ms}

	group, ctx := errgroup.WithContext(ctx)

	if mode&serveAPI != 0 {
		qclient := queue.NewClient(qcfg, logger)
		defer qclient.Close()
		inspector := queue.NewInspector(qcfg)
		defer inspector.Close()

		providerNames := make([]string, 0, len(adapters))
		for _, a := range adapters {
			providerNames = append(providerNames, a.Name())
		}

		health := handlers.NewHealthHandler(logger)
		health.RegisterCheck(handlers.NewPingHealthCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))

		router := api.NewRouter(api.RouterConfig{
			Jobs: handlers.NewJobsHandler(
				jobs.NewIntake(qclient, hist, providerNames, logger),
				jobs.NewStatus(inspector, logger),
				logger,
			),
			Assets:    handlers.NewAssetsHandler(assets, logger),
			History:   handlers.NewHistoryHandler(hist, logger),
			Health:    health,
			Metrics:   collector,
			Gatherer:  registry,
			StaticDir: localDir,
			RateLimit: cfg.Server.RateLimit,
			RateBurst: cfg.Server.RateBurst,
			Logger:    logger,
		})

		server := api.NewServer(router, api.ServerOptions{
			Port:            cfg.Server.HTTPPort,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, logger)

		group.Go(func() error { return server.Run(ctx) })
	}

	if mode&serveWorker != 0 {
		handler := worker.NewHandler(gen3d.Deps{
			Adapters:        adapters,
			Storage:         uploader,
			DefaultProvider: cfg.Providers.Default,
			Placeholder:     placeholder.GenerateGLB,
			Logger:          logger,
		}, assets, hist, collector, logger)

		srv := worker.NewServer(qcfg, cfg.Worker.Concurrency, handler, logger)

		group.Go(func() error {
			if err := srv.Start(); err != nil {
				return fmt.Errorf("worker start: %w", err)
			}
			<-ctx.Done()
			srv.Shutdown()
			return nil
		})
	}

	return group.Wait()
}

// buildUploader 选择产物存储后端. S3 凭证齐备时走 S3，否则落本地目录；
// 本地目录同时作为 API 的 /storage/ 静态挂载点返回.
func buildUploader(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Uploader, string, error) {
	if cfg.S3.Configured() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.S3, logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		logger.Info("using s3 artifact storage", zap.String("bucket", cfg.S3.Bucket))
		return uploader, "", nil
	}
	logger.Info("using local artifact storage", zap.String("dir", cfg.LocalDir))
	return storage.NewLocalUploader(cfg.LocalDir, logger), cfg.LocalDir, nil
}
