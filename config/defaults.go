// =============================================================================
// 📦 MeshForge 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/meshforge/gen3d/providers/hunyuan"
	"github.com/BaSui01/meshforge/gen3d/providers/meshy"
	"github.com/BaSui01/meshforge/queue"
	"github.com/BaSui01/meshforge/worker"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Redis:     DefaultRedisConfig(),
		Queue:     queue.DefaultConfig(),
		Storage:   DefaultStorageConfig(),
		Providers: DefaultProvidersConfig(),
		Worker:    DefaultWorkerConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimit:       100,
		RateBurst:       200,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr: "localhost:6379",
		DB:   0,
	}
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		LocalDir: "storage",
	}
}

// DefaultProvidersConfig 返回默认服务商配置
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Hunyuan: hunyuan.Config{
			Region: "ap-guangzhou",
			Mode:   hunyuan.ModeRapid,
		},
		Meshy: meshy.Config{},
	}
}

// DefaultWorkerConfig 返回默认消费端配置
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Concurrency: worker.DefaultConcurrency,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}
