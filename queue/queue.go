package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/types"
)

// TaskTypeGenerate is the asynq task type for 3D generation jobs.
const TaskTypeGenerate = "3d:generate"

// DefaultQueue is the single queue all generation jobs go through.
const DefaultQueue = "default"

// Config carries the queue connection and delivery policy.
type Config struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Attempts      int           `yaml:"attempts"`     // total attempts per job, including the first
	BackoffBase   time.Duration `yaml:"backoff_base"` // exponential backoff base between attempts
	Retention     time.Duration `yaml:"retention"`    // how long completed jobs stay queryable
	JobTimeout    time.Duration `yaml:"job_timeout"`  // per-attempt processing ceiling
}

// DefaultConfig returns the delivery policy the platform runs with.
func DefaultConfig() Config {
	return Config{
		RedisAddr:   "localhost:6379",
		Attempts:    2,
		BackoffBase: 5 * time.Second,
		Retention:   24 * time.Hour,
		JobTimeout:  15 * time.Minute,
	}
}

// RedisOpt converts the config into asynq connection options.
func (c Config) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// RetryDelay implements the exponential backoff schedule between attempts:
// base, 2×base, 4×base, ...
func (c Config) RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	base := c.BackoffBase
	if base <= 0 {
		base = 5 * time.Second
	}
	if n < 1 {
		n = 1
	}
	return time.Duration(math.Pow(2, float64(n-1))) * base
}

// Client enqueues generation jobs keyed by job id, so queue redelivery and
// duplicate submissions resolve to the same task identity.
type Client struct {
	client *asynq.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates an enqueue client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		client: asynq.NewClient(cfg.RedisOpt()),
		cfg:    cfg,
		logger: logger.With(zap.String("component", "queue")),
	}
}

// Enqueue puts the job record on the queue under its job id.
func (c *Client) Enqueue(ctx context.Context, job *types.JobRecord) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return types.NewError(types.ErrQueue, "failed to encode job record").WithCause(err)
	}

	attempts := c.cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	task := asynq.NewTask(TaskTypeGenerate, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(job.ID),
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(attempts-1),
		asynq.Timeout(c.cfg.JobTimeout),
		asynq.Retention(c.cfg.Retention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Same job id already queued: idempotent redelivery, not an error.
		c.logger.Debug("job already enqueued", zap.String("job_id", job.ID))
		return nil
	}
	if err != nil {
		return types.NewError(types.ErrQueue, "failed to enqueue job").WithCause(err)
	}

	c.logger.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
	)
	return nil
}

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// JobInfo is the queue-native view of one job.
type JobInfo struct {
	State   types.QueueState
	Result  []byte
	LastErr string
}

// Inspector reads queue-native job state. It never mutates the queue.
type Inspector struct {
	inspector *asynq.Inspector
}

// NewInspector creates a read-only queue inspector.
func NewInspector(cfg Config) *Inspector {
	return &Inspector{inspector: asynq.NewInspector(cfg.RedisOpt())}
}

// GetJob returns the queue-native state of the job, or a NOT_FOUND error
// when the queue has no record of it.
func (i *Inspector) GetJob(_ context.Context, jobID string) (*JobInfo, error) {
	info, err := i.inspector.GetTaskInfo(DefaultQueue, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, types.NewError(types.ErrNotFound, fmt.Sprintf("job %s not found", jobID)).WithHTTPStatus(404)
	}
	if err != nil {
		return nil, types.NewError(types.ErrQueue, "failed to inspect job").WithCause(err)
	}
	return &JobInfo{
		State:   MapState(info.State),
		Result:  info.Result,
		LastErr: info.LastErr,
	}, nil
}

// Close releases the inspector's redis connection.
func (i *Inspector) Close() error {
	return i.inspector.Close()
}

// MapState projects asynq task states onto the queue-native vocabulary the
// status projection consumes.
func MapState(s asynq.TaskState) types.QueueState {
	switch s {
	case asynq.TaskStatePending, asynq.TaskStateAggregating:
		return types.QueueStateWaiting
	case asynq.TaskStateScheduled, asynq.TaskStateRetry:
		return types.QueueStateDelayed
	case asynq.TaskStateActive:
		return types.QueueStateActive
	case asynq.TaskStateCompleted:
		return types.QueueStateCompleted
	case asynq.TaskStateArchived:
		return types.QueueStateFailed
	default:
		return types.QueueStateUnknown
	}
}
