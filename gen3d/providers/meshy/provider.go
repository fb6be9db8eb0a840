package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/gen3d"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/types"
)

const (
	defaultBaseURL         = "https://api.meshy.ai"
	defaultPollInterval    = 3 * time.Second
	defaultMaxPollAttempts = 200 // ~10 minutes at 3s

	textTaskPath      = "/openapi/v2/text-to-3d"
	imageTaskPath     = "/openapi/v1/image-to-3d"
	multiViewTaskPath = "/openapi/v1/multi-image-to-3d"
)

// Config Meshy 适配器配置.
type Config struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
}

// Configured 报告 API Key 是否已设置.
func (c Config) Configured() bool { return c.APIKey != "" }

// Provider 实现 Meshy 3D 生成适配器.
type Provider struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Collector

	sleep func(ctx context.Context, d time.Duration) error
}

var _ gen3d.Adapter = (*Provider)(nil)

// New 创建 Meshy 适配器实例.
func New(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Minute},
		logger: logger.With(zap.String("component", "provider.meshy")),
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetMetrics 挂接指标收集器，nil 时不计数.
func (p *Provider) SetMetrics(c *metrics.Collector) { p.metrics = c }

func (p *Provider) Name() string { return "meshy" }

func (p *Provider) recordRequest(operation string, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordProviderRequest(p.Name(), operation, status)
}

func (p *Provider) recordPollAttempts(n int) {
	if p.metrics != nil {
		p.metrics.RecordPollAttempts(p.Name(), n)
	}
}

// IsConfigured 报告 API Key 是否已设置.
func (p *Provider) IsConfigured() bool { return p.cfg.Configured() }

type taskResponse struct {
	ID        string  `json:"id,omitempty"`
	Result    string  `json:"result,omitempty"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ModelURLs struct {
		GLB  string `json:"glb,omitempty"`
		FBX  string `json:"fbx,omitempty"`
		OBJ  string `json:"obj,omitempty"`
		USDZ string `json:"usdz,omitempty"`
	} `json:"model_urls"`
	TextureURLs []textureSet `json:"texture_urls,omitempty"`
	TaskError   *struct {
		Message string `json:"message"`
	} `json:"task_error,omitempty"`
}

type textureSet struct {
	BaseColor string `json:"base_color,omitempty"`
	Metallic  string `json:"metallic,omitempty"`
	Normal    string `json:"normal,omitempty"`
	Roughness string `json:"roughness,omitempty"`
}

func (p *Provider) GenerateFromText(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	return p.generate(ctx, job, pctx, textTaskPath, BuildTextTaskPayload(job.Prompt, job.TextureOptions))
}

func (p *Provider) GenerateFromImage(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	if job.ImageURL == "" {
		return nil, types.NewError(types.ErrInvalidInput,
			"Image URL is required for image-to-3D generation")
	}
	return p.generate(ctx, job, pctx, imageTaskPath, BuildImageTaskPayload(job.ImageURL, job.TextureOptions))
}

func (p *Provider) GenerateFromMultiView(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	v := job.ViewImages
	if v == nil || v.Front == "" || v.Left == "" || v.Right == "" {
		return nil, types.NewError(types.ErrInvalidInput,
			"front/left/right images are required for multiview-to-3D generation")
	}
	return p.generate(ctx, job, pctx, multiViewTaskPath, BuildMultiViewTaskPayload(v, job.TextureOptions))
}

// generate 执行一次完整生成：创建任务 → 轮询 → 下载 → 上传.
func (p *Provider) generate(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context, taskPath string, payload map[string]any) (*types.ProviderResult, error) {
	if !p.IsConfigured() {
		return nil, types.NewError(types.ErrProvider, "meshy api key is not configured").
			WithProvider(p.Name())
	}
	if job.SkeletonOptions != nil && job.SkeletonOptions.Preset != types.SkeletonNone {
		p.logger.Warn("skeleton rigging is not supported by meshy, ignoring",
			zap.String("job_id", job.ID),
			zap.String("preset", string(job.SkeletonOptions.Preset)),
		)
	}

	logger := p.logger.With(zap.String("job_id", job.ID))
	start := time.Now()

	taskID, err := p.createTask(ctx, taskPath, payload)
	if err != nil {
		return nil, err
	}
	logger.Info("task created",
		zap.String("task_id", taskID),
		zap.String("task_path", taskPath),
	)

	task, err := p.pollTask(ctx, taskPath, taskID)
	if err != nil {
		return nil, err
	}

	format := job.EffectiveFormat()
	modelURL, err := pickModelURL(task, format)
	if err != nil {
		return nil, err
	}

	body, err := p.download(ctx, modelURL)
	if err != nil {
		return nil, err
	}
	logger.Info("model downloaded",
		zap.Int("size_bytes", len(body)),
		zap.String("format", string(format)),
	)

	contentType := "model/gltf-binary"
	if format == types.FormatFBX {
		contentType = "application/octet-stream"
	}
	assetID := fmt.Sprintf("asset-%s.%s", job.ID, format)
	url, err := pctx.Storage.Upload(ctx, assetID, body, contentType)
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to store meshy result").
			WithProvider(p.Name()).WithCause(err)
	}
	logger.Info("asset stored",
		zap.String("asset_id", assetID),
		zap.Duration("total", time.Since(start)),
	)

	return &types.ProviderResult{
		AssetID:       assetID,
		AssetURL:      url,
		TextureMapIDs: extractTextureMaps(task),
		Format:        format,
	}, nil
}

func (p *Provider) createTask(ctx context.Context, taskPath string, payload map[string]any) (string, error) {
	var resp taskResponse
	err := p.call(ctx, http.MethodPost, taskPath, payload, &resp)
	p.recordRequest("create", err)
	if err != nil {
		return "", err
	}
	taskID := resp.Result
	if taskID == "" {
		taskID = resp.ID
	}
	if taskID == "" {
		return "", types.NewError(types.ErrProvider, "meshy did not return a task id").
			WithProvider(p.Name())
	}
	return taskID, nil
}

// pollTask 轮询任务直到终态或超出尝试上限.
func (p *Provider) pollTask(ctx context.Context, taskPath, taskID string) (*taskResponse, error) {
	for attempt := 0; attempt < p.cfg.MaxPollAttempts; attempt++ {
		var resp taskResponse
		err := p.call(ctx, http.MethodGet, taskPath+"/"+taskID, nil, &resp)
		p.recordRequest("poll", err)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("task progress",
			zap.String("task_id", taskID),
			zap.Int("progress", resp.Progress),
			zap.String("status", resp.Status),
		)

		switch resp.Status {
		case "SUCCEEDED":
			p.recordPollAttempts(attempt + 1)
			return &resp, nil
		case "FAILED", "CANCELED":
			p.recordPollAttempts(attempt + 1)
			message := "task failed or canceled"
			if resp.TaskError != nil && resp.TaskError.Message != "" {
				message = resp.TaskError.Message
			}
			return nil, types.NewError(types.ErrProvider,
				fmt.Sprintf("meshy task %s: %s", strings.ToLower(resp.Status), message)).
				WithProvider(p.Name())
		}

		if err := p.sleep(ctx, p.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
	p.recordPollAttempts(p.cfg.MaxPollAttempts)
	return nil, types.NewError(types.ErrTimeout,
		fmt.Sprintf("meshy task polling timeout after %d attempts", p.cfg.MaxPollAttempts)).
		WithProvider(p.Name()).WithRetryable(true)
}

func (p *Provider) call(ctx context.Context, method, path string, payload map[string]any, out *taskResponse) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return types.NewError(types.ErrProvider, "failed to encode meshy payload").
				WithProvider(p.Name()).WithCause(err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return types.NewError(types.ErrProvider, "failed to build meshy request").
			WithProvider(p.Name()).WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return types.NewError(types.ErrProvider, "meshy request failed").
			WithProvider(p.Name()).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewError(types.ErrProvider, "failed to read meshy response").
			WithProvider(p.Name()).WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.NewError(types.ErrProvider,
			fmt.Sprintf("meshy api error: status=%d body=%s", resp.StatusCode, string(raw))).
			WithProvider(p.Name())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return types.NewError(types.ErrProvider, "failed to decode meshy response").
			WithProvider(p.Name()).WithCause(err)
	}
	return nil
}

func (p *Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to build download request").
			WithProvider(p.Name()).WithCause(err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to download model").
			WithProvider(p.Name()).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, types.NewError(types.ErrProvider,
			fmt.Sprintf("failed to download model: HTTP %d", resp.StatusCode)).
			WithProvider(p.Name())
	}
	return io.ReadAll(resp.Body)
}

// pickModelURL 按请求格式取下载地址，缺失即失败，不做静默替换.
func pickModelURL(task *taskResponse, format types.AssetFormat) (string, error) {
	var url string
	switch format {
	case types.FormatFBX:
		url = task.ModelURLs.FBX
	default:
		url = task.ModelURLs.GLB
	}
	if url == "" {
		return "", types.NewError(types.ErrProvider,
			fmt.Sprintf("no %s URL in meshy response", strings.ToUpper(string(format))))
	}
	return url, nil
}

// extractTextureMaps 从 texture_urls[0] 提取命名贴图，缺失项跳过.
func extractTextureMaps(task *taskResponse) map[string]string {
	if len(task.TextureURLs) == 0 {
		return nil
	}
	set := task.TextureURLs[0]
	maps := map[string]string{}
	if set.BaseColor != "" {
		maps["albedo"] = set.BaseColor
	}
	if set.Normal != "" {
		maps["normal"] = set.Normal
	}
	if set.Roughness != "" {
		maps["roughness"] = set.Roughness
	}
	if set.Metallic != "" {
		maps["metallic"] = set.Metallic
	}
	if len(maps) == 0 {
		return nil
	}
	return maps
}
