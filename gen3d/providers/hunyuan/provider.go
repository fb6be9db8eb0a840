package hunyuan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/gen3d"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/internal/retry"
	"github.com/BaSui01/meshforge/types"
)

// Provider 实现混元 3D 生成适配器.
type Provider struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Collector

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ gen3d.Adapter = (*Provider)(nil)

// New 创建混元适配器实例.
func New(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg.withDefaults(),
		client: &http.Client{Timeout: 10 * time.Minute},
		logger: logger.With(zap.String("component", "provider.hunyuan")),
		now:    time.Now,
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

func (p *Provider) Name() string { return "hunyuan" }

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

// IsConfigured 报告凭证是否齐备.
func (p *Provider) IsConfigured() bool { return p.cfg.Configured() }

func (p *Provider) GenerateFromText(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	return p.generate(ctx, job, pctx)
}

func (p *Provider) GenerateFromImage(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	return p.generate(ctx, job, pctx)
}

func (p *Provider) GenerateFromMultiView(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	return p.generate(ctx, job, pctx)
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type submitResponse struct {
	Response struct {
		JobID     string    `json:"JobId"`
		RequestID string    `json:"RequestId"`
		Error     *apiError `json:"Error,omitempty"`
	} `json:"Response"`
}

type resultFile struct {
	Type            string `json:"Type,omitempty"`
	URL             string `json:"Url,omitempty"`
	PreviewImageURL string `json:"PreviewImageUrl,omitempty"`
}

type queryResponse struct {
	Response struct {
		Status        string       `json:"Status"`
		ErrorCode     string       `json:"ErrorCode,omitempty"`
		ErrorMessage  string       `json:"ErrorMessage,omitempty"`
		ResultFile3Ds []resultFile `json:"ResultFile3Ds,omitempty"`
		RequestID     string       `json:"RequestId"`
		Error         *apiError    `json:"Error,omitempty"`
	} `json:"Response"`
}

// generate 执行一次完整生成：提交 → 轮询 → 下载 → 上传.
// 所有任务类型共用同一流程，差异全部在提交载荷里.
func (p *Provider) generate(ctx context.Context, job *types.JobRecord, pctx *gen3d.Context) (*types.ProviderResult, error) {
	if !p.IsConfigured() {
		return nil, types.NewError(types.ErrProvider, "hunyuan credentials are not configured").
			WithProvider(p.Name())
	}
	if job.TextureOptions != nil {
		p.logger.Warn("textureOptions are not supported by hunyuan, ignoring",
			zap.String("job_id", job.ID))
	}

	logger := p.logger.With(zap.String("job_id", job.ID))
	start := p.now()

	useBase64 := p.cfg.ImageInputMode == ImageInputBase64
	remoteID, err := p.submit(ctx, job, useBase64)
	if err != nil {
		return nil, err
	}
	logger.Info("job submitted",
		zap.String("hunyuan_job_id", remoteID),
		zap.Duration("elapsed", p.now().Sub(start)),
	)

	result, err := p.poll(ctx, remoteID)
	if err != nil {
		return nil, err
	}

	if result.Response.Status == "FAIL" && p.shouldRetryWithBase64(job, result, useBase64) {
		logger.Warn("source image download failed on the service side, retrying with base64 input")
		useBase64 = true
		remoteID, err = p.submit(ctx, job, useBase64)
		if err != nil {
			return nil, err
		}
		result, err = p.poll(ctx, remoteID)
		if err != nil {
			return nil, err
		}
	}

	if result.Response.Status == "FAIL" {
		message := result.Response.ErrorMessage
		if message == "" {
			message = "hunyuan job failed"
		}
		return nil, types.NewError(types.ErrProvider, message).WithProvider(p.Name())
	}

	file, err := pickResultFile(result.Response.ResultFile3Ds, job.EffectiveFormat())
	if err != nil {
		return nil, err
	}

	body, err := p.download(ctx, file.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("result downloaded",
		zap.Int("size_bytes", len(body)),
		zap.String("format", file.Type),
	)

	assetID := fmt.Sprintf("asset-%s.%s", job.ID, file.Type)
	url, err := pctx.Storage.Upload(ctx, assetID, body, "application/octet-stream")
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to store hunyuan result").
			WithProvider(p.Name()).WithCause(err)
	}
	logger.Info("asset stored",
		zap.String("asset_id", assetID),
		zap.Duration("total", p.now().Sub(start)),
	)

	out := &types.ProviderResult{AssetID: assetID, AssetURL: url}
	switch file.Type {
	case "glb":
		out.Format = types.FormatGLB
	case "fbx":
		out.Format = types.FormatFBX
	}
	return out, nil
}

func (p *Provider) submit(ctx context.Context, job *types.JobRecord, useBase64 bool) (string, error) {
	var imageBase64 string
	if useBase64 && job.Type == types.JobTypeImage {
		if job.ImageURL == "" {
			return "", types.NewError(types.ErrInvalidInput,
				"Image URL is required for image-to-3D generation")
		}
		encoded, err := p.imageURLToBase64(ctx, job.ImageURL)
		if err != nil {
			return "", err
		}
		imageBase64 = encoded
	}

	action, payload, err := BuildSubmitPayload(job, SubmitOptions{
		Mode:           p.cfg.Mode,
		Model:          p.cfg.Model,
		ResultFormat:   p.cfg.ResultFormat,
		EnablePBR:      p.cfg.EnablePBR,
		EnableGeometry: p.cfg.EnableGeometry,
		FaceCount:      p.cfg.FaceCount,
		GenerateType:   p.cfg.GenerateType,
		PolygonType:    p.cfg.PolygonType,
		ImageBase64:    imageBase64,
	})
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := p.call(ctx, action, payload, &resp); err != nil {
		return "", err
	}
	if resp.Response.Error != nil {
		return "", types.NewError(types.ErrProvider,
			fmt.Sprintf("%s: %s", resp.Response.Error.Code, resp.Response.Error.Message)).
			WithProvider(p.Name())
	}
	return resp.Response.JobID, nil
}

// poll 轮询任务直到 DONE/FAIL 或超出尝试上限.
// 服务端返回的 API 级错误归一化为 FAIL，便于上层统一做 base64 回退判断.
func (p *Provider) poll(ctx context.Context, remoteID string) (*queryResponse, error) {
	action := actionQueryRapid
	if p.cfg.Mode == ModePro {
		action = actionQueryPro
	}

	for attempt := 0; attempt < p.cfg.MaxPollAttempts; attempt++ {
		var resp queryResponse
		if err := p.call(ctx, action, map[string]any{"JobId": remoteID}, &resp); err != nil {
			return nil, err
		}
		if resp.Response.Error != nil {
			resp.Response.Status = "FAIL"
			resp.Response.ErrorCode = resp.Response.Error.Code
			resp.Response.ErrorMessage = fmt.Sprintf("%s: %s",
				resp.Response.Error.Code, resp.Response.Error.Message)
			p.recordPollAttempts(attempt + 1)
			return &resp, nil
		}
		if resp.Response.Status == "DONE" || resp.Response.Status == "FAIL" {
			p.recordPollAttempts(attempt + 1)
			return &resp, nil
		}
		if err := p.sleep(ctx, p.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
	p.recordPollAttempts(p.cfg.MaxPollAttempts)
	return nil, types.NewError(types.ErrTimeout,
		fmt.Sprintf("hunyuan job polling timeout after %d attempts", p.cfg.MaxPollAttempts)).
		WithProvider(p.Name()).WithRetryable(true)
}

// call 发送一次签名请求，瞬时传输错误按线性退避重试.
func (p *Provider) call(ctx context.Context, action string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return types.NewError(types.ErrProvider, "failed to encode hunyuan payload").
			WithProvider(p.Name()).WithCause(err)
	}

	raw, err := retry.Do(ctx, retry.DefaultPolicy(), p.logger, retry.Transient, func() ([]byte, error) {
		return p.callOnce(ctx, action, body)
	})
	p.recordRequest(action, err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return types.NewError(types.ErrProvider, "failed to decode hunyuan response").
			WithProvider(p.Name()).WithCause(err)
	}
	return nil
}

func (p *Provider) callOnce(ctx context.Context, action string, body []byte) ([]byte, error) {
	timestamp := p.now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization",
		authorization(p.cfg.SecretID, p.cfg.SecretKey, p.cfg.Host, defaultService, timestamp, body))
	req.Header.Set("Content-Type", signedContentType)
	req.Header.Set("Host", p.cfg.Host)
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Version", defaultVersion)
	req.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", timestamp))
	req.Header.Set("X-TC-Region", p.cfg.Region)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, types.NewError(types.ErrProvider,
			fmt.Sprintf("hunyuan api error: status=%d body=%s", resp.StatusCode, string(raw))).
			WithProvider(p.Name())
	}
	return raw, nil
}

func (p *Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to build download request").
			WithProvider(p.Name()).WithCause(err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to download result file").
			WithProvider(p.Name()).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, types.NewError(types.ErrProvider,
			fmt.Sprintf("failed to download result file: HTTP %d", resp.StatusCode)).
			WithProvider(p.Name())
	}
	return io.ReadAll(resp.Body)
}

func (p *Provider) imageURLToBase64(ctx context.Context, imageURL string) (string, error) {
	body, err := p.download(ctx, imageURL)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", types.NewError(types.ErrProvider, "image download returned empty body").
			WithProvider(p.Name())
	}
	if int64(len(body)) > p.cfg.MaxInputImageBytes {
		return "", types.NewError(types.ErrInvalidInput,
			fmt.Sprintf("image is too large for hunyuan base64 input (%d bytes > %d bytes)",
				len(body), p.cfg.MaxInputImageBytes))
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

// shouldRetryWithBase64 判断 FAIL 是否属于服务端拉取源图失败，仅在 auto
// 模式的单图任务上触发一次 base64 回退.
func (p *Provider) shouldRetryWithBase64(job *types.JobRecord, resp *queryResponse, usedBase64 bool) bool {
	if usedBase64 || p.cfg.ImageInputMode != ImageInputAuto {
		return false
	}
	if job.Type != types.JobTypeImage || job.ImageURL == "" {
		return false
	}
	return strings.Contains(resp.Response.ErrorCode, "DownloadError") ||
		strings.Contains(resp.Response.ErrorMessage, "DownloadError")
}

// pickResultFile 选择结果文件：优先匹配请求的格式，其次第一个带 URL 的
// 文件，否则报错.
func pickResultFile(files []resultFile, format types.AssetFormat) (resultFile, error) {
	if len(files) == 0 {
		return resultFile{}, types.NewError(types.ErrProvider, "no result files returned from hunyuan")
	}
	for _, f := range files {
		if strings.EqualFold(f.Type, string(format)) && f.URL != "" {
			f.Type = strings.ToLower(f.Type)
			return f, nil
		}
	}
	for _, f := range files {
		if f.URL != "" {
			if f.Type == "" {
				f.Type = "glb"
			}
			f.Type = strings.ToLower(f.Type)
			return f, nil
		}
	}
	return resultFile{}, types.NewError(types.ErrProvider, "result file URL is missing")
}
