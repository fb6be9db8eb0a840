package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/internal/history"
	"github.com/BaSui01/meshforge/types"
)

const maxPromptLength = 2000

// CreateRequest 是未经校验的任务创建载荷.
type CreateRequest struct {
	Type            string                 `json:"type"`
	Prompt          string                 `json:"prompt"`
	ImageURL        string                 `json:"imageUrl,omitempty"`
	ViewImages      *types.MultiViewImages `json:"viewImages,omitempty"`
	Provider        string                 `json:"provider,omitempty"`
	Format          string                 `json:"format,omitempty"`
	TextureOptions  *types.TextureOptions  `json:"textureOptions,omitempty"`
	SkeletonOptions *types.SkeletonOptions `json:"skeletonOptions,omitempty"`
}

// CreateResponse 是任务创建成功后的应答.
type CreateResponse struct {
	JobID  string          `json:"jobId"`
	Status types.JobStatus `json:"status"`
}

// Enqueuer puts a validated job record on the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *types.JobRecord) error
}

type historyAppender interface {
	Append(ctx context.Context, rec history.Record) error
}

// Intake 校验创建请求并入队.
type Intake struct {
	queue     Enqueuer
	history   historyAppender
	providers []string
	logger    *zap.Logger

	newID func() string
	now   func() int64
}

// NewIntake 创建任务入口. providers 是已注册的服务商名单，用于校验
// provider 覆写字段.
func NewIntake(queue Enqueuer, hist historyAppender, providers []string, logger *zap.Logger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{
		queue:     queue,
		history:   hist,
		providers: providers,
		logger:    logger.With(zap.String("component", "intake")),
		newID:     uuid.NewString,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Validate 检查创建请求并返回规范化的任务属性，收集所有违反项.
func (i *Intake) Validate(req *CreateRequest) (*types.JobRecord, error) {
	var violations []string

	jobType := types.JobType(req.Type)
	switch jobType {
	case types.JobTypeText, types.JobTypeImage, types.JobTypeMultiView:
	default:
		violations = append(violations, "type must be one of: text, image, multiview")
		jobType = ""
	}

	if promptLen := utf8.RuneCountInString(req.Prompt); promptLen < 1 || promptLen > maxPromptLength {
		violations = append(violations,
			fmt.Sprintf("prompt must be 1-%d characters", maxPromptLength))
	}

	switch jobType {
	case types.JobTypeImage:
		if req.ImageURL == "" {
			violations = append(violations, "imageUrl is required for image jobs")
		} else if !wellFormedURL(req.ImageURL) {
			violations = append(violations, "imageUrl must be a well-formed URL")
		}
	case types.JobTypeText, types.JobTypeMultiView:
		if req.ImageURL != "" {
			violations = append(violations, "imageUrl is only allowed for image jobs")
		}
	}
	switch jobType {
	case types.JobTypeMultiView:
		v := req.ViewImages
		if v == nil || v.Front == "" || v.Left == "" || v.Right == "" {
			violations = append(violations, "viewImages.front/left/right are required for multiview jobs")
		} else {
			for _, view := range []struct{ name, url string }{
				{"front", v.Front}, {"left", v.Left}, {"right", v.Right},
			} {
				if !wellFormedURL(view.url) {
					violations = append(violations,
						fmt.Sprintf("viewImages.%s must be a well-formed URL", view.name))
				}
			}
		}
	case types.JobTypeText, types.JobTypeImage:
		if req.ViewImages != nil {
			violations = append(violations, "viewImages are only allowed for multiview jobs")
		}
	}

	if req.Provider != "" && !i.knownProvider(req.Provider) {
		violations = append(violations,
			fmt.Sprintf("provider must be one of: %s", strings.Join(i.providers, ", ")))
	}

	format := types.AssetFormat(req.Format)
	switch format {
	case "", types.FormatGLB, types.FormatFBX:
	default:
		violations = append(violations, "format must be one of: glb, fbx")
		format = ""
	}

	if opts := req.TextureOptions; opts != nil {
		switch opts.Resolution {
		case 512, 1024, 2048:
		default:
			violations = append(violations, "textureOptions.resolution must be one of: 512, 1024, 2048")
		}
		switch opts.Style {
		case types.TexturePhotorealistic, types.TextureCartoon, types.TextureStylized, types.TextureFlat:
		default:
			violations = append(violations,
				"textureOptions.style must be one of: photorealistic, cartoon, stylized, flat")
		}
	}

	if opts := req.SkeletonOptions; opts != nil {
		if format != types.FormatFBX {
			violations = append(violations, "skeletonOptions require format=fbx")
		}
		switch opts.Preset {
		case types.SkeletonNone, types.SkeletonHumanoid, types.SkeletonQuadruped:
		default:
			violations = append(violations,
				"skeletonOptions.preset must be one of: none, humanoid, quadruped")
		}
	}

	if len(violations) > 0 {
		return nil, types.NewValidationError(violations)
	}

	return &types.JobRecord{
		Type:            jobType,
		Prompt:          req.Prompt,
		ImageURL:        req.ImageURL,
		ViewImages:      req.ViewImages,
		Provider:        strings.ToLower(req.Provider),
		Format:          format,
		TextureOptions:  req.TextureOptions,
		SkeletonOptions: req.SkeletonOptions,
	}, nil
}

// CreateJob 校验请求、分配任务 ID、入队并记录初始历史.
// 校验失败是终态错误；入队失败以 QUEUE_ERROR 上抛.
func (i *Intake) CreateJob(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	job, err := i.Validate(req)
	if err != nil {
		return nil, err
	}

	job.ID = i.newID()
	job.CreatedAt = i.now()

	if err := i.queue.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	if i.history != nil {
		rec := history.Record{
			JobID:     job.ID,
			Type:      job.Type,
			Prompt:    job.Prompt,
			Status:    types.JobStatusQueued,
			CreatedAt: job.CreatedAt,
		}
		// History is a side channel: losing one entry must not fail the
		// already-enqueued job.
		if err := i.history.Append(ctx, rec); err != nil {
			i.logger.Warn("failed to record job history", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	i.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("provider", job.Provider),
	)
	return &CreateResponse{JobID: job.ID, Status: types.JobStatusQueued}, nil
}

// wellFormedURL 要求绝对 URL：必须带 scheme 和 host.
func wellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (i *Intake) knownProvider(name string) bool {
	for _, p := range i.providers {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}
