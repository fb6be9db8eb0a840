package hunyuan

import (
	"github.com/BaSui01/meshforge/types"
)

const (
	actionSubmitRapid = "SubmitHunyuanTo3DRapidJob"
	actionSubmitPro   = "SubmitHunyuanTo3DProJob"
	actionQueryRapid  = "QueryHunyuanTo3DRapidJob"
	actionQueryPro    = "QueryHunyuanTo3DProJob"
)

// SubmitOptions 控制提交载荷的构建.
type SubmitOptions struct {
	Mode           Mode
	Model          string
	ResultFormat   string
	EnablePBR      *bool
	EnableGeometry *bool
	FaceCount      *int
	GenerateType   string
	PolygonType    string
	// ImageBase64 replaces the image URL in the payload when set.
	ImageBase64 string
}

// BuildSubmitPayload 根据任务与选项构建混元提交载荷，返回对应的
// X-TC-Action 与请求体字段.
//
// rapid 模式不支持三视图输入。FBX 产物请求会覆盖配置的 ResultFormat，
// 并在指定骨骼预设时附带 SkeletonPreset 标记（preset=none 不附带）。
func BuildSubmitPayload(job *types.JobRecord, opts SubmitOptions) (string, map[string]any, error) {
	isImage := job.Type == types.JobTypeImage
	isMultiView := job.Type == types.JobTypeMultiView

	payload := map[string]any{}
	action := actionSubmitPro

	if opts.Mode != ModePro {
		action = actionSubmitRapid
		if isMultiView {
			return "", nil, types.NewError(types.ErrUnsupported,
				"hunyuan rapid mode does not support multiview input; use pro mode")
		}
		if isImage {
			if err := setImageInput(payload, job, opts); err != nil {
				return "", nil, err
			}
		} else {
			payload["Prompt"] = job.Prompt
		}
		if opts.ResultFormat != "" {
			payload["ResultFormat"] = opts.ResultFormat
		}
		if opts.EnablePBR != nil {
			payload["EnablePBR"] = *opts.EnablePBR
		}
		if opts.EnableGeometry != nil {
			payload["EnableGeometry"] = *opts.EnableGeometry
		}
		applyFormatOverrides(payload, job)
		return action, payload, nil
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	payload["Model"] = model

	switch {
	case isMultiView:
		v := job.ViewImages
		if v == nil || v.Front == "" || v.Left == "" || v.Right == "" {
			return "", nil, types.NewError(types.ErrInvalidInput,
				"front/left/right images are required for multiview-to-3D generation")
		}
		payload["ImageUrl"] = v.Front
		payload["MultiViewImages"] = []map[string]any{
			{"ViewType": "left", "ViewImageUrl": v.Left},
			{"ViewType": "right", "ViewImageUrl": v.Right},
		}
	case isImage:
		if err := setImageInput(payload, job, opts); err != nil {
			return "", nil, err
		}
	default:
		payload["Prompt"] = job.Prompt
	}

	if opts.EnablePBR != nil {
		payload["EnablePBR"] = *opts.EnablePBR
	}
	if opts.FaceCount != nil {
		payload["FaceCount"] = *opts.FaceCount
	}
	if opts.GenerateType != "" {
		payload["GenerateType"] = opts.GenerateType
	}
	if opts.PolygonType != "" {
		payload["PolygonType"] = opts.PolygonType
	}
	applyFormatOverrides(payload, job)
	return action, payload, nil
}

func setImageInput(payload map[string]any, job *types.JobRecord, opts SubmitOptions) error {
	switch {
	case opts.ImageBase64 != "":
		payload["ImageBase64"] = opts.ImageBase64
	case job.ImageURL != "":
		payload["ImageUrl"] = job.ImageURL
	default:
		return types.NewError(types.ErrInvalidInput,
			"Image URL is required for image-to-3D generation")
	}
	return nil
}

// applyFormatOverrides 按任务请求的产物格式覆盖载荷字段.
func applyFormatOverrides(payload map[string]any, job *types.JobRecord) {
	if job.EffectiveFormat() == types.FormatFBX {
		payload["ResultFormat"] = "FBX"
	}
	if job.SkeletonOptions == nil {
		return
	}
	switch job.SkeletonOptions.Preset {
	case types.SkeletonHumanoid, types.SkeletonQuadruped:
		payload["SkeletonPreset"] = string(job.SkeletonOptions.Preset)
	}
}
