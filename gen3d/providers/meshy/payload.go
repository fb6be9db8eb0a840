package meshy

import "github.com/BaSui01/meshforge/types"

// artStyles 将平台贴图风格映射到 Meshy art_style 取值.
var artStyles = map[types.TextureStyle]string{
	types.TexturePhotorealistic: "realistic",
	types.TextureCartoon:        "cartoon",
	types.TextureStylized:       "low-poly",
	types.TextureFlat:           "pbr",
}

// BuildTextTaskPayload 构建 text-to-3d 任务载荷.
// The payload is format-agnostic: Meshy returns every output format and the
// requested one is picked from model_urls at download time.
func BuildTextTaskPayload(prompt string, texture *types.TextureOptions) map[string]any {
	payload := map[string]any{
		"mode":          "preview",
		"prompt":        prompt,
		"should_remesh": true,
	}
	applyTextureOptions(payload, texture)
	return payload
}

// BuildImageTaskPayload 构建 image-to-3d 任务载荷.
func BuildImageTaskPayload(imageURL string, texture *types.TextureOptions) map[string]any {
	payload := map[string]any{
		"image_url":               imageURL,
		"should_remesh":           true,
		"should_texture":          true,
		"enable_pbr":              true,
		"save_pre_remeshed_model": false,
	}
	applyTextureOptions(payload, texture)
	return payload
}

// BuildMultiViewTaskPayload 构建 multi-image-to-3d 任务载荷，视角顺序
// 固定为 front/left/right.
func BuildMultiViewTaskPayload(views *types.MultiViewImages, texture *types.TextureOptions) map[string]any {
	payload := map[string]any{
		"image_urls":              []string{views.Front, views.Left, views.Right},
		"should_remesh":           true,
		"should_texture":          true,
		"enable_pbr":              true,
		"save_pre_remeshed_model": false,
	}
	applyTextureOptions(payload, texture)
	return payload
}

func applyTextureOptions(payload map[string]any, texture *types.TextureOptions) {
	if texture == nil {
		return
	}
	if texture.Resolution > 0 {
		payload["texture_resolution"] = texture.Resolution
	}
	if style, ok := artStyles[texture.Style]; ok {
		payload["art_style"] = style
	}
}
