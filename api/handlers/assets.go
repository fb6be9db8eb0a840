package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/types"
)

// =============================================================================
// 🗃️ 产物 Handler
// =============================================================================

// AssetReader 读取产物登记
type AssetReader interface {
	GetAssetURL(ctx context.Context, assetID string) (string, error)
	GetTextureMaps(ctx context.Context, assetID string) (map[string]string, error)
}

// AssetView 单个产物的登记视图
type AssetView struct {
	AssetID string `json:"assetId"`
	URL     string `json:"url"`
}

// TextureView 产物的贴图集视图
type TextureView struct {
	AssetID  string            `json:"assetId"`
	Textures map[string]string `json:"textures"`
}

// AssetsHandler 产物处理器
type AssetsHandler struct {
	assets AssetReader
	logger *zap.Logger
}

// NewAssetsHandler 创建产物处理器
func NewAssetsHandler(assets AssetReader, logger *zap.Logger) *AssetsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetsHandler{
		assets: assets,
		logger: logger.With(zap.String("component", "assets_handler")),
	}
}

// HandleGetAsset 处理 GET /v1/assets/{assetID}
func (h *AssetsHandler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	url, err := h.assets.GetAssetURL(r.Context(), assetID)
	if err != nil {
		WriteError(w, types.NewError(types.ErrStorage, "failed to read asset registry").WithCause(err), h.logger)
		return
	}
	if url == "" {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "asset not found: "+assetID, h.logger)
		return
	}

	WriteSuccess(w, http.StatusOK, AssetView{AssetID: assetID, URL: url})
}

// HandleGetPreview 处理 GET /v1/assets/{assetID}/preview
// 302 重定向到产物 URL，方便浏览器直接预览.
func (h *AssetsHandler) HandleGetPreview(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	url, err := h.assets.GetAssetURL(r.Context(), assetID)
	if err != nil {
		WriteError(w, types.NewError(types.ErrStorage, "failed to read asset registry").WithCause(err), h.logger)
		return
	}
	if url == "" {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "asset not found: "+assetID, h.logger)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// HandleGetTextures 处理 GET /v1/assets/{assetID}/textures
// 未登记贴图的产物返回空对象而非 404：贴图是可选产物.
func (h *AssetsHandler) HandleGetTextures(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	url, err := h.assets.GetAssetURL(r.Context(), assetID)
	if err != nil {
		WriteError(w, types.NewError(types.ErrStorage, "failed to read asset registry").WithCause(err), h.logger)
		return
	}
	if url == "" {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "asset not found: "+assetID, h.logger)
		return
	}

	maps, err := h.assets.GetTextureMaps(r.Context(), assetID)
	if err != nil {
		WriteError(w, types.NewError(types.ErrStorage, "failed to read texture registry").WithCause(err), h.logger)
		return
	}
	if maps == nil {
		maps = map[string]string{}
	}

	WriteSuccess(w, http.StatusOK, TextureView{AssetID: assetID, Textures: maps})
}
