package meshy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/gen3d"
	"github.com/BaSui01/meshforge/internal/metrics"
	"github.com/BaSui01/meshforge/types"
)

type fakeMeshy struct {
	mu         sync.Mutex
	createPath string
	payload    map[string]any
	pollPaths  []string
	statuses   []map[string]any
	model      []byte
}

func (f *fakeMeshy) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(f.model)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Method == http.MethodPost {
			f.createPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&f.payload)
			_ = json.NewEncoder(w).Encode(map[string]any{"result": "task-1"})
			return
		}

		f.pollPaths = append(f.pollPaths, r.URL.Path)
		idx := len(f.pollPaths) - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		_ = json.NewEncoder(w).Encode(f.statuses[idx])
	})
	return mux
}

type recordUploader struct {
	assetID     string
	contentType string
	body        []byte
}

func (r *recordUploader) Upload(_ context.Context, assetID string, body []byte, contentType string) (string, error) {
	r.assetID = assetID
	r.body = body
	r.contentType = contentType
	return "/storage/" + assetID, nil
}

func newTestProvider(t *testing.T, api *fakeMeshy, mutate func(*Config)) (*Provider, *recordUploader, *gen3d.Context, string) {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	cfg := Config{
		APIKey:       "meshy-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p := New(cfg, zap.NewNop())
	p.sleep = func(context.Context, time.Duration) error { return nil }

	uploader := &recordUploader{}
	return p, uploader, &gen3d.Context{Storage: uploader}, server.URL
}

func succeeded(modelURLs, textures map[string]any) map[string]any {
	resp := map[string]any{"status": "SUCCEEDED", "progress": 100, "model_urls": modelURLs}
	if textures != nil {
		resp["texture_urls"] = []map[string]any{textures}
	}
	return resp
}

func TestGenerateFromText_HappyPath(t *testing.T) {
	api := &fakeMeshy{model: []byte("glb-bytes")}
	p, uploader, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		{"status": "PENDING", "progress": 0},
		{"status": "IN_PROGRESS", "progress": 50},
		succeeded(map[string]any{"glb": serverURL + "/files/model.glb"}, nil),
	}

	job := &types.JobRecord{ID: "job-1", Type: types.JobTypeText, Prompt: "a red car"}
	result, err := p.GenerateFromText(context.Background(), job, pctx)
	require.NoError(t, err)

	assert.Equal(t, "/openapi/v2/text-to-3d", api.createPath)
	assert.Equal(t, "a red car", api.payload["prompt"])
	for _, path := range api.pollPaths {
		assert.Equal(t, "/openapi/v2/text-to-3d/task-1", path)
	}

	assert.Equal(t, "asset-job-1.glb", result.AssetID)
	assert.Equal(t, "/storage/asset-job-1.glb", result.AssetURL)
	assert.Equal(t, types.FormatGLB, result.Format)
	assert.Equal(t, []byte("glb-bytes"), uploader.body)
	assert.Equal(t, "model/gltf-binary", uploader.contentType)
}

func TestGenerateFromImage_UsesV1Path(t *testing.T) {
	api := &fakeMeshy{model: []byte("glb")}
	p, _, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		succeeded(map[string]any{"glb": serverURL + "/files/model.glb"}, nil),
	}

	job := &types.JobRecord{ID: "job-2", Type: types.JobTypeImage, Prompt: "p", ImageURL: "https://example.com/cat.png"}
	_, err := p.GenerateFromImage(context.Background(), job, pctx)
	require.NoError(t, err)

	assert.Equal(t, "/openapi/v1/image-to-3d", api.createPath)
	assert.Equal(t, "https://example.com/cat.png", api.payload["image_url"])
}

func TestGenerateFromImage_RequiresURL(t *testing.T) {
	p := New(Config{APIKey: "k"}, zap.NewNop())

	job := &types.JobRecord{ID: "job-3", Type: types.JobTypeImage, Prompt: "p"}
	_, err := p.GenerateFromImage(context.Background(), job, &gen3d.Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image URL is required")
}

func TestGenerateFromMultiView_UsesMultiImagePath(t *testing.T) {
	api := &fakeMeshy{model: []byte("glb")}
	p, _, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		succeeded(map[string]any{"glb": serverURL + "/files/model.glb"}, nil),
	}

	job := &types.JobRecord{
		ID:   "job-4",
		Type: types.JobTypeMultiView,
		ViewImages: &types.MultiViewImages{
			Front: "https://example.com/f.png",
			Left:  "https://example.com/l.png",
			Right: "https://example.com/r.png",
		},
	}
	_, err := p.GenerateFromMultiView(context.Background(), job, pctx)
	require.NoError(t, err)

	assert.Equal(t, "/openapi/v1/multi-image-to-3d", api.createPath)
	assert.Equal(t, []any{
		"https://example.com/f.png",
		"https://example.com/l.png",
		"https://example.com/r.png",
	}, api.payload["image_urls"])
}

func TestGenerateFromMultiView_RequiresAllViews(t *testing.T) {
	p := New(Config{APIKey: "k"}, zap.NewNop())

	job := &types.JobRecord{
		ID:         "job-5",
		Type:       types.JobTypeMultiView,
		ViewImages: &types.MultiViewImages{Front: "f", Left: "l"},
	}
	_, err := p.GenerateFromMultiView(context.Background(), job, &gen3d.Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "front/left/right images are required")
}

func TestGenerate_FBXSelectedFromModelURLs(t *testing.T) {
	api := &fakeMeshy{model: []byte("fbx-bytes")}
	p, uploader, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		succeeded(map[string]any{
			"glb": serverURL + "/files/model.glb",
			"fbx": serverURL + "/files/model.fbx",
		}, nil),
	}

	job := &types.JobRecord{ID: "job-6", Type: types.JobTypeText, Prompt: "a knight", Format: types.FormatFBX}
	result, err := p.GenerateFromText(context.Background(), job, pctx)
	require.NoError(t, err)
	assert.Equal(t, "asset-job-6.fbx", result.AssetID)
	assert.Equal(t, types.FormatFBX, result.Format)
	assert.Equal(t, "application/octet-stream", uploader.contentType)
}

func TestGenerate_MissingFormatFailsHard(t *testing.T) {
	api := &fakeMeshy{}
	p, _, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		succeeded(map[string]any{"glb": serverURL + "/files/model.glb"}, nil),
	}

	job := &types.JobRecord{ID: "job-7", Type: types.JobTypeText, Prompt: "p", Format: types.FormatFBX}
	_, err := p.GenerateFromText(context.Background(), job, pctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no FBX URL in meshy response")
}

func TestGenerate_ExtractsTextureMaps(t *testing.T) {
	api := &fakeMeshy{model: []byte("glb")}
	p, _, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		succeeded(
			map[string]any{"glb": serverURL + "/files/model.glb"},
			map[string]any{
				"base_color": "https://cdn/base.png",
				"normal":     "https://cdn/normal.png",
				"roughness":  "https://cdn/rough.png",
			},
		),
	}

	job := &types.JobRecord{ID: "job-8", Type: types.JobTypeText, Prompt: "p"}
	result, err := p.GenerateFromText(context.Background(), job, pctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"albedo":    "https://cdn/base.png",
		"normal":    "https://cdn/normal.png",
		"roughness": "https://cdn/rough.png",
	}, result.TextureMapIDs, "metallic missing from the set is a silent degrade")
}

func TestGenerate_TaskFailure(t *testing.T) {
	api := &fakeMeshy{}
	p, _, pctx, _ := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		{"status": "FAILED", "task_error": map[string]any{"message": "nsfw content"}},
	}

	job := &types.JobRecord{ID: "job-9", Type: types.JobTypeText, Prompt: "p"}
	_, err := p.GenerateFromText(context.Background(), job, pctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "meshy task failed"), err.Error())
	assert.Contains(t, err.Error(), "nsfw content")
}

func TestGenerate_PollTimeout(t *testing.T) {
	api := &fakeMeshy{}
	p, _, pctx, _ := newTestProvider(t, api, func(cfg *Config) { cfg.MaxPollAttempts = 3 })
	api.statuses = []map[string]any{{"status": "IN_PROGRESS", "progress": 10}}

	job := &types.JobRecord{ID: "job-10", Type: types.JobTypeText, Prompt: "p"}
	_, err := p.GenerateFromText(context.Background(), job, pctx)
	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.Len(t, api.pollPaths, 3)
}

func TestGenerate_NotConfigured(t *testing.T) {
	p := New(Config{}, zap.NewNop())

	job := &types.JobRecord{ID: "job-11", Type: types.JobTypeText, Prompt: "p"}
	_, err := p.GenerateFromText(context.Background(), job, &gen3d.Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is not configured")
}

func TestGenerate_RecordsProviderMetrics(t *testing.T) {
	api := &fakeMeshy{}
	p, _, pctx, serverURL := newTestProvider(t, api, nil)
	api.statuses = []map[string]any{
		{"status": "PENDING", "progress": 0},
		{"status": "IN_PROGRESS", "progress": 50},
		succeeded(map[string]any{"glb": serverURL + "/files/model.glb"}, nil),
	}

	reg := prometheus.NewRegistry()
	p.SetMetrics(metrics.NewCollector("meshforge", reg, zap.NewNop()))

	job := &types.JobRecord{ID: "job-m", Type: types.JobTypeText, Prompt: "a red car"}
	_, err := p.GenerateFromText(context.Background(), job, pctx)
	require.NoError(t, err)

	expected := `
# HELP meshforge_provider_requests_total Total number of outbound provider API calls
# TYPE meshforge_provider_requests_total counter
meshforge_provider_requests_total{operation="create",provider="meshy",status="ok"} 1
meshforge_provider_requests_total{operation="poll",provider="meshy",status="ok"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"meshforge_provider_requests_total"))

	series, err := testutil.GatherAndCount(reg, "meshforge_provider_poll_attempts")
	require.NoError(t, err)
	assert.Equal(t, 1, series, "one poll-attempts series for the meshy provider")
}
