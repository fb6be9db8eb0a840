package gen3d

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/meshforge/internal/storage"
	"github.com/BaSui01/meshforge/types"
)

func textJob(id string) *types.JobRecord {
	return &types.JobRecord{ID: id, Type: types.JobTypeText, Prompt: "a chair", CreatedAt: time.Now().UnixMilli()}
}

func noDelay(context.Context, time.Duration) error { return nil }

func TestGenerate3D_TextDispatch(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "meshy",
		configured: true,
		result:     &types.ProviderResult{AssetID: "asset-1", AssetURL: "https://cdn/a.glb"},
	}

	result, err := Generate3D(context.Background(), textJob("job-2"), Deps{Adapters: []Adapter{adapter}})
	require.NoError(t, err)
	assert.Equal(t, "asset-1", result.AssetID)
	assert.Equal(t, 1, adapter.textCalls)
	assert.Equal(t, 0, adapter.imageCalls)
}

func TestGenerate3D_ImageWithoutURLFails(t *testing.T) {
	adapter := &fakeAdapter{name: "hunyuan", configured: true}
	job := &types.JobRecord{ID: "job-1", Type: types.JobTypeImage, Prompt: "image input"}

	_, err := Generate3D(context.Background(), job, Deps{Adapters: []Adapter{adapter}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image URL is required")
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
	assert.Equal(t, 0, adapter.imageCalls)
}

func TestGenerate3D_MultiViewDispatch(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "hunyuan",
		configured: true,
		result:     &types.ProviderResult{AssetID: "asset-mv", AssetURL: "https://cdn/mv.glb"},
	}
	job := &types.JobRecord{
		ID:     "job-5",
		Type:   types.JobTypeMultiView,
		Prompt: "three views",
		ViewImages: &types.MultiViewImages{
			Front: "https://example.com/front.png",
			Left:  "https://example.com/left.png",
			Right: "https://example.com/right.png",
		},
	}

	result, err := Generate3D(context.Background(), job, Deps{Adapters: []Adapter{adapter}})
	require.NoError(t, err)
	assert.Equal(t, "asset-mv", result.AssetID)
	assert.Equal(t, 1, adapter.multiViewCalls)
}

func TestGenerate3D_MultiViewMissingViewFails(t *testing.T) {
	adapter := &fakeAdapter{name: "hunyuan", configured: true}
	tests := []*types.MultiViewImages{
		nil,
		{Left: "https://example.com/l.png", Right: "https://example.com/r.png"},
		{Front: "https://example.com/f.png", Right: "https://example.com/r.png"},
		{Front: "https://example.com/f.png", Left: "https://example.com/l.png"},
	}
	for _, views := range tests {
		job := &types.JobRecord{ID: "job-6", Type: types.JobTypeMultiView, Prompt: "p", ViewImages: views}
		_, err := Generate3D(context.Background(), job, Deps{Adapters: []Adapter{adapter}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "front/left/right images are required")
	}
	assert.Equal(t, 0, adapter.multiViewCalls)
}

func TestGenerate3D_PlaceholderWhenNothingConfigured(t *testing.T) {
	placeholderCalls := 0
	placeholder := func(_ context.Context, jobID string, _ storage.Uploader) (*types.ProviderResult, error) {
		placeholderCalls++
		return &types.ProviderResult{AssetID: "asset-" + jobID + ".glb", AssetURL: "/storage/asset-" + jobID + ".glb"}, nil
	}

	for _, jobType := range []types.JobType{types.JobTypeText, types.JobTypeImage, types.JobTypeMultiView} {
		job := &types.JobRecord{ID: "job-3", Type: jobType, Prompt: "mock model"}
		result, err := Generate3D(context.Background(), job, Deps{
			Adapters:    []Adapter{&fakeAdapter{name: "hunyuan"}, &fakeAdapter{name: "meshy"}},
			Placeholder: placeholder,
			Delay:       noDelay,
			Random:      func() float64 { return 0 },
		})
		require.NoError(t, err, "type %s", jobType)
		assert.Equal(t, "asset-job-3.glb", result.AssetID)
	}
	assert.Equal(t, 3, placeholderCalls)
}

func TestGenerate3D_PlaceholderWaitIsRandomized(t *testing.T) {
	var waited time.Duration
	_, err := Generate3D(context.Background(), textJob("job-7"), Deps{
		Placeholder: func(context.Context, string, storage.Uploader) (*types.ProviderResult, error) {
			return &types.ProviderResult{AssetID: "a", AssetURL: "u"}, nil
		},
		Delay: func(_ context.Context, d time.Duration) error {
			waited = d
			return nil
		},
		Random: func() float64 { return 0.5 },
	})
	require.NoError(t, err)
	assert.Equal(t, 2000*time.Millisecond, waited)
}

func TestGenerate3D_PropagatesProviderFailure(t *testing.T) {
	provErr := errors.New("provider timeout")
	adapter := &fakeAdapter{name: "meshy", configured: true, err: provErr}

	_, err := Generate3D(context.Background(), textJob("job-4"), Deps{Adapters: []Adapter{adapter}})
	require.ErrorIs(t, err, provErr)
}

func TestGenerate3D_PlaceholderWaitCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate3D(ctx, textJob("job-8"), Deps{
		Placeholder: func(context.Context, string, storage.Uploader) (*types.ProviderResult, error) {
			t.Fatal("placeholder must not run after cancellation")
			return nil, nil
		},
		Random: func() float64 { return 0 },
	})
	require.ErrorIs(t, err, context.Canceled)
}
