package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/internal/history"
	"github.com/BaSui01/meshforge/types"
)

type fakeQueue struct {
	jobs []*types.JobRecord
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job *types.JobRecord) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeHistory struct {
	recs []history.Record
	err  error
}

func (f *fakeHistory) Append(_ context.Context, rec history.Record) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

func newTestIntake(q *fakeQueue, h *fakeHistory) *Intake {
	in := NewIntake(q, h, []string{"hunyuan", "meshy"}, zap.NewNop())
	in.newID = func() string { return "job-fixed" }
	in.now = func() int64 { return 1700000000000 }
	return in
}

func textRequest() *CreateRequest {
	return &CreateRequest{Type: "text", Prompt: "a wooden chair"}
}

func TestCreateJob_TextHappyPath(t *testing.T) {
	q := &fakeQueue{}
	h := &fakeHistory{}
	in := newTestIntake(q, h)

	resp, err := in.CreateJob(context.Background(), textRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-fixed", resp.JobID)
	assert.Equal(t, types.JobStatusQueued, resp.Status)

	require.Len(t, q.jobs, 1)
	job := q.jobs[0]
	assert.Equal(t, types.JobTypeText, job.Type)
	assert.Equal(t, "a wooden chair", job.Prompt)
	assert.Equal(t, int64(1700000000000), job.CreatedAt)

	require.Len(t, h.recs, 1)
	assert.Equal(t, "job-fixed", h.recs[0].JobID)
	assert.Equal(t, types.JobStatusQueued, h.recs[0].Status)
	assert.Nil(t, h.recs[0].AssetID)
}

func TestCreateJob_CollectsEveryViolation(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	_, err := in.CreateJob(context.Background(), &CreateRequest{
		Type:            "hologram",
		Prompt:          "",
		Provider:        "tripo",
		Format:          "stl",
		TextureOptions:  &types.TextureOptions{Resolution: 999, Style: "oil-painting"},
		SkeletonOptions: &types.SkeletonOptions{Preset: "insectoid"},
	})
	require.Error(t, err)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 8)
	joined := strings.Join(verr.Violations, "\n")
	assert.Contains(t, joined, "type must be one of")
	assert.Contains(t, joined, "prompt must be 1-2000 characters")
	assert.Contains(t, joined, "provider must be one of")
	assert.Contains(t, joined, "format must be one of")
	assert.Contains(t, joined, "textureOptions.resolution")
	assert.Contains(t, joined, "textureOptions.style")
	assert.Contains(t, joined, "skeletonOptions require format=fbx")
	assert.Contains(t, joined, "skeletonOptions.preset")
}

func TestValidate_PromptLengthBounds(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	req := textRequest()
	req.Prompt = strings.Repeat("a", 2000)
	_, err := in.Validate(req)
	assert.NoError(t, err)

	req.Prompt = strings.Repeat("a", 2001)
	_, err = in.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt must be 1-2000 characters")
}

func TestValidate_ImageURLRules(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	_, err := in.Validate(&CreateRequest{Type: "image", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imageUrl is required for image jobs")

	_, err = in.Validate(&CreateRequest{Type: "text", Prompt: "p", ImageURL: "https://example.com/a.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imageUrl is only allowed for image jobs")

	_, err = in.Validate(&CreateRequest{Type: "image", Prompt: "p", ImageURL: "https://example.com/a.png"})
	assert.NoError(t, err)
}

func TestValidate_ViewImagesRules(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})
	full := &types.MultiViewImages{
		Front: "https://example.com/front.png",
		Left:  "https://example.com/left.png",
		Right: "https://example.com/right.png",
	}

	_, err := in.Validate(&CreateRequest{Type: "multiview", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewImages.front/left/right are required")

	_, err = in.Validate(&CreateRequest{
		Type: "multiview", Prompt: "p",
		ViewImages: &types.MultiViewImages{
			Front: "https://example.com/front.png",
			Left:  "https://example.com/left.png",
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewImages.front/left/right are required")

	_, err = in.Validate(&CreateRequest{Type: "text", Prompt: "p", ViewImages: full})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewImages are only allowed for multiview jobs")

	_, err = in.Validate(&CreateRequest{Type: "multiview", Prompt: "p", ViewImages: full})
	assert.NoError(t, err)
}

func TestValidate_ImageURLWellFormedness(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	for _, bad := range []string{"not a url at all", "/relative/path.png", "example.com/a.png"} {
		_, err := in.Validate(&CreateRequest{Type: "image", Prompt: "p", ImageURL: bad})
		require.Error(t, err, "imageUrl %q", bad)
		assert.Contains(t, err.Error(), "imageUrl must be a well-formed URL")
	}

	_, err := in.Validate(&CreateRequest{Type: "image", Prompt: "p", ImageURL: "https://example.com/a.png"})
	assert.NoError(t, err)
}

func TestValidate_ViewImagesWellFormedness(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	_, err := in.Validate(&CreateRequest{
		Type: "multiview", Prompt: "p",
		ViewImages: &types.MultiViewImages{Front: "f", Left: "l", Right: "r"},
	})
	require.Error(t, err)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3, "one violation per malformed view image")
	joined := strings.Join(verr.Violations, "\n")
	assert.Contains(t, joined, "viewImages.front must be a well-formed URL")
	assert.Contains(t, joined, "viewImages.left must be a well-formed URL")
	assert.Contains(t, joined, "viewImages.right must be a well-formed URL")

	_, err = in.Validate(&CreateRequest{
		Type: "multiview", Prompt: "p",
		ViewImages: &types.MultiViewImages{
			Front: "https://example.com/front.png",
			Left:  "not a url",
			Right: "https://example.com/right.png",
		},
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 1)
	assert.Contains(t, verr.Violations[0], "viewImages.left must be a well-formed URL")
}

func TestValidate_ProviderOverride(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	req := textRequest()
	req.Provider = "MESHY"
	job, err := in.Validate(req)
	require.NoError(t, err)
	assert.Equal(t, "meshy", job.Provider, "provider name normalized to lower case")

	req.Provider = "tripo"
	_, err = in.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider must be one of: hunyuan, meshy")
}

func TestValidate_SkeletonRequiresFBX(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	req := textRequest()
	req.SkeletonOptions = &types.SkeletonOptions{Preset: types.SkeletonHumanoid}
	_, err := in.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skeletonOptions require format=fbx")

	req.Format = "glb"
	_, err = in.Validate(req)
	require.Error(t, err)

	req.Format = "fbx"
	job, err := in.Validate(req)
	require.NoError(t, err)
	assert.Equal(t, types.FormatFBX, job.Format)
	assert.Equal(t, types.SkeletonHumanoid, job.SkeletonOptions.Preset)
}

func TestValidate_TextureOptions(t *testing.T) {
	in := newTestIntake(&fakeQueue{}, &fakeHistory{})

	for _, resolution := range []int{512, 1024, 2048} {
		req := textRequest()
		req.TextureOptions = &types.TextureOptions{Resolution: resolution, Style: types.TextureCartoon}
		_, err := in.Validate(req)
		assert.NoError(t, err, "resolution %d", resolution)
	}

	req := textRequest()
	req.TextureOptions = &types.TextureOptions{Resolution: 768, Style: types.TextureCartoon}
	_, err := in.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "textureOptions.resolution must be one of: 512, 1024, 2048")
}

func TestCreateJob_EnqueueFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	h := &fakeHistory{}
	in := newTestIntake(q, h)

	_, err := in.CreateJob(context.Background(), textRequest())
	require.Error(t, err)
	assert.Empty(t, h.recs, "no history entry for a job that never enqueued")
}

func TestCreateJob_HistoryFailureDoesNotFailJob(t *testing.T) {
	q := &fakeQueue{}
	h := &fakeHistory{err: errors.New("redis down")}
	in := newTestIntake(q, h)

	resp, err := in.CreateJob(context.Background(), textRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-fixed", resp.JobID)
	assert.Len(t, q.jobs, 1)
}
