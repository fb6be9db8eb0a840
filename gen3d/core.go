package gen3d

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/meshforge/internal/storage"
	"github.com/BaSui01/meshforge/types"
)

// PlaceholderFunc produces the fallback artifact when no provider is usable.
type PlaceholderFunc func(ctx context.Context, jobID string, uploader storage.Uploader) (*types.ProviderResult, error)

// Deps bundles everything Generate3D needs. Delay, Random and Placeholder
// are injectable so tests run deterministically.
type Deps struct {
	Adapters        []Adapter
	Storage         storage.Uploader
	DefaultProvider string
	Placeholder     PlaceholderFunc
	Delay           func(ctx context.Context, d time.Duration) error
	Random          func() float64
	Logger          *zap.Logger
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

// Generate3D runs one generation job to completion: select a provider,
// dispatch by job type, and return the produced artifact. With no usable
// provider it waits a randomized 1–3s to emulate generation latency and
// produces the placeholder artifact instead; that path never fails on
// missing input data.
//
// Provider failures propagate unmodified. Retries are the adapter's
// responsibility for transport errors and the queue's responsibility for
// whole-job attempts; this function does neither.
func Generate3D(ctx context.Context, job *types.JobRecord, deps Deps) (*types.ProviderResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pctx := &Context{Storage: deps.Storage}
	provider := SelectProvider(deps.Adapters, job.Provider, deps.DefaultProvider, logger)

	if provider == nil {
		delay := deps.Delay
		if delay == nil {
			delay = sleepCtx
		}
		random := deps.Random
		if random == nil {
			random = rand.Float64
		}
		placeholder := deps.Placeholder
		if placeholder == nil {
			return nil, types.NewError(types.ErrProvider, "no provider configured and no placeholder generator available")
		}

		logger.Info("no provider configured, generating placeholder",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
		)

		waitMs := 1000 + random()*2000
		if err := delay(ctx, time.Duration(waitMs)*time.Millisecond); err != nil {
			return nil, err
		}
		return placeholder(ctx, job.ID, deps.Storage)
	}

	switch job.Type {
	case types.JobTypeMultiView:
		// Checked here as well as at intake: adapters may be invoked from
		// contexts that bypass intake.
		v := job.ViewImages
		if v == nil || v.Front == "" || v.Left == "" || v.Right == "" {
			return nil, types.NewError(types.ErrInvalidInput,
				"front/left/right images are required for multiview-to-3D generation")
		}
		return provider.GenerateFromMultiView(ctx, job, pctx)
	case types.JobTypeImage:
		if job.ImageURL == "" {
			return nil, types.NewError(types.ErrInvalidInput,
				"Image URL is required for image-to-3D generation")
		}
		return provider.GenerateFromImage(ctx, job, pctx)
	default:
		return provider.GenerateFromText(ctx, job, pctx)
	}
}
