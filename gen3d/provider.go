package gen3d

import (
	"context"

	"github.com/BaSui01/meshforge/internal/storage"
	"github.com/BaSui01/meshforge/types"
)

// Context bundles the runtime environment an adapter needs to deliver its
// artifact. Adapters themselves hold no per-job state.
type Context struct {
	Storage storage.Uploader
}

// Adapter is the uniform capability interface every generation backend
// implements. An adapter wraps one vendor protocol (submit, poll, download,
// upload) behind three modality-specific entry points.
//
// IsConfigured must be a pure function of configuration: selection happens
// per call and configuration can change between invocations.
type Adapter interface {
	Name() string
	IsConfigured() bool
	GenerateFromText(ctx context.Context, job *types.JobRecord, pctx *Context) (*types.ProviderResult, error)
	GenerateFromImage(ctx context.Context, job *types.JobRecord, pctx *Context) (*types.ProviderResult, error)
	GenerateFromMultiView(ctx context.Context, job *types.JobRecord, pctx *Context) (*types.ProviderResult, error)
}
