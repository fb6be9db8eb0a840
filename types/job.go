package types

// JobType identifies the input modality of a generation job.
type JobType string

const (
	JobTypeText      JobType = "text"
	JobTypeImage     JobType = "image"
	JobTypeMultiView JobType = "multiview"
)

// JobStatus is the closed status vocabulary exposed to API consumers.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// QueueState is the queue-native job state as observed through the queue
// inspector. It is owned by the queue, the core only reads it.
type QueueState string

const (
	QueueStateWaiting   QueueState = "waiting"
	QueueStateDelayed   QueueState = "delayed"
	QueueStateActive    QueueState = "active"
	QueueStateCompleted QueueState = "completed"
	QueueStateFailed    QueueState = "failed"
	QueueStateUnknown   QueueState = "unknown"
)

// AssetFormat is the requested output file format.
type AssetFormat string

const (
	FormatGLB AssetFormat = "glb"
	FormatFBX AssetFormat = "fbx"
)

// TextureStyle selects the texturing art style for providers that support it.
type TextureStyle string

const (
	TexturePhotorealistic TextureStyle = "photorealistic"
	TextureCartoon        TextureStyle = "cartoon"
	TextureStylized       TextureStyle = "stylized"
	TextureFlat           TextureStyle = "flat"
)

// SkeletonPreset selects the rig preset for FBX output.
type SkeletonPreset string

const (
	SkeletonNone      SkeletonPreset = "none"
	SkeletonHumanoid  SkeletonPreset = "humanoid"
	SkeletonQuadruped SkeletonPreset = "quadruped"
)

// MultiViewImages holds the three calibrated view image URLs.
type MultiViewImages struct {
	Front string `json:"front"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// TextureOptions tunes texture generation. Resolution is one of 512, 1024,
// 2048.
type TextureOptions struct {
	Resolution int          `json:"resolution"`
	Style      TextureStyle `json:"style"`
}

// SkeletonOptions is only valid when the requested format is FBX.
type SkeletonOptions struct {
	Preset SkeletonPreset `json:"preset"`
}

// JobRecord is the validated, normalized generation request as stored on the
// queue. It is immutable once enqueued: intake creates it, the worker reads
// it.
type JobRecord struct {
	ID              string           `json:"id"`
	Type            JobType          `json:"type"`
	Prompt          string           `json:"prompt"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	ViewImages      *MultiViewImages `json:"viewImages,omitempty"`
	Provider        string           `json:"provider,omitempty"`
	Format          AssetFormat      `json:"format,omitempty"`
	TextureOptions  *TextureOptions  `json:"textureOptions,omitempty"`
	SkeletonOptions *SkeletonOptions `json:"skeletonOptions,omitempty"`
	CreatedAt       int64            `json:"createdAt"`
}

// EffectiveFormat returns the requested output format, defaulting to GLB.
func (j *JobRecord) EffectiveFormat() AssetFormat {
	if j.Format == FormatFBX {
		return FormatFBX
	}
	return FormatGLB
}

// ProviderResult is what one generation attempt produces: the stored
// artifact's identity and location, plus optional named texture map URLs.
type ProviderResult struct {
	AssetID       string            `json:"assetId"`
	AssetURL      string            `json:"assetUrl"`
	TextureMapIDs map[string]string `json:"textureMapIds,omitempty"`
	Format        AssetFormat       `json:"format,omitempty"`
}

// JobStatusView is the status projection answered to API consumers.
// AssetID and Error are null in JSON when absent.
type JobStatusView struct {
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
	AssetID *string   `json:"assetId"`
	Error   *string   `json:"error"`
}
