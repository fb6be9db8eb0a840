package hunyuan

import "time"

// Mode 选择混元生成档位.
type Mode string

const (
	ModeRapid Mode = "rapid"
	ModePro   Mode = "pro"
)

// ImageInputMode 控制单图任务的源图提交方式.
type ImageInputMode string

const (
	// ImageInputAuto submits the URL first and falls back to base64 once
	// when the service cannot download it.
	ImageInputAuto   ImageInputMode = "auto"
	ImageInputURL    ImageInputMode = "url"
	ImageInputBase64 ImageInputMode = "base64"
)

const (
	defaultHost               = "ai3d.tencentcloudapi.com"
	defaultService            = "ai3d"
	defaultVersion            = "2025-05-13"
	defaultRegion             = "ap-guangzhou"
	defaultModel              = "3.0"
	defaultResultFormat       = "GLB"
	defaultPollInterval       = 3 * time.Second
	defaultMaxPollAttempts    = 200 // ~10 minutes at 3s
	defaultMaxInputImageBytes = 6 * 1024 * 1024
)

// Config 混元适配器配置.
type Config struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Mode      Mode   `yaml:"mode"`

	Model          string `yaml:"model"`
	ResultFormat   string `yaml:"result_format"`
	EnablePBR      *bool  `yaml:"enable_pbr"`
	EnableGeometry *bool  `yaml:"enable_geometry"`
	FaceCount      *int   `yaml:"face_count"`
	GenerateType   string `yaml:"generate_type"`
	PolygonType    string `yaml:"polygon_type"`

	PollInterval       time.Duration  `yaml:"poll_interval"`
	MaxPollAttempts    int            `yaml:"max_poll_attempts"`
	ImageInputMode     ImageInputMode `yaml:"image_input_mode"`
	MaxInputImageBytes int64          `yaml:"max_input_image_bytes"`

	// Endpoint overrides the signed API URL, used by tests. Host stays in
	// the signature, so overriding one without the other breaks signing
	// only against the real service.
	Host     string `yaml:"host"`
	Endpoint string `yaml:"-"`
}

// Configured 报告凭证是否齐备.
func (c Config) Configured() bool {
	return c.SecretID != "" && c.SecretKey != ""
}

// withDefaults 填充未设置字段的默认值.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Endpoint == "" {
		c.Endpoint = "https://" + c.Host + "/"
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.Mode != ModePro {
		c.Mode = ModeRapid
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.ResultFormat == "" {
		c.ResultFormat = defaultResultFormat
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = defaultMaxPollAttempts
	}
	switch c.ImageInputMode {
	case ImageInputURL, ImageInputBase64:
	default:
		c.ImageInputMode = ImageInputAuto
	}
	if c.MaxInputImageBytes <= 0 {
		c.MaxInputImageBytes = defaultMaxInputImageBytes
	}
	return c
}
