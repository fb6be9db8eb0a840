package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config carries the environment-driven S3 settings. Missing bucket or
// credentials means S3 is not configured and the local fallback is used.
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// Configured reports whether the config is complete enough to build a client.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// S3Uploader stores artifacts under assets/<assetID> in one bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Uploader builds an uploader from cfg. Returns an error when the
// config is incomplete.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Uploader, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("s3 storage is not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With(zap.String("component", "storage.s3")),
	}, nil
}

// Upload puts body at assets/<assetID> and returns the s3:// object URL.
func (u *S3Uploader) Upload(ctx context.Context, assetID string, body []byte, contentType string) (string, error) {
	key := "assets/" + assetID
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed for %s: %w", key, err)
	}
	u.logger.Debug("artifact uploaded to s3",
		zap.String("asset_id", assetID),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
