package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalUploader_WritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, zap.NewNop())

	url, err := u.Upload(context.Background(), "asset-job-1.glb", []byte("glTF-bytes"), "model/gltf-binary")
	require.NoError(t, err)
	assert.Equal(t, "/storage/asset-job-1.glb", url)

	data, err := os.ReadFile(filepath.Join(dir, "asset-job-1.glb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("glTF-bytes"), data)
}

func TestLocalUploader_IdempotentOverwrite(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, zap.NewNop())

	_, err := u.Upload(context.Background(), "asset-x.glb", []byte("first"), "model/gltf-binary")
	require.NoError(t, err)
	url, err := u.Upload(context.Background(), "asset-x.glb", []byte("second"), "model/gltf-binary")
	require.NoError(t, err)
	assert.Equal(t, "/storage/asset-x.glb", url)

	data, err := os.ReadFile(filepath.Join(dir, "asset-x.glb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestLocalUploader_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	u := NewLocalUploader(dir, zap.NewNop())

	_, err := u.Upload(context.Background(), "asset-y.fbx", []byte{0x01}, "application/octet-stream")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "asset-y.fbx"))
}

func TestS3Config_Configured(t *testing.T) {
	assert.False(t, S3Config{}.Configured())
	assert.False(t, S3Config{Bucket: "b"}.Configured())
	assert.True(t, S3Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}.Configured())
}
