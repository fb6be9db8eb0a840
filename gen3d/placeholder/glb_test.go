package placeholder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func u32(t *testing.T, b []byte, off int) uint32 {
	t.Helper()
	require.GreaterOrEqual(t, len(b), off+4)
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func TestMinimalGLB_Header(t *testing.T) {
	glb := MinimalGLB()

	require.GreaterOrEqual(t, len(glb), 12)
	assert.Equal(t, uint32(0x46546C67), u32(t, glb, 0), "magic must spell glTF")
	assert.Equal(t, uint32(2), u32(t, glb, 4))
	assert.Equal(t, uint32(len(glb)), u32(t, glb, 8), "declared length must match actual size")
}

func TestMinimalGLB_ChunkLayout(t *testing.T) {
	glb := MinimalGLB()

	jsonLength := u32(t, glb, 12)
	assert.Equal(t, uint32(0x4E4F534A), u32(t, glb, 16), "first chunk must be JSON")
	assert.Zero(t, jsonLength%4, "JSON chunk must be 4-byte aligned")

	binOffset := 20 + int(jsonLength)
	binLength := u32(t, glb, binOffset)
	assert.Equal(t, uint32(0x004E4942), u32(t, glb, binOffset+4), "second chunk must be BIN")
	assert.Equal(t, uint32(168), binLength, "96B positions + 72B indices")
	assert.Equal(t, binOffset+8+int(binLength), len(glb), "BIN chunk must end the file")
}

func TestMinimalGLB_GeometryChunk(t *testing.T) {
	glb := MinimalGLB()

	jsonLength := int(u32(t, glb, 12))
	bin := glb[20+jsonLength+8:]
	require.Len(t, bin, 168)

	positions := bin[:96]
	first := binary.LittleEndian.Uint32(positions[:4])
	// -1.0 as IEEE 754 float32.
	assert.Equal(t, uint32(0xBF800000), first)

	indices := bin[96:]
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(indices[:2]))
	last := binary.LittleEndian.Uint16(indices[70:72])
	assert.Equal(t, uint16(7), last)
}

func TestMinimalGLB_JSONChunkParses(t *testing.T) {
	glb := MinimalGLB()

	jsonLength := int(u32(t, glb, 12))
	raw := bytes.TrimRight(glb[20:20+jsonLength], "\x00")

	var doc struct {
		Asset struct {
			Version string `json:"version"`
		} `json:"asset"`
		Accessors []struct {
			Count int `json:"count"`
		} `json:"accessors"`
		Buffers []struct {
			ByteLength int `json:"byteLength"`
		} `json:"buffers"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2.0", doc.Asset.Version)
	require.Len(t, doc.Accessors, 2)
	assert.Equal(t, 8, doc.Accessors[0].Count)
	assert.Equal(t, 36, doc.Accessors[1].Count)
	require.Len(t, doc.Buffers, 1)
	assert.Equal(t, 168, doc.Buffers[0].ByteLength)
}

func TestMinimalGLB_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Repeated invocations must be byte-identical regardless of how many
		// times the generator has already run.
		n := rapid.IntRange(1, 8).Draw(t, "n")
		reference := MinimalGLB()
		for i := 0; i < n; i++ {
			if !bytes.Equal(reference, MinimalGLB()) {
				t.Fatalf("invocation %d produced different bytes", i)
			}
		}
	})
}

type captureUploader struct {
	assetID     string
	body        []byte
	contentType string
	err         error
}

func (c *captureUploader) Upload(_ context.Context, assetID string, body []byte, contentType string) (string, error) {
	c.assetID = assetID
	c.body = body
	c.contentType = contentType
	if c.err != nil {
		return "", c.err
	}
	return "/storage/" + assetID, nil
}

func TestGenerateGLB_UploadsAndReturnsResult(t *testing.T) {
	uploader := &captureUploader{}

	result, err := GenerateGLB(context.Background(), "job-42", uploader)
	require.NoError(t, err)

	assert.Equal(t, "asset-job-42.glb", result.AssetID)
	assert.Equal(t, "/storage/asset-job-42.glb", result.AssetURL)
	assert.Equal(t, "asset-job-42.glb", uploader.assetID)
	assert.Equal(t, "model/gltf-binary", uploader.contentType)
	assert.Equal(t, MinimalGLB(), uploader.body)
}

func TestGenerateGLB_UploadFailure(t *testing.T) {
	uploader := &captureUploader{err: errors.New("disk full")}

	_, err := GenerateGLB(context.Background(), "job-9", uploader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store placeholder artifact")
}
