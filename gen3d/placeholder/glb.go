// Package placeholder synthesizes a minimal valid cube GLB as the
// last-resort artifact when no generation provider is usable. The output is
// a pure function of the job id: re-running a redelivered job produces
// byte-identical content, so uploads stay idempotent.
package placeholder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/meshforge/internal/storage"
	"github.com/BaSui01/meshforge/types"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkTypeJSON = 0x4E4F534A
	chunkTypeBIN  = 0x004E4942
)

// gltfDocument is the JSON chunk of the placeholder model: one scene, one
// node, one mesh with a single triangle primitive over the cube geometry.
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []gltfScene      `json:"scenes"`
	Nodes       []gltfNode       `json:"nodes"`
	Meshes      []gltfMesh       `json:"meshes"`
	Accessors   []gltfAccessor   `json:"accessors"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Buffers     []gltfBuffer     `json:"buffers"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Mesh int `json:"mesh"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Mode       int            `json:"mode"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float64 `json:"max,omitempty"`
	Min           []float64 `json:"min,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type gltfBuffer struct {
	ByteLength int `json:"byteLength"`
}

// cubeVertices are the 8 corners of a unit cube, front face first.
var cubeVertices = []float32{
	-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
	-1, -1, -1, -1, 1, -1, 1, 1, -1, 1, -1, -1,
}

// cubeIndices are the 36 indices forming the cube's 12 triangles.
var cubeIndices = []uint16{
	0, 1, 2, 0, 2, 3, // front
	3, 2, 6, 3, 6, 7, // top
	7, 6, 5, 7, 5, 4, // back
	4, 5, 1, 4, 1, 0, // bottom
	1, 5, 6, 1, 6, 2, // right
	4, 0, 3, 4, 3, 7, // left
}

// MinimalGLB builds the binary cube model: a 12-byte header, a 4-byte
// aligned JSON chunk and a BIN chunk with 96 bytes of float32 positions
// followed by 72 bytes of uint16 indices.
func MinimalGLB() []byte {
	const (
		vertexBytes = 96  // 8 vertices × 3 floats × 4 bytes
		indexBytes  = 72  // 36 indices × 2 bytes
		binLength   = 168 // already 4-byte aligned
	)

	doc := gltfDocument{
		Asset:  gltfAsset{Version: "2.0", Generator: "MeshForge"},
		Scene:  0,
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Mesh: 0}},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 0},
			Mode:       4, // TRIANGLES
		}}}},
		Accessors: []gltfAccessor{
			{
				BufferView:    0,
				ComponentType: 5126, // FLOAT
				Count:         8,
				Type:          "VEC3",
				Max:           []float64{1, 1, 1},
				Min:           []float64{-1, -1, -1},
			},
			{
				BufferView:    1,
				ComponentType: 5123, // UNSIGNED_SHORT
				Count:         36,
				Type:          "VEC3",
			},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: vertexBytes},
			{Buffer: 0, ByteOffset: vertexBytes, ByteLength: indexBytes},
		},
		Buffers: []gltfBuffer{{ByteLength: binLength}},
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		// The document is a fixed literal; marshalling cannot fail.
		panic(err)
	}
	jsonPadding := (4 - len(jsonBytes)%4) % 4
	paddedJSONLength := len(jsonBytes) + jsonPadding

	var bin bytes.Buffer
	bin.Grow(binLength)
	for _, v := range cubeVertices {
		_ = binary.Write(&bin, binary.LittleEndian, v)
	}
	for _, i := range cubeIndices {
		_ = binary.Write(&bin, binary.LittleEndian, i)
	}

	totalLength := 12 + 8 + paddedJSONLength + 8 + binLength

	var glb bytes.Buffer
	glb.Grow(totalLength)
	writeU32 := func(v uint32) {
		_ = binary.Write(&glb, binary.LittleEndian, v)
	}

	writeU32(glbMagic)
	writeU32(glbVersion)
	writeU32(uint32(totalLength))

	writeU32(uint32(paddedJSONLength))
	writeU32(chunkTypeJSON)
	glb.Write(jsonBytes)
	glb.Write(make([]byte, jsonPadding))

	writeU32(uint32(binLength))
	writeU32(chunkTypeBIN)
	glb.Write(bin.Bytes())

	return glb.Bytes()
}

// GenerateGLB produces the placeholder artifact for jobID and stores it
// through the same storage path real providers use. It needs no network and
// succeeds for any valid job id.
func GenerateGLB(ctx context.Context, jobID string, uploader storage.Uploader) (*types.ProviderResult, error) {
	assetID := fmt.Sprintf("asset-%s.glb", jobID)

	url, err := uploader.Upload(ctx, assetID, MinimalGLB(), "model/gltf-binary")
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to store placeholder artifact").WithCause(err)
	}

	return &types.ProviderResult{
		AssetID:  assetID,
		AssetURL: url,
		Format:   types.FormatGLB,
	}, nil
}
