package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/packer"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUnpackPackVerify(t *testing.T) {
	dir := t.TempDir()

	euler := mgl32.Vec3{15, -30, 45}
	skel := &skeleton.Skeleton{Bones: []skeleton.Bone{
		{Id: 0, ParentId: -1, Name: skeleton.BoneName(0), Rotation: mgl32.QuatIdent()},
		{Id: 1, ParentId: 0, Name: skeleton.BoneName(1), Translation: mgl32.Vec3{0, 1, 0}, Rotation: utils.EulerToQuat(euler), Euler: euler},
	}}
	sm := &mesh.Submesh{
		Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Normals:   []mesh.Normal{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       []mesh.UV{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Weights:   [][4]float32{{1}, {1}, {0.5, 0.5}, {1}},
		Joints:    [][4]uint16{{0}, {1}, {0, 1}, {1}},
		Indexes:   []int{0, 1, 2, 2, 1, 3},
	}
	raw, err := packer.Encode([]*mesh.Submesh{sm}, skel, nil)
	require.NoError(t, err)
	original := filepath.Join(dir, "model.phyre")
	require.NoError(t, os.WriteFile(original, raw, 0644))

	out := filepath.Join(dir, "out")
	_, err = execute(t, "unpack", original, "-o", out, "--gltf", "--obj", "--workers", "2")
	require.NoError(t, err)
	for _, ext := range []string{".smd", ".mesh.ascii", ".glb", ".obj"} {
		assert.FileExists(t, filepath.Join(out, "model"+ext))
	}

	packed := filepath.Join(dir, "packed.phyre")
	_, err = execute(t, "pack", filepath.Join(out, "model.smd"), filepath.Join(out, "model.mesh.ascii"), packed)
	require.NoError(t, err)

	_, err = execute(t, "verify", packed, original)
	assert.NoError(t, err)

	text, err := execute(t, "analyze", packed, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, text, "name: PMeshSegment")
	assert.Contains(t, text, "shared_base:")
}

func TestUnpackFatal(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.phyre")
	require.NoError(t, os.WriteFile(broken, []byte("RYHP"), 0644))
	_, err := execute(t, "unpack", broken)
	assert.Error(t, err)
}
