package mesh_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/packer"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

func quad(name string, skinned bool) *mesh.Submesh {
	sm := &mesh.Submesh{
		Name:      name,
		Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Indexes:   []int{0, 1, 2, 2, 1, 3},
	}
	if skinned {
		sm.Normals = make([]mesh.Normal, 4)
		sm.Weights = [][4]float32{{1}, {1}, {0.5, 0.5}, {1}}
		sm.Joints = [][4]uint16{{0}, {1}, {0, 1}, {1}}
	}
	return sm
}

func twoBones() *skeleton.Skeleton {
	return &skeleton.Skeleton{Bones: []skeleton.Bone{
		{Id: 0, ParentId: -1, Name: skeleton.BoneName(0)},
		{Id: 1, ParentId: 0, Name: skeleton.BoneName(1)},
	}}
}

func encode(t *testing.T, submeshes ...*mesh.Submesh) []byte {
	raw, err := packer.Encode(submeshes, twoBones(), nil)
	require.NoError(t, err)
	return raw
}

func TestDecodeSkipsTruncatedSegment(t *testing.T) {
	raw := encode(t, quad("skinned", true), quad("static", false))

	idx, err := phyre.Open(raw[:len(raw)-4], nil)
	require.NoError(t, err)

	var trace bytes.Buffer
	submeshes, report, err := mesh.Decode(idx, mesh.DecodeOptions{Log: utils.NewLogger(&trace)})
	require.NoError(t, err)
	require.Len(t, submeshes, 1)
	assert.Equal(t, "Submesh0", submeshes[0].Name)
	assert.Equal(t, 1, report.Decoded[phyre.ClassPMeshSegment])
	assert.Equal(t, 1, report.Skipped[phyre.ClassPMeshSegment])
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], phyre.ErrTruncatedPayload)
	assert.Contains(t, report.Summary(), "skipped: PMeshSegment=1")
	assert.Contains(t, trace.String(), "segment 1 skipped")
}

func TestDecodeDegenerateSegment(t *testing.T) {
	raw := encode(t, quad("a", false), quad("b", true))
	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)

	segments, err := mesh.ReadSegments(idx)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	// all indices of the first segment point at vertex 0
	start := idx.SharedBase + int(segments[0].IndexOffset)
	corrupted := append([]byte(nil), raw...)
	for i := 0; i < int(segments[0].IndexCount)*2; i++ {
		corrupted[start+i] = 0
	}

	idx, err = phyre.Open(corrupted, nil)
	require.NoError(t, err)
	submeshes, report, err := mesh.Decode(idx, mesh.DecodeOptions{Workers: 2})
	require.NoError(t, err)
	require.Len(t, submeshes, 1)
	assert.Equal(t, "Submesh1", submeshes[0].Name)
	assert.True(t, submeshes[0].Skinned())
	assert.Equal(t, []uint16{0, 1}, submeshes[0].BoneRemap)
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], phyre.ErrDegenerateGeometry)
}

func TestDecodeMissingClass(t *testing.T) {
	bld := phyre.NewBuilder()
	bld.AddInstance(bld.AddClass(phyre.ClassPMesh), 1, make([]byte, mesh.MeshRecordSize))
	raw, err := bld.Bytes()
	require.NoError(t, err)

	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	_, report, err := mesh.Decode(idx, mesh.DecodeOptions{})
	assert.ErrorIs(t, err, &phyre.FormatError{Kind: phyre.MissingClass, Class: phyre.ClassPMeshSegment})
	assert.NotNil(t, report)
}

func TestReadSkin(t *testing.T) {
	raw := encode(t, quad("a", true))
	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)

	skin, err := mesh.ReadSkin(idx)
	require.NoError(t, err)
	assert.Equal(t, 1, skin.SegmentsCount())
	assert.Equal(t, 2, skin.BonesCount())
	assert.Equal(t, []int32{-1, 0}, skin.Parents)
}

func TestReadSkinEmptyInstance(t *testing.T) {
	// a PMesh claiming one record with no bytes must not read into the next instance
	next := make([]byte, mesh.MeshRecordSize)
	next[0] = 7
	next[0x18] = 3

	bld := phyre.NewBuilder()
	bld.AddInstance(bld.AddClass(phyre.ClassPMesh), 1, nil)
	bld.AddInstance(bld.AddClass(phyre.ClassPNode), 1, next)
	raw, err := bld.Bytes()
	require.NoError(t, err)

	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	assert.Empty(t, idx.Data(idx.Instances[0]).Raw())

	_, err = mesh.ReadSkin(idx)
	assert.ErrorIs(t, err, phyre.ErrTruncatedPayload)
}

func TestExportObj(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, mesh.ExportObj(&out, []*mesh.Submesh{quad("a", false), quad("b", true)}))
	s := out.String()
	assert.Contains(t, s, "o a\n")
	assert.Contains(t, s, "f 1 2 3\n")
	assert.Contains(t, s, "f 5//1 6//2 7//3\n")
}
