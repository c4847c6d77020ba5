package skeleton_test

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

type container struct {
	meshes   []mesh.MeshRecord
	parents  []int32
	root     mgl32.Vec3
	matrices [][16]float32
	omit     string
}

func (c *container) open(t *testing.T) *phyre.Index {
	bld := phyre.NewBuilder()
	if c.omit != phyre.ClassPMesh {
		var pmesh bytes.Buffer
		pmesh.Write(utils.AsBytes(c.meshes))
		pmesh.Write(utils.AsBytes(c.parents))
		bld.AddInstance(bld.AddClass(phyre.ClassPMesh), len(c.meshes), pmesh.Bytes())
	}
	if c.omit != phyre.ClassPNode {
		node := [4]float32{c.root[0], c.root[1], c.root[2], 1}
		bld.AddInstance(bld.AddClass(phyre.ClassPNode), 1, utils.AsBytes(node))
	}
	if c.omit != phyre.ClassPMatrix4 {
		var matrices bytes.Buffer
		for _, m := range c.matrices {
			matrices.Write(utils.AsBytes(m))
		}
		bld.AddInstance(bld.AddClass(phyre.ClassPMatrix4), len(c.matrices), matrices.Bytes())
	}
	raw, err := bld.Bytes()
	require.NoError(t, err)
	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	return idx
}

func matrix(euler, translation mgl32.Vec3) [16]float32 {
	rows := utils.QuatToRotationRows(utils.EulerToQuat(euler))
	var m [16]float32
	for r := 0; r < 3; r++ {
		copy(m[r*4:r*4+3], rows[r][:])
	}
	copy(m[12:15], translation[:])
	m[15] = 1
	return m
}

func TestDecodeRootTranslation(t *testing.T) {
	euler := mgl32.Vec3{10, 20, 30}
	c := &container{
		meshes:  []mesh.MeshRecord{{SegmentCount: 1, BoneCount: 2}},
		parents: []int32{-1, 0},
		root:    mgl32.Vec3{1, 2, 3},
		matrices: [][16]float32{
			matrix(euler, mgl32.Vec3{0.5, 0, 0}),
			matrix(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		},
	}

	skel, report, err := skeleton.Decode(c.open(t), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 2, report.Decoded["bones"])
	require.Len(t, skel.Bones, 2)

	root, child := skel.Bones[0], skel.Bones[1]
	assert.Equal(t, -1, root.ParentId)
	assert.Equal(t, 0, child.ParentId)
	assert.Equal(t, skeleton.BoneName(1), child.Name)
	assert.True(t, utils.NearVec3(mgl32.Vec3{1.5, 2, 3}, root.Translation, 1e-6), "%v", root.Translation)
	assert.True(t, utils.NearVec3(mgl32.Vec3{0, 1, 0}, child.Translation, 1e-6), "%v", child.Translation)
	assert.True(t, utils.NearVec3(euler, root.Euler, 1e-2), "%v", root.Euler)
	assert.True(t, utils.NearVec3(mgl32.Vec3{}, child.Euler, 1e-2), "%v", child.Euler)
}

func TestDecodeMatrixOffset(t *testing.T) {
	filler := matrix(mgl32.Vec3{}, mgl32.Vec3{99, 99, 99})
	c := &container{
		// offsets of every mesh record add up
		meshes: []mesh.MeshRecord{
			{SegmentCount: 1, MatrixOffset: 1, BoneCount: 1},
			{SegmentCount: 1, MatrixOffset: 2, BoneCount: 1},
		},
		parents: []int32{-1, 0},
		matrices: [][16]float32{
			filler, filler, filler,
			matrix(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}),
			matrix(mgl32.Vec3{}, mgl32.Vec3{2, 0, 0}),
		},
	}

	skel, report, err := skeleton.Decode(c.open(t), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	require.Len(t, skel.Bones, 2)
	assert.True(t, utils.NearVec3(mgl32.Vec3{1, 0, 0}, skel.Bones[0].Translation, 1e-6), "%v", skel.Bones[0].Translation)
	assert.True(t, utils.NearVec3(mgl32.Vec3{2, 0, 0}, skel.Bones[1].Translation, 1e-6), "%v", skel.Bones[1].Translation)
}

func TestDecodeTruncatedMatrices(t *testing.T) {
	c := &container{
		meshes:   []mesh.MeshRecord{{SegmentCount: 1, BoneCount: 3}},
		parents:  []int32{-1, 0, 1},
		matrices: [][16]float32{matrix(mgl32.Vec3{}, mgl32.Vec3{})},
	}

	skel, report, err := skeleton.Decode(c.open(t), nil)
	require.NoError(t, err)
	assert.Len(t, skel.Bones, 1)
	assert.Equal(t, 1, report.Decoded["bones"])
	assert.Equal(t, 2, report.Skipped["bones"])
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], &phyre.FormatError{Kind: phyre.TruncatedPayload, Class: phyre.ClassPMatrix4})
	assert.False(t, report.Clean())
}

func TestDecodeMissingClass(t *testing.T) {
	for _, class := range []string{phyre.ClassPMesh, phyre.ClassPNode, phyre.ClassPMatrix4} {
		t.Run(class, func(t *testing.T) {
			c := &container{
				meshes:   []mesh.MeshRecord{{SegmentCount: 1, BoneCount: 1}},
				parents:  []int32{-1},
				matrices: [][16]float32{matrix(mgl32.Vec3{}, mgl32.Vec3{})},
				omit:     class,
			}
			_, _, err := skeleton.Decode(c.open(t), nil)
			assert.ErrorIs(t, err, &phyre.FormatError{Kind: phyre.MissingClass, Class: class})
		})
	}
}
