package packer

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

func randomEuler(rnd *rand.Rand) mgl32.Vec3 {
	return mgl32.Vec3{
		rnd.Float32()*340 - 170,
		rnd.Float32()*160 - 80,
		rnd.Float32()*340 - 170,
	}
}

func testSkeleton(rnd *rand.Rand, bones int) *skeleton.Skeleton {
	s := &skeleton.Skeleton{}
	for i := 0; i < bones; i++ {
		parent := -1
		if i > 0 {
			parent = rnd.Intn(i)
		}
		euler := randomEuler(rnd)
		q := utils.EulerToQuat(euler)
		s.Bones = append(s.Bones, skeleton.Bone{
			Id:          i,
			ParentId:    parent,
			Name:        skeleton.BoneName(i),
			Translation: mgl32.Vec3{rnd.Float32() * 10, rnd.Float32() * 10, rnd.Float32()*10 - 5},
			Rotation:    q,
			Euler:       euler,
		})
	}
	return s
}

// testGrid builds a w x h quad grid, two triangles per quad
func testGrid(rnd *rand.Rand, name string, w, h int, bones int) *mesh.Submesh {
	sm := &mesh.Submesh{Name: name, Material: name + "_mat"}
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			sm.Positions = append(sm.Positions, mesh.Position{float32(x), float32(y), rnd.Float32()})
			sm.Normals = append(sm.Normals, mesh.Normal{0, 0, 1})
			sm.UVs = append(sm.UVs, mesh.UV{float32(x) / float32(w), float32(y) / float32(h)})
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := y*(w+1) + x
			b, c, d := a+1, a+w+1, a+w+2
			sm.Indexes = append(sm.Indexes, a, b, c, c, b, d)
		}
	}
	if bones > 0 {
		for range sm.Positions {
			j0, j1 := uint16(rnd.Intn(bones)), uint16(rnd.Intn(bones))
			w0 := rnd.Float32()
			sm.Joints = append(sm.Joints, [4]uint16{j0, j1})
			sm.Weights = append(sm.Weights, [4]float32{w0, 1 - w0})
		}
	}
	return sm
}

func rotateFaces(list []int) [][3]int {
	out := make([][3]int, 0, len(list)/3)
	for i := 0; i+2 < len(list); i += 3 {
		a, b, c := list[i], list[i+1], list[i+2]
		for a > b || a > c {
			a, b, c = b, c, a
		}
		out = append(out, [3]int{a, b, c})
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	names := utils.NewRandomNameGenerator(3)

	skel := testSkeleton(rnd, 12)
	submeshes := []*mesh.Submesh{
		testGrid(rnd, names.RandomName(), 4, 3, len(skel.Bones)),
		testGrid(rnd, names.RandomName(), 1, 1, 0),
		testGrid(rnd, names.RandomName(), 7, 2, len(skel.Bones)),
	}
	submeshes[1].UVs = nil
	submeshes[1].Normals = nil

	raw, err := Encode(submeshes, skel, nil)
	require.NoError(t, err)

	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	require.Empty(t, idx.Warnings)

	for _, workers := range []int{1, 4} {
		decoded, report, err := mesh.Decode(idx, mesh.DecodeOptions{Workers: workers})
		require.NoError(t, err)
		require.Empty(t, report.Warnings, utils.SDump(report.Warnings))
		require.Len(t, decoded, len(submeshes))
		assert.Equal(t, len(submeshes), report.Decoded[phyre.ClassPMeshSegment])

		for i, sm := range submeshes {
			got := decoded[i]
			assert.Equal(t, sm.Positions, got.Positions, "submesh %d", i)
			assert.Equal(t, sm.UVs, got.UVs, "submesh %d", i)
			assert.Equal(t, rotateFaces(sm.Indexes), rotateFaces(got.Indexes), "submesh %d", i)
			if sm.Normals != nil {
				assert.Equal(t, sm.Normals, got.Normals, "submesh %d", i)
			} else {
				assert.Nil(t, got.Normals)
			}
			require.Equal(t, sm.Skinned(), got.Skinned(), "submesh %d", i)
			for v := range sm.Weights {
				for k, w := range sm.Weights[v] {
					assert.Equal(t, w, got.Weights[v][k])
					if w > 0 {
						assert.Equal(t, sm.Joints[v][k], got.Joints[v][k], "submesh %d vertex %d", i, v)
					}
				}
			}
		}
	}

	gotSkel, report, err := skeleton.Decode(idx, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	require.Len(t, gotSkel.Bones, len(skel.Bones))
	for i, b := range skel.Bones {
		got := gotSkel.Bones[i]
		assert.Equal(t, b.ParentId, got.ParentId)
		assert.Equal(t, b.Name, got.Name)
		assert.True(t, utils.NearVec3(b.Translation, got.Translation, 1e-5), "bone %d %v %v", i, b.Translation, got.Translation)
		assert.True(t, utils.NearVec3(b.Euler, got.Euler, 1e-2), "bone %d euler %v %v", i, b.Euler, got.Euler)
	}
}

func TestEncodeStatic(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	raw, err := Encode([]*mesh.Submesh{testGrid(rnd, "static", 2, 2, 0)}, nil, nil)
	require.NoError(t, err)

	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	skel, _, err := skeleton.Decode(idx, nil)
	require.NoError(t, err)
	assert.Empty(t, skel.Bones)
}

func TestEncodeZeroWeightSkin(t *testing.T) {
	rnd := rand.New(rand.NewSource(6))
	sm := testGrid(rnd, "unweighted", 2, 2, 2)
	for v := range sm.Weights {
		sm.Weights[v] = [4]float32{}
	}
	require.True(t, sm.Skinned())
	require.Empty(t, sm.UsedBones())

	raw, err := Encode([]*mesh.Submesh{sm}, testSkeleton(rnd, 2), nil)
	require.NoError(t, err)
	idx, err := phyre.Open(raw, nil)
	require.NoError(t, err)
	submeshes, report, err := mesh.Decode(idx, mesh.DecodeOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	require.Len(t, submeshes, 1)
	assert.True(t, submeshes[0].Skinned())
	for v := range submeshes[0].Weights {
		assert.Equal(t, [4]float32{}, submeshes[0].Weights[v], "vertex %d", v)
	}
}

func TestEncodeRejects(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	skel := testSkeleton(rnd, 2)

	tooBig := &mesh.Submesh{Positions: make([]mesh.Position, mesh.RestartIndex), Indexes: []int{0, 1, 2}}
	badIndex := testGrid(rnd, "bad", 1, 1, 0)
	badIndex.Indexes[4] = 100
	badJoint := testGrid(rnd, "joint", 1, 1, 2)
	badJoint.Joints[0][0] = 9
	badJoint.Weights[0][0] = 1
	degenerate := testGrid(rnd, "degenerate", 1, 1, 0)
	degenerate.Indexes = []int{0, 0, 1}
	shortNormals := testGrid(rnd, "normals", 1, 1, 0)
	shortNormals.Normals = shortNormals.Normals[:1]

	for name, sm := range map[string]*mesh.Submesh{
		"vertex limit":  tooBig,
		"index range":   badIndex,
		"joint range":   badJoint,
		"degenerate":    degenerate,
		"short normals": shortNormals,
		"empty":         {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Encode([]*mesh.Submesh{sm}, skel, nil)
			assert.Error(t, err)
		})
	}
}
