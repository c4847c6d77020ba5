package textfmt

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
)

// vertexWeights keeps the four heaviest links and normalizes them.
// A vertex without links belongs to its parent bone.
func vertexWeights(v *SMDVertex) (joints [4]uint16, weights [4]float32) {
	ls := append([]Link(nil), v.Links...)
	if len(ls) == 0 {
		ls = []Link{{Bone: v.Bone, Weight: 1}}
	}
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Weight > ls[j].Weight })
	if len(ls) > 4 {
		ls = ls[:4]
	}

	var sum float32
	for _, l := range ls {
		sum += l.Weight
	}
	for k, l := range ls {
		joints[k] = uint16(l.Bone)
		if sum > 0 {
			weights[k] = l.Weight / sum
		}
	}
	return
}

func hasLinks(tris []SMDTriangle) bool {
	for _, tri := range tris {
		for _, v := range tri.Vertices {
			if len(v.Links) != 0 {
				return true
			}
		}
	}
	return false
}

// Assemble takes the skeleton from the smd and the geometry from the
// mesh.ascii. Skinning of submesh i comes from the smd triangles named
// TriangleMaterial(i), matched to the faces of the submesh in order.
func Assemble(smd *SMD, m *MeshASCII) ([]*mesh.Submesh, *skeleton.Skeleton, error) {
	skel := smd.Skeleton
	if skel == nil {
		skel = &skeleton.Skeleton{}
	}
	bones := len(skel.Bones)
	for i := range skel.Bones {
		if skel.Bones[i].Name == "" {
			skel.Bones[i].Name = skeleton.BoneName(i)
		}
	}

	groups := smd.ByMaterial()
	for i, sm := range m.Submeshes {
		tris, ok := groups[TriangleMaterial(i)]
		if !ok || !hasLinks(tris) {
			continue
		}
		if len(tris) != sm.TrianglesCount() {
			return nil, nil, errors.Errorf("submesh %d %q has %d faces, smd has %d triangles for it",
				i, sm.Name, sm.TrianglesCount(), len(tris))
		}

		n := len(sm.Positions)
		sm.Joints = make([][4]uint16, n)
		sm.Weights = make([][4]float32, n)
		assigned := make([]bool, n)
		for f, tri := range tris {
			for k := range tri.Vertices {
				v := &tri.Vertices[k]
				if v.Bone < 0 || v.Bone >= bones {
					return nil, nil, errors.Errorf("submesh %d triangle %d uses bone %d, skeleton has %d", i, f, v.Bone, bones)
				}
				for _, l := range v.Links {
					if l.Bone < 0 || l.Bone >= bones {
						return nil, nil, errors.Errorf("submesh %d triangle %d links bone %d, skeleton has %d", i, f, l.Bone, bones)
					}
				}
				index := sm.Indexes[f*3+k]
				if assigned[index] {
					continue
				}
				sm.Joints[index], sm.Weights[index] = vertexWeights(v)
				assigned[index] = true
			}
		}
	}

	for i, sm := range m.Submeshes {
		for v, joints := range sm.Joints {
			for k, joint := range joints {
				if sm.Weights[v][k] > 0 && int(joint) >= bones {
					return nil, nil, errors.Errorf("submesh %d vertex %d uses bone %d, skeleton has %d", i, v, joint, bones)
				}
			}
		}
	}
	return m.Submeshes, skel, nil
}
