package asset

import (
	"fmt"
	"sort"

	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/utils"
)

// faceSet lists triangles as sorted vertex triples, so winding and
// rotation do not matter.
func faceSet(sm *mesh.Submesh) [][3]int {
	faces := make([][3]int, 0, sm.TrianglesCount())
	for i := 0; i+2 < len(sm.Indexes); i += 3 {
		f := [3]int{sm.Indexes[i], sm.Indexes[i+1], sm.Indexes[i+2]}
		sort.Ints(f[:])
		faces = append(faces, f)
	}
	sort.Slice(faces, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if faces[i][k] != faces[j][k] {
				return faces[i][k] < faces[j][k]
			}
		}
		return false
	})
	return faces
}

func compareSubmesh(i int, a, b *mesh.Submesh, tol float32) []string {
	var diffs []string
	if len(a.Positions) != len(b.Positions) {
		return append(diffs, fmt.Sprintf("submesh %d: %d vertices vs %d", i, len(a.Positions), len(b.Positions)))
	}
	for v := range a.Positions {
		if !utils.NearVec3(a.Positions[v], b.Positions[v], tol) {
			diffs = append(diffs, fmt.Sprintf("submesh %d vertex %d: %v vs %v", i, v, a.Positions[v], b.Positions[v]))
			break
		}
	}

	fa, fb := faceSet(a), faceSet(b)
	if len(fa) != len(fb) {
		diffs = append(diffs, fmt.Sprintf("submesh %d: %d triangles vs %d", i, len(fa), len(fb)))
	} else {
		for f := range fa {
			if fa[f] != fb[f] {
				diffs = append(diffs, fmt.Sprintf("submesh %d: triangle sets differ at %v vs %v", i, fa[f], fb[f]))
				break
			}
		}
	}
	if a.Skinned() != b.Skinned() {
		diffs = append(diffs, fmt.Sprintf("submesh %d: skinned %v vs %v", i, a.Skinned(), b.Skinned()))
	}
	return diffs
}

// Compare lists the logical differences between two assets: vertex
// positions, triangle sets and bone poses. Euler angles are compared in
// degrees with tol.
func Compare(a, b *Asset, tol float32) []string {
	var diffs []string
	if len(a.Submeshes) != len(b.Submeshes) {
		diffs = append(diffs, fmt.Sprintf("%d submeshes vs %d", len(a.Submeshes), len(b.Submeshes)))
	} else {
		for i := range a.Submeshes {
			diffs = append(diffs, compareSubmesh(i, a.Submeshes[i], b.Submeshes[i], tol)...)
		}
	}

	ab, bb := a.Skeleton.Bones, b.Skeleton.Bones
	if len(ab) != len(bb) {
		return append(diffs, fmt.Sprintf("%d bones vs %d", len(ab), len(bb)))
	}
	for i := range ab {
		x, y := &ab[i], &bb[i]
		if x.ParentId != y.ParentId {
			diffs = append(diffs, fmt.Sprintf("bone %d: parent %d vs %d", i, x.ParentId, y.ParentId))
		}
		if !utils.NearVec3(x.Translation, y.Translation, tol) {
			diffs = append(diffs, fmt.Sprintf("bone %d: translation %v vs %v", i, x.Translation, y.Translation))
		}
		// different euler triples may describe the same rotation
		if !utils.NearVec3(x.Euler, y.Euler, tol) && !utils.SameRotation(x.Rotation, y.Rotation, tol) {
			diffs = append(diffs, fmt.Sprintf("bone %d: rotation %v vs %v", i, x.Euler, y.Euler))
		}
	}
	return diffs
}
