package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Position = mgl32.Vec3
type Normal = mgl32.Vec3
type UV = mgl32.Vec2

// Submesh is one decoded PMeshSegment. Optional streams are nil when the
// segment does not carry them; present streams have one entry per position.
type Submesh struct {
	Name     string
	Material string

	Positions []Position
	Normals   []Normal
	UVs       []UV
	Weights   [][4]float32
	Joints    [][4]uint16 // skeleton bone ids, already remapped
	Indexes   []int       // triangle list

	BoneRemap []uint16
}

func SubmeshName(i int) string {
	return fmt.Sprintf("Submesh%d", i)
}

func MaterialName(i int) string {
	return fmt.Sprintf("material_%d", i)
}

func (s *Submesh) Skinned() bool {
	return s.Weights != nil && s.Joints != nil
}

func (s *Submesh) TrianglesCount() int {
	return len(s.Indexes) / 3
}

// UsedBones lists the skeleton bones with a non zero weight, ascending.
func (s *Submesh) UsedBones() []uint16 {
	if !s.Skinned() {
		return nil
	}
	used := make(map[uint16]bool)
	for v, w := range s.Weights {
		for k := range w {
			if w[k] > 0 {
				used[s.Joints[v][k]] = true
			}
		}
	}
	bones := make([]uint16, 0, len(used))
	for b := 0; b <= 0xFFFF && len(bones) < len(used); b++ {
		if used[uint16(b)] {
			bones = append(bones, uint16(b))
		}
	}
	return bones
}
