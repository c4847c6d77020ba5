package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const MatrixSize = 64

type Bone struct {
	Id          int
	ParentId    int // -1 for roots
	Name        string
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Euler       mgl32.Vec3 // degrees, static xyz
}

type Skeleton struct {
	Bones []Bone
}

func BoneName(id int) string {
	return fmt.Sprintf("bone_%02X", id)
}

func (s *Skeleton) Children(id int) []int {
	children := make([]int, 0)
	for i := range s.Bones {
		if s.Bones[i].ParentId == id {
			children = append(children, i)
		}
	}
	return children
}

func (s *Skeleton) Roots() []int {
	return s.Children(-1)
}

func (b *Bone) LocalMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(b.Translation[0], b.Translation[1], b.Translation[2]).Mul4(b.Rotation.Mat4())
}

// WorldMatrices chains local transforms from the roots down.
func (s *Skeleton) WorldMatrices() []mgl32.Mat4 {
	world := make([]mgl32.Mat4, len(s.Bones))
	done := make([]bool, len(s.Bones))
	var resolve func(id int, depth int) mgl32.Mat4
	resolve = func(id int, depth int) mgl32.Mat4 {
		if done[id] {
			return world[id]
		}
		b := &s.Bones[id]
		m := b.LocalMatrix()
		// depth guards against parent loops in broken files
		if p := b.ParentId; p >= 0 && p < len(s.Bones) && depth < len(s.Bones) {
			m = resolve(p, depth+1).Mul4(m)
		}
		world[id] = m
		done[id] = true
		return m
	}
	for i := range s.Bones {
		resolve(i, 0)
	}
	return world
}
