package skeleton

import (
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF adds one node per bone and a skin over them. Returns the skin
// index, or nil for an empty skeleton.
func (s *Skeleton) ExportGLTF(doc *gltf.Document) *uint32 {
	if len(s.Bones) == 0 {
		return nil
	}
	first := uint32(len(doc.Nodes))
	joints := make([]uint32, len(s.Bones))
	for i := range s.Bones {
		b := &s.Bones[i]
		joints[i] = first + uint32(i)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: b.Translation,
			Rotation:    b.Rotation.V.Vec4(b.Rotation.W),
		})
	}
	for i := range s.Bones {
		for _, child := range s.Children(i) {
			node := doc.Nodes[first+uint32(i)]
			node.Children = append(node.Children, first+uint32(child))
		}
	}

	world := s.WorldMatrices()
	inverse := make([][4][4]float32, len(world))
	for i, m := range world {
		inv := m.Inv()
		for c := 0; c < 4; c++ {
			inverse[i][c] = inv.Col(c)
		}
	}

	skin := &gltf.Skin{
		Name:                "skeleton",
		Joints:              joints,
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, inverse)),
	}
	if roots := s.Roots(); len(roots) != 0 {
		skin.Skeleton = gltf.Index(first + uint32(roots[0]))
	}
	doc.Skins = append(doc.Skins, skin)
	return gltf.Index(uint32(len(doc.Skins) - 1))
}
