package mesh

import (
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF appends one mesh node per submesh. Skinned submeshes are bound
// to skin when it is not nil.
func ExportGLTF(doc *gltf.Document, submeshes []*Submesh, skin *uint32) []uint32 {
	if len(doc.Materials) == 0 {
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        "default",
			DoubleSided: true,
		})
	}

	nodes := make([]uint32, 0, len(submeshes))
	for _, sm := range submeshes {
		verticesCount := len(sm.Positions)
		attributes := make(map[string]uint32)

		positions := make([][3]float32, verticesCount)
		for i, p := range sm.Positions {
			positions[i] = p
		}
		attributes["POSITION"] = modeler.WritePosition(doc, positions)

		if sm.Normals != nil {
			normals := make([][3]float32, verticesCount)
			for i, normal := range sm.Normals {
				if normal.Len() > 0.5 {
					normal = normal.Normalize()
				}
				normals[i] = normal
			}
			attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
		}

		if sm.UVs != nil {
			uvs := make([][2]float32, verticesCount)
			for i, uv := range sm.UVs {
				uvs[i] = uv
			}
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		}

		if skin != nil && sm.Skinned() {
			joints := make([][4]uint16, verticesCount)
			for i := range sm.Joints {
				joints[i] = sm.Joints[i]
				for k, weight := range sm.Weights[i] {
					if weight == 0 {
						joints[i][k] = 0
					}
				}
			}
			attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, sm.Weights)
		}

		indices := make([]uint32, len(sm.Indexes))
		for i, index := range sm.Indexes {
			indices[i] = uint32(index)
		}
		indicesAccessor := modeler.WriteIndices(doc, indices)

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: sm.Name,
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(indicesAccessor),
				Attributes: attributes,
				Material:   gltf.Index(0),
			}},
		})
		node := &gltf.Node{
			Name: sm.Name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		}
		if skin != nil && sm.Skinned() {
			node.Skin = gltf.Index(*skin)
		}
		doc.Nodes = append(doc.Nodes, node)
		nodes = append(nodes, uint32(len(doc.Nodes)-1))
	}
	return nodes
}
