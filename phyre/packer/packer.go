package packer

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

const (
	maxVertices        = mesh.RestartIndex
	maxSegmentBones    = 256
	vertexRegionAlign  = 16
	indexSegmentsAlign = 4
)

// declaration order of the classes; instances are written in another order
var classes = []struct {
	name  string
	props []string
}{
	{phyre.ClassPDataBlock, []string{"m_kind", "m_elementCount", "m_data"}},
	{phyre.ClassPMatrix4, []string{"m_elements"}},
	{phyre.ClassPMesh, []string{"m_segments", "m_matrices", "m_bones", "m_parents"}},
	{phyre.ClassPMeshSegment, []string{"m_boneRemap", "m_streams", "m_primitiveType", "m_indexCount", "m_indices"}},
	{phyre.ClassPSkinBoneRemap, []string{"m_bone"}},
	{phyre.ClassPNode, []string{"m_translation"}},
}

type encoder struct {
	log      *utils.Logger
	bones    int
	indices  bytes.Buffer
	vertices bytes.Buffer
	segments []mesh.SegmentRecord
	blocks   []mesh.DataBlockRecord
	remap    []mesh.BoneRemapEntry
}

func writeLE(w *bytes.Buffer, data interface{}) {
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		panic(err)
	}
}

func (e *encoder) addStream(kind int32, count int, data interface{}) {
	e.blocks = append(e.blocks, mesh.DataBlockRecord{
		Kind:         kind,
		ElementCount: int32(count),
		DataOffset:   int32(e.vertices.Len()),
	})
	writeLE(&e.vertices, data)
	e.vertices.Write(make([]byte, utils.Align(e.vertices.Len(), 4)-e.vertices.Len()))
}

func validate(i int, sm *mesh.Submesh, bones int) error {
	n := len(sm.Positions)
	if n == 0 {
		return errors.Errorf("submesh %d %q has no vertices", i, sm.Name)
	}
	if n >= maxVertices {
		return errors.Errorf("submesh %d %q has %d vertices, limit is %d", i, sm.Name, n, maxVertices-1)
	}
	if len(sm.Indexes)%3 != 0 {
		return errors.Errorf("submesh %d %q has %d indexes, not a triangle list", i, sm.Name, len(sm.Indexes))
	}
	for _, index := range sm.Indexes {
		if index < 0 || index >= n {
			return errors.Errorf("submesh %d %q references vertex %d of %d", i, sm.Name, index, n)
		}
	}
	for name, l := range map[string]int{"normals": len(sm.Normals), "uvs": len(sm.UVs), "weights": len(sm.Weights), "joints": len(sm.Joints)} {
		if l != 0 && l != n {
			return errors.Errorf("submesh %d %q has %d %s for %d vertices", i, sm.Name, l, name, n)
		}
	}
	if (sm.Weights == nil) != (sm.Joints == nil) {
		return errors.Errorf("submesh %d %q has only one of weights and joints", i, sm.Name)
	}
	for v, joints := range sm.Joints {
		for k, joint := range joints {
			if sm.Weights[v][k] > 0 && int(joint) >= bones {
				return errors.Errorf("submesh %d %q vertex %d uses bone %d, skeleton has %d", i, sm.Name, v, joint, bones)
			}
		}
	}
	return nil
}

func (e *encoder) addSubmesh(i int, sm *mesh.Submesh) error {
	if err := validate(i, sm, e.bones); err != nil {
		return err
	}

	strip, dropped := mesh.Stripify(sm.Indexes)
	if dropped != 0 {
		return errors.Errorf("submesh %d %q has %d degenerate triangles", i, sm.Name, dropped)
	}
	if len(strip) == 0 {
		return errors.Errorf("submesh %d %q has no triangles", i, sm.Name)
	}

	seg := mesh.SegmentRecord{
		PrimitiveType: mesh.PrimitiveTriangleStrip,
		IndexCount:    int32(len(strip)),
		IndexOffset:   int32(e.indices.Len()),
	}
	strip16 := make([]uint16, len(strip))
	for j, index := range strip {
		strip16[j] = uint16(index)
	}
	writeLE(&e.indices, strip16)
	e.indices.Write(make([]byte, utils.Align(e.indices.Len(), indexSegmentsAlign)-e.indices.Len()))

	n := len(sm.Positions)
	e.addStream(mesh.StreamPosition, n, sm.Positions)
	streams := 1

	if sm.Normals != nil || sm.UVs != nil || sm.Skinned() {
		normals := sm.Normals
		if normals == nil {
			normals = make([]mesh.Normal, n)
		}
		e.addStream(mesh.StreamNormal, n, normals)
		streams++
	}
	if sm.UVs != nil {
		e.addStream(mesh.StreamUV, n, sm.UVs)
		streams++
	}
	if sm.Skinned() {
		used := sm.UsedBones()
		if len(used) == 0 {
			// the reader drops skin streams without a remap table
			bone := sm.Joints[0][0]
			if int(bone) >= e.bones {
				bone = 0
			}
			used = []uint16{bone}
		}
		if len(used) > maxSegmentBones {
			return errors.Errorf("submesh %d %q uses %d bones, limit is %d", i, sm.Name, len(used), maxSegmentBones)
		}
		local := make(map[uint16]uint8, len(used))
		for j, bone := range used {
			local[bone] = uint8(j)
			e.remap = append(e.remap, mesh.BoneRemapEntry{Bone: bone})
		}
		seg.BoneRemapCount = int32(len(used))

		weights := make([][4]float32, n)
		channels := make([][4]uint8, n)
		for v := range sm.Weights {
			for k, w := range sm.Weights[v] {
				if w > 0 {
					weights[v][k] = w
					channels[v][k] = local[sm.Joints[v][k]]
				}
			}
		}
		e.addStream(mesh.StreamSkinWeights, n, weights)
		e.addStream(mesh.StreamSkinIndices, n, channels)
		streams += 2
	}
	seg.StreamCount = int32(streams)
	e.segments = append(e.segments, seg)
	e.log.Printf("submesh %d %q: %d vertices, %d triangles, strip of %d, %d streams",
		i, sm.Name, n, sm.TrianglesCount(), len(strip), streams)
	return nil
}

func boneMatrix(b *skeleton.Bone) [16]float32 {
	rows := utils.QuatToRotationRows(utils.EulerToQuat(b.Euler))
	var m [16]float32
	for r := 0; r < 3; r++ {
		copy(m[r*4:r*4+3], rows[r][:])
	}
	copy(m[12:15], b.Translation[:])
	m[15] = 1
	return m
}

// Encode writes submeshes and a skeleton as a container that Decode reads
// back to the same geometry and pose. skel may be nil for static meshes.
func Encode(submeshes []*mesh.Submesh, skel *skeleton.Skeleton, log *utils.Logger) ([]byte, error) {
	e := &encoder{log: log}
	if skel != nil {
		e.bones = len(skel.Bones)
	}
	if e.bones > math.MaxUint16 {
		return nil, errors.Errorf("%d bones do not fit", e.bones)
	}

	for i, sm := range submeshes {
		if err := e.addSubmesh(i, sm); err != nil {
			return nil, err
		}
	}

	var pmesh bytes.Buffer
	writeLE(&pmesh, mesh.MeshRecord{
		SegmentCount: int32(len(submeshes)),
		BoneCount:    int32(e.bones),
	})
	matrices := make([][16]float32, e.bones)
	for i := 0; i < e.bones; i++ {
		b := &skel.Bones[i]
		if b.ParentId < -1 || b.ParentId >= e.bones || b.ParentId == i {
			return nil, errors.Errorf("bone %d %q has parent %d", i, b.Name, b.ParentId)
		}
		writeLE(&pmesh, int32(b.ParentId))
		matrices[i] = boneMatrix(b)
	}

	ids := make(map[string]int32)
	bld := phyre.NewBuilder()
	for _, c := range classes {
		ids[c.name] = bld.AddClass(c.name, c.props...)
	}

	bld.AddInstance(ids[phyre.ClassPMesh], 1, pmesh.Bytes())
	bld.AddInstance(ids[phyre.ClassPMeshSegment], len(e.segments), utils.AsBytes(e.segments))
	bld.AddInstance(ids[phyre.ClassPDataBlock], len(e.blocks), utils.AsBytes(e.blocks))
	bld.AddInstance(ids[phyre.ClassPSkinBoneRemap], len(e.remap), utils.AsBytes(e.remap))
	bld.AddInstance(ids[phyre.ClassPNode], 1, make([]byte, 16))
	bld.AddInstance(ids[phyre.ClassPMatrix4], len(matrices), utils.AsBytes(matrices))

	vertexRegion := utils.Align(e.indices.Len(), vertexRegionAlign)
	shared := make([]byte, vertexRegion+e.vertices.Len())
	copy(shared, e.indices.Bytes())
	copy(shared[vertexRegion:], e.vertices.Bytes())
	bld.SetShared(vertexRegion, shared)

	log.Printf("%d segments, %d data blocks, %d remaps, %d bones, shared 0x%x bytes",
		len(e.segments), len(e.blocks), len(e.remap), e.bones, len(shared))
	return bld.Bytes()
}
