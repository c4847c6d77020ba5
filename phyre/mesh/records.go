package mesh

import (
	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/utils"
)

const (
	MeshRecordSize      = 56
	SegmentRecordSize   = 108
	DataBlockRecordSize = 64
	BoneRemapEntrySize  = 4
)

const (
	PrimitiveTriangleList  = 4
	PrimitiveTriangleStrip = 6
)

// PDataBlock kinds. The first two blocks of a segment are positions and
// normals regardless of kind.
const (
	StreamPosition          = 1
	StreamNormal            = 2
	StreamSkinIndices       = 4
	StreamUV                = 8
	StreamSkinWeights       = 16
	StreamPackedSkinWeights = 17
)

var StreamStride = map[int32]int{
	StreamPosition:          12,
	StreamNormal:            12,
	StreamSkinIndices:       4,
	StreamUV:                8,
	StreamSkinWeights:       16,
	StreamPackedSkinWeights: 4,
}

type MeshRecord struct {
	SegmentCount int32
	Unk04        int32
	MatrixOffset int32 // in PMatrix4 entries
	Unk0c        [3]int32
	BoneCount    int32
	Unk1c        [7]int32
}

func (r *MeshRecord) Segments() int { return int(r.SegmentCount & 0xFFFF) }
func (r *MeshRecord) Matrix() int   { return int(r.MatrixOffset & 0xFFFF) }
func (r *MeshRecord) Bones() int    { return int(r.BoneCount & 0xFFFF) }

type SegmentRecord struct {
	Unk00          int32
	Unk04          int32
	BoneRemapCount int32
	Unk0c          [7]int32
	StreamCount    int32
	PrimitiveType  int32
	Unk30          [2]int32
	IndexCount     int32
	Unk3c          [8]int32
	IndexOffset    int32 // relative to the shared region
	Unk60          [3]int32
}

func (r *SegmentRecord) Remaps() int  { return int(r.BoneRemapCount & 0xFFFF) }
func (r *SegmentRecord) Streams() int { return int(r.StreamCount & 0xFFFF) }

// Blocks is the number of PDataBlock records owned by the segment.
func (r *SegmentRecord) Blocks() int {
	if s := r.Streams(); s > 1 {
		return s
	}
	return 1
}

type DataBlockRecord struct {
	Kind         int32
	ElementCount int32
	Unk08        [10]int32
	DataOffset   int32 // relative to the vertex region
	Unk34        [3]int32
}

type BoneRemapEntry struct {
	Bone uint16
	Pad  uint16
}

// Skin is the PMesh instance data: mesh records and the bone parent table
// that follows them.
type Skin struct {
	Meshes  []MeshRecord
	Parents []int32
}

func (s *Skin) SegmentsCount() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].Segments()
	}
	return n
}

func (s *Skin) BonesCount() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].Bones()
	}
	return n
}

// MatrixSkip is the number of PMatrix4 entries before the first bone.
func (s *Skin) MatrixSkip() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].Matrix()
	}
	return n
}

func readRecords(bs *utils.BufStack, count int, size int, read func(raw []byte) error) error {
	if !bs.Fits(count * size) {
		bs.Skip(count * size)
		return bs.Err()
	}
	for i := 0; i < count; i++ {
		if err := read(bs.Read(size)); err != nil {
			return err
		}
	}
	return nil
}

func truncatedPayload(class string, bs *utils.BufStack, err error) error {
	e := &phyre.FormatError{Kind: phyre.TruncatedPayload, Class: class, Segment: -1, Offset: bs.AbsolutePos()}
	return e.WithCause(err)
}

// ReadSkin reads every PMesh instance.
func ReadSkin(idx *phyre.Index) (*Skin, error) {
	insts := idx.Lookup(phyre.ClassPMesh)
	if len(insts) == 0 {
		return nil, phyre.NewMissingClassError(phyre.ClassPMesh)
	}
	skin := &Skin{}
	for _, inst := range insts {
		bs := idx.Data(inst)
		records := make([]MeshRecord, 0, inst.RecordCount)
		if err := readRecords(bs, int(inst.RecordCount), MeshRecordSize, func(raw []byte) error {
			var r MeshRecord
			if err := utils.ReadBytes(&r, raw); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		}); err != nil {
			return nil, truncatedPayload(phyre.ClassPMesh, bs, err)
		}

		bones := 0
		for j := range records {
			bones += records[j].Bones()
		}
		parents := make([]int32, bones)
		for j := range parents {
			parents[j] = bs.ReadLI32()
		}
		if bs.Err() != nil {
			return nil, truncatedPayload(phyre.ClassPMesh, bs, bs.Err())
		}
		skin.Meshes = append(skin.Meshes, records...)
		skin.Parents = append(skin.Parents, parents...)
	}
	return skin, nil
}

func ReadSegments(idx *phyre.Index) ([]SegmentRecord, error) {
	insts := idx.Lookup(phyre.ClassPMeshSegment)
	if len(insts) == 0 {
		return nil, phyre.NewMissingClassError(phyre.ClassPMeshSegment)
	}
	segments := make([]SegmentRecord, 0)
	for _, inst := range insts {
		bs := idx.Data(inst)
		if err := readRecords(bs, int(inst.RecordCount), SegmentRecordSize, func(raw []byte) error {
			var r SegmentRecord
			if err := utils.ReadBytes(&r, raw); err != nil {
				return err
			}
			segments = append(segments, r)
			return nil
		}); err != nil {
			return nil, truncatedPayload(phyre.ClassPMeshSegment, bs, err)
		}
	}
	return segments, nil
}

func ReadDataBlocks(idx *phyre.Index) ([]DataBlockRecord, error) {
	insts := idx.Lookup(phyre.ClassPDataBlock)
	if len(insts) == 0 {
		return nil, phyre.NewMissingClassError(phyre.ClassPDataBlock)
	}
	blocks := make([]DataBlockRecord, 0)
	for _, inst := range insts {
		bs := idx.Data(inst)
		if err := readRecords(bs, int(inst.RecordCount), DataBlockRecordSize, func(raw []byte) error {
			var r DataBlockRecord
			if err := utils.ReadBytes(&r, raw); err != nil {
				return err
			}
			blocks = append(blocks, r)
			return nil
		}); err != nil {
			return nil, truncatedPayload(phyre.ClassPDataBlock, bs, err)
		}
	}
	return blocks, nil
}

// ReadBoneRemap reads every PSkinBoneRemap entry. The table is optional.
func ReadBoneRemap(idx *phyre.Index) ([]uint16, error) {
	remap := make([]uint16, 0)
	for _, inst := range idx.Lookup(phyre.ClassPSkinBoneRemap) {
		bs := idx.Data(inst)
		count := int(inst.ByteSize) / BoneRemapEntrySize
		for i := 0; i < count; i++ {
			remap = append(remap, bs.ReadLU16())
			bs.Skip(2)
		}
		if bs.Err() != nil {
			return remap, truncatedPayload(phyre.ClassPSkinBoneRemap, bs, bs.Err())
		}
	}
	return remap, nil
}
