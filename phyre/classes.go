package phyre

const (
	ClassPDataBlock     = "PDataBlock"
	ClassPMatrix4       = "PMatrix4"
	ClassPMesh          = "PMesh"
	ClassPMeshSegment   = "PMeshSegment"
	ClassPSkinBoneRemap = "PSkinBoneRemap"
	ClassPNode          = "PNode"
)

const (
	ClassTableHeaderSize = 0x14
	ClassTableReserved   = 12
	ClassDefinitionSize  = 36
	StringEntrySize      = 24
	InstanceRecordSize   = 36
)

type ClassTableHeader struct {
	Unk00            int32
	Unk04            int32
	ExtraCount       int32
	ClassCount       int32
	StringEntryCount int32
}

type ClassDefinition struct {
	Unk00         int32
	Unk04         int32
	NameOffset    int32
	PropertyCount int32
	Unk10         [5]int32
}

type StringTableEntry struct {
	Offset int32
	Unk04  [5]int32
}

type InstanceRecord struct {
	ClassId        int32 // 1 based
	RecordCount    int32
	ByteSize       int32
	RelativeOffset int32
	Unk10          int32
	Unk14          [4]int32
}

type Class struct {
	Id         int
	Name       string
	Properties []string
	Definition ClassDefinition
}

type Instance struct {
	Index int
	InstanceRecord
	Class  string // empty when ClassId is out of range
	Offset int    // absolute offset of the instance data
}

func (i Instance) End() int {
	return i.Offset + int(i.ByteSize)
}
