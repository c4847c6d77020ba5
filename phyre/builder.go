package phyre

import (
	"bytes"

	"github.com/mogaika/phyre_browser/utils"
	"github.com/pkg/errors"
)

type builderClass struct {
	name  string
	props []string
}

type builderInstance struct {
	classId     int32
	recordCount int32
	data        []byte
}

// Builder lays out a container that Open reads back. Instance sizes always
// equal the length of the supplied data.
type Builder struct {
	classes            []builderClass
	instances          []builderInstance
	vertexRegionOffset int32
	shared             []byte
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddClass declares a class and returns its 1 based id.
func (b *Builder) AddClass(name string, props ...string) int32 {
	b.classes = append(b.classes, builderClass{name: name, props: props})
	return int32(len(b.classes))
}

func (b *Builder) AddInstance(classId int32, recordCount int, data []byte) {
	b.instances = append(b.instances, builderInstance{
		classId:     classId,
		recordCount: int32(recordCount),
		data:        data,
	})
}

// SetShared sets the geometry region placed after the instance data.
// Vertex streams start at vertexRegionOffset inside it.
func (b *Builder) SetShared(vertexRegionOffset int, shared []byte) {
	b.vertexRegionOffset = int32(vertexRegionOffset)
	b.shared = shared
}

func (b *Builder) Bytes() ([]byte, error) {
	// property strings are consumed in class order, class names follow them
	var strs bytes.Buffer
	var propEntries, nameEntries []StringTableEntry
	defs := make([]ClassDefinition, len(b.classes))

	addString := func(s string) (int32, error) {
		off := int32(strs.Len())
		raw, err := utils.StringToBytes(s, true)
		if err != nil {
			return 0, err
		}
		strs.Write(raw)
		return off, nil
	}

	for i, c := range b.classes {
		off, err := addString(c.name)
		if err != nil {
			return nil, errors.Wrapf(err, "class %d", i)
		}
		defs[i].NameOffset = off
		defs[i].PropertyCount = int32(len(c.props))
		nameEntries = append(nameEntries, StringTableEntry{Offset: off})
		for _, p := range c.props {
			off, err := addString(p)
			if err != nil {
				return nil, errors.Wrapf(err, "class %q", c.name)
			}
			propEntries = append(propEntries, StringTableEntry{Offset: off})
		}
	}
	entries := append(propEntries, nameEntries...)

	h := Header{
		Magic:              Magic,
		ClassTableOffset:   HeaderSize,
		InstanceCount:      int32(len(b.instances)),
		VertexRegionOffset: b.vertexRegionOffset,
	}

	var body bytes.Buffer
	body.Write(utils.AsBytes(ClassTableHeader{
		ClassCount:       int32(len(b.classes)),
		StringEntryCount: int32(len(entries)),
	}))
	body.Write(make([]byte, ClassTableReserved))
	body.Write(utils.AsBytes(defs))
	body.Write(utils.AsBytes(entries))
	body.Write(strs.Bytes())
	body.Write(make([]byte, utils.Align(HeaderSize+body.Len(), 4)-HeaderSize-body.Len()))
	h.InstanceTableOffset = int32(body.Len())

	relative := int32(0)
	for _, inst := range b.instances {
		body.Write(utils.AsBytes(InstanceRecord{
			ClassId:        inst.classId,
			RecordCount:    inst.recordCount,
			ByteSize:       int32(len(inst.data)),
			RelativeOffset: relative,
		}))
		relative += int32(len(inst.data))
	}
	for _, inst := range b.instances {
		body.Write(inst.data)
	}
	body.Write(b.shared)

	var out bytes.Buffer
	out.Grow(HeaderSize + body.Len())
	out.Write(utils.AsBytes(h))
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
