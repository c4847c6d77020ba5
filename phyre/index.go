package phyre

import (
	"github.com/mogaika/phyre_browser/utils"
)

// Index is the class directory of a container. It is read once and is
// safe for concurrent readers afterwards.
type Index struct {
	Header    Header
	Table     ClassTableHeader
	Classes   []Class
	Instances []Instance
	Warnings  []error

	DataStart  int
	DataEnd    int
	SharedBase int

	raw     []byte
	root    *utils.BufStack
	byClass map[string][]int
}

func readStruct(bs *utils.BufStack, size int, out interface{}) {
	if err := utils.ReadBytes(out, bs.Read(size)); err != nil {
		panic(err)
	}
}

func truncated(bs *utils.BufStack, format string, a ...interface{}) error {
	e := NewError(TruncatedHeader, format, a...)
	e.Offset = bs.AbsolutePos()
	return e.WithCause(bs.Err())
}

// Open parses the header, class table, string table and instance table.
// Failures here are fatal; per instance problems end up in Warnings.
func Open(b []byte, log *utils.Logger) (*Index, error) {
	idx := &Index{
		raw:     b,
		root:    utils.NewBufStack("file", b),
		byClass: make(map[string][]int),
	}

	hbs := idx.root.SubBuf("header", 0).SetSize(HeaderSize)
	readStruct(hbs, HeaderSize, &idx.Header)
	if hbs.Err() != nil {
		return nil, truncated(hbs, "file is 0x%x bytes", len(b))
	}
	log.Printf("header: %+v", idx.Header)

	if err := idx.readClasses(log.Sub()); err != nil {
		return nil, err
	}
	if err := idx.readInstances(log.Sub()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) readClasses(log *utils.Logger) error {
	ctOffset := int(idx.Header.ClassTableOffset)
	bs := idx.root.SubBuf("class table", ctOffset)

	readStruct(bs, ClassTableHeaderSize, &idx.Table)
	if bs.Err() != nil {
		return truncated(bs, "class table header")
	}
	t := idx.Table
	if t.ExtraCount < 0 || t.ClassCount < 0 || t.StringEntryCount < 0 {
		return truncated(bs, "negative class table counts %+v", t)
	}
	bs.Skip(int(t.ExtraCount)*4 + ClassTableReserved)
	if !bs.Fits(int(t.ClassCount)*ClassDefinitionSize + int(t.StringEntryCount)*StringEntrySize) {
		return truncated(bs, "%d classes and %d strings do not fit", t.ClassCount, t.StringEntryCount)
	}

	idx.Classes = make([]Class, t.ClassCount)
	for i := range idx.Classes {
		idx.Classes[i].Id = i + 1
		readStruct(bs, ClassDefinitionSize, &idx.Classes[i].Definition)
	}
	bs.SetSize(bs.Pos())

	entriesOffset := ctOffset + bs.Pos()
	ebs := idx.root.SubBuf("string entries", entriesOffset).SetSize(int(t.StringEntryCount) * StringEntrySize)
	entries := make([]StringTableEntry, t.StringEntryCount)
	for i := range entries {
		readStruct(ebs, StringEntrySize, &entries[i])
	}
	stringBase := entriesOffset + ebs.Size()
	stringsEnd := stringBase

	readString := func(off int32, what string) (string, error) {
		sbs := utils.NewDetachedBufStack("string", idx.raw, stringBase+int(off))
		s := sbs.ReadZString(0)
		if sbs.Err() != nil {
			return "", truncated(sbs, "%s", what)
		}
		if end := sbs.AbsolutePos(); end > stringsEnd {
			stringsEnd = end
		}
		return s, nil
	}

	entry := 0
	for i := range idx.Classes {
		c := &idx.Classes[i]
		name, err := readString(c.Definition.NameOffset, "class name")
		if err != nil {
			return err
		}
		c.Name = name

		c.Properties = make([]string, 0, c.Definition.PropertyCount)
		for p := 0; p < int(c.Definition.PropertyCount); p++ {
			if entry >= len(entries) {
				return truncated(ebs, "class %q property %d has no string entry", name, p)
			}
			prop, err := readString(entries[entry].Offset, "property name")
			if err != nil {
				return err
			}
			entry++
			c.Properties = append(c.Properties, prop)
		}
		log.Printf("class %d %q: %v", c.Id, c.Name, c.Properties)
	}
	idx.root.SubBuf("strings", stringBase).SetSize(stringsEnd - stringBase)
	return nil
}

func (idx *Index) readInstances(log *utils.Logger) error {
	start := int(idx.Header.ClassTableOffset) + int(idx.Header.InstanceTableOffset)
	count := int(idx.Header.InstanceCount)

	bs := idx.root.SubBuf("instance table", start)
	if count < 0 || !bs.Fits(count*InstanceRecordSize) {
		return truncated(bs, "%d instance records", count)
	}
	bs.SetSize(count * InstanceRecordSize)

	idx.DataStart = start + count*InstanceRecordSize
	offset := idx.DataStart
	idx.Instances = make([]Instance, count)
	for i := range idx.Instances {
		inst := &idx.Instances[i]
		inst.Index = i
		readStruct(bs, InstanceRecordSize, &inst.InstanceRecord)
		if inst.ByteSize < 0 || inst.RecordCount < 0 {
			return truncated(bs, "instance %d has size %d and %d records", i, inst.ByteSize, inst.RecordCount)
		}
		inst.Offset = offset
		offset += int(inst.ByteSize)

		if classIdx := int(inst.ClassId) - 1; classIdx < 0 || classIdx >= len(idx.Classes) {
			w := NewError(InvalidClassId, "instance %d references class %d of %d", i, inst.ClassId, len(idx.Classes))
			idx.Warnings = append(idx.Warnings, w)
			log.Printf("instance %d: %v", i, w)
		} else {
			inst.Class = idx.Classes[classIdx].Name
			idx.byClass[inst.Class] = append(idx.byClass[inst.Class], i)
		}

		idx.root.SubBuf("instance", inst.Offset).SetName(inst.Class).SetSize(int(inst.ByteSize))
		log.Printf("instance %d %q: records %d size 0x%x at 0x%x", i, inst.Class, inst.RecordCount, inst.ByteSize, inst.Offset)
	}

	idx.DataEnd = offset
	idx.SharedBase = offset + idx.Header.SharedPrefixSize()
	log.Printf("data 0x%x..0x%x shared region at 0x%x", idx.DataStart, idx.DataEnd, idx.SharedBase)
	if idx.SharedBase < len(idx.raw) {
		idx.root.SubBuf("shared", idx.SharedBase).SetSize(len(idx.raw) - idx.SharedBase)
	}
	return nil
}

// Lookup returns every instance of a class in file order.
func (idx *Index) Lookup(class string) []Instance {
	ids := idx.byClass[class]
	result := make([]Instance, len(ids))
	for i, id := range ids {
		result[i] = idx.Instances[id]
	}
	return result
}

// First returns the first instance of a class or a MissingClass error.
func (idx *Index) First(class string) (Instance, error) {
	ids := idx.byClass[class]
	if len(ids) == 0 {
		return Instance{}, NewMissingClassError(class)
	}
	return idx.Instances[ids[0]], nil
}

func (idx *Index) Class(name string) (Class, bool) {
	for _, c := range idx.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// Data returns a private read cursor over the data of an instance.
func (idx *Index) Data(inst Instance) *utils.BufStack {
	return idx.Region(inst.Class, inst.Offset, int(inst.ByteSize))
}

// Region returns a private read cursor at an absolute offset, limited to
// exactly size bytes.
func (idx *Index) Region(kind string, offset int, size int) *utils.BufStack {
	bs := utils.NewDetachedBufStack(kind, idx.raw, offset)
	if bs.Err() == nil {
		bs.SetSize(size)
	}
	return bs
}

// Shared returns a cursor into the shared geometry region.
func (idx *Index) Shared(kind string, offset int, size int) *utils.BufStack {
	return idx.Region(kind, idx.SharedBase+offset, size)
}

func (idx *Index) Raw() []byte {
	return idx.raw
}

// Tree lists every region read from the file, with gaps and overlaps.
func (idx *Index) Tree() string {
	return idx.root.StringTree()
}
