package phyre

const (
	HeaderSize = 0x4C
	Magic      = 0x50485952 // "RYHP"
)

// Header is the fixed 19 word file header. Unk fields are carried untouched.
type Header struct {
	Magic               int32
	ClassTableOffset    int32
	InstanceTableOffset int32 // relative to ClassTableOffset
	Unk0c               int32
	InstanceCount       int32
	SharedSize14        int32
	Unk18               int32
	SharedSize1c        int32
	Unk20               int32
	SharedSize24        int32
	Unk28               int32
	Unk2c               int32
	Records12Count      int32
	SharedSize34        int32
	Unk38               int32
	Records4Count       int32
	Records16Count      int32
	Unk44               int32
	VertexRegionOffset  int32 // vertex streams, relative to the shared region
}

// SharedPrefixSize is the amount of data between the end of the instance
// data and the shared geometry region.
func (h *Header) SharedPrefixSize() int {
	return int(h.SharedSize34) + int(h.SharedSize14) + int(h.SharedSize1c) +
		int(h.Records12Count)*12 + int(h.Records4Count)*4 + int(h.Records16Count)*16 +
		int(h.SharedSize24)
}
