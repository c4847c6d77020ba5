package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrOutOfBounds = errors.New("read out of bounds")

// BufStack is a read cursor over a region of a file. Regions form a tree
// (header, tables, instance data) so gaps and overlaps can be reported.
// Reads past the end never panic: the first failing read is remembered
// and every following read returns zeroes.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	limited        bool
	pos            int
	kind           string
	name           string
	err            error
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:     b,
		size:    len(b),
		limited: true,
		kind:    kind,
	}
}

// NewDetachedBufStack creates a region of whole that is not linked into any tree,
// so it can be used from several goroutines at once.
func NewDetachedBufStack(kind string, whole []byte, offset int) *BufStack {
	bs := &BufStack{kind: kind, absoluteOffset: offset, relativeOffset: offset}
	if offset < 0 || offset > len(whole) {
		bs.fail(0, 0)
		return bs
	}
	bs.buf = whole[offset:]
	return bs
}

func (bs *BufStack) addChild(childBs *BufStack) {
	if bs.childs == nil {
		bs.childs = make([]*BufStack, 1)
		bs.childs[0] = childBs
	} else {
		index := sort.Search(len(bs.childs), func(i int) bool {
			return bs.childs[i].relativeOffset > childBs.relativeOffset
		})
		bs.childs = append(bs.childs, childBs)
		copy(bs.childs[index+1:], bs.childs[index:])
		bs.childs[index] = childBs
	}
}

func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
	}
	if offset < 0 || offset > len(bs.buf) {
		childBs.fail(0, 0)
	} else {
		childBs.buf = bs.buf[offset:]
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

// SetSize limits the region, zero included. A size larger than the backing
// data marks the region as failed. Regions without SetSize run to the end of
// the backing data.
func (bs *BufStack) SetSize(size int) *BufStack {
	bs.size = size
	bs.limited = true
	if size < 0 || size > len(bs.buf) {
		bs.fail(0, size)
	}
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Size() int {
	return bs.size
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) Parent() *BufStack {
	return bs.parent
}

func (bs *BufStack) Childs() []*BufStack {
	return bs.childs
}

func (bs *BufStack) RelativeOffset() int {
	return bs.relativeOffset
}

func (bs *BufStack) AbsoluteOffset() int {
	return bs.absoluteOffset
}

func (bs *BufStack) AbsolutePos() int {
	return bs.absoluteOffset + bs.pos
}

func (bs *BufStack) Pos() int {
	return bs.pos
}

func (bs *BufStack) Err() error {
	return bs.err
}

func (bs *BufStack) Remaining() int {
	return bs.limit() - bs.pos
}

func (bs *BufStack) Fits(amount int) bool {
	return bs.err == nil && amount >= 0 && bs.pos+amount <= bs.limit()
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.String())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := strings.Repeat(".  ", pad)
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		s += child.stringTree(pad + 1)
		if child.limited {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 {
			end := child.relativeOffset + child.size
			if i == len(bs.childs)-1 {
				if bs.limited && end > bs.size {
					s += fmt.Sprintf("%s. [OVERGROW]\n", sPad)
				}
			} else if end > bs.childs[i+1].relativeOffset {
				s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
			}
		}
	}
	return s
}

func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) limit() int {
	if bs.limited && bs.size >= 0 && bs.size <= len(bs.buf) {
		return bs.size
	}
	return len(bs.buf)
}

func (bs *BufStack) fail(pos, amount int) {
	if bs.err == nil {
		bs.err = errors.Wrapf(ErrOutOfBounds, "reading 0x%x bytes at 0x%x of %s", amount, bs.absoluteOffset+pos, bs.StringChain())
	}
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.limit()]
}

// Read returns the next amount bytes, or zeroes after a bounds failure.
func (bs *BufStack) Read(amount int) []byte {
	if !bs.Fits(amount) {
		bs.fail(bs.pos, amount)
		if amount < 0 {
			amount = 0
		}
		return make([]byte, amount)
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) Skip(amount int) {
	if !bs.Fits(amount) {
		bs.fail(bs.pos, amount)
		return
	}
	bs.pos += amount
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLI32() int32 {
	return int32(bs.ReadLU32())
}

func (bs *BufStack) ReadLU16() uint16 {
	return binary.LittleEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadByte() byte {
	return bs.Read(1)[0]
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}

// ReadZString reads a zero terminated string of at most limit bytes.
// A missing terminator inside the region is a bounds failure.
func (bs *BufStack) ReadZString(limit int) string {
	if bs.err != nil {
		return ""
	}
	end := bs.limit()
	if limit > 0 && bs.pos+limit < end {
		end = bs.pos + limit
	}
	for i := bs.pos; i < end; i++ {
		if bs.buf[i] == 0 {
			s := BytesToString(bs.buf[bs.pos:i])
			bs.pos = i + 1
			return s
		}
	}
	if limit > 0 && end == bs.pos+limit {
		s := BytesToString(bs.buf[bs.pos:end])
		bs.pos = end
		return s
	}
	bs.fail(bs.pos, end-bs.pos+1)
	return ""
}

func (bs *BufStack) LU32(off int) uint32 {
	return binary.LittleEndian.Uint32(bs.buf[off:])
}

func (bs *BufStack) LF(off int) float32 {
	return math.Float32frombits(bs.LU32(off))
}
