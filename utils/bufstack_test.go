package utils

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufStackReads(t *testing.T) {
	bs := NewBufStack("file", []byte{
		0x78, 0x56, 0x34, 0x12,
		0x00, 0x00, 0x80, 0x3f,
		'a', 'b', 0, 'c',
	})
	assert.Equal(t, uint32(0x12345678), bs.ReadLU32())
	assert.Equal(t, float32(1), bs.ReadLF())
	assert.Equal(t, "ab", bs.ReadZString(0))
	assert.Equal(t, 1, bs.Remaining())
	assert.NoError(t, bs.Err())

	// no terminator before the end
	assert.Equal(t, "", bs.ReadZString(0))
	require.Error(t, bs.Err())
	assert.True(t, errors.Is(bs.Err(), ErrOutOfBounds))
}

func TestBufStackStickyError(t *testing.T) {
	bs := NewBufStack("file", make([]byte, 6))
	bs.Skip(4)
	assert.Equal(t, uint32(0), bs.ReadLU32())
	first := bs.Err()
	require.Error(t, first)
	assert.Contains(t, first.Error(), "0x4 bytes at 0x4")

	// later reads keep the first failure and still return zeroes
	assert.Equal(t, uint16(0), bs.ReadLU16())
	assert.Equal(t, first, bs.Err())
	assert.Equal(t, 4, bs.Pos())
}

func TestBufStackRegions(t *testing.T) {
	root := NewBufStack("file", make([]byte, 32))
	header := root.SubBuf("header", 0).SetSize(8)
	root.SubBuf("table", 12).SetSize(8)
	root.SubBuf("data", 16).SetSize(8)

	header.Skip(8)
	assert.False(t, header.Fits(1))
	assert.Equal(t, 0, header.Remaining())

	tree := root.StringTree()
	assert.Contains(t, tree, "gap [o:0x8,s:0x4")
	assert.Contains(t, tree, "[OVERLAP]")

	assert.Error(t, root.SubBuf("past", 40).Err())
	assert.Error(t, root.SubBuf("big", 30).SetSize(4).Err())
}

func TestDetachedBufStack(t *testing.T) {
	whole := []byte{0, 0, 0, 0, 1, 0, 0, 0}
	bs := NewDetachedBufStack("segment", whole, 4)
	assert.Equal(t, int32(1), bs.ReadLI32())
	assert.Equal(t, 8, bs.AbsolutePos())

	assert.Error(t, NewDetachedBufStack("segment", whole, 9).Err())
	assert.Error(t, NewDetachedBufStack("segment", whole, -1).Err())
}

func TestBufStackZeroSize(t *testing.T) {
	whole := []byte{1, 2, 3, 4}
	bs := NewDetachedBufStack("empty", whole, 0).SetSize(0)
	assert.Empty(t, bs.Raw())
	assert.Equal(t, 0, bs.Remaining())
	assert.Equal(t, uint32(0), bs.ReadLU32())
	assert.True(t, errors.Is(bs.Err(), ErrOutOfBounds))

	// without SetSize a region runs to the end of the data
	assert.Equal(t, 4, NewDetachedBufStack("open", whole, 0).Remaining())
}
