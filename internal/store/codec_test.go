package store

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackerUnpacker_FieldOrder(t *testing.T) {
	p := NewPacker()
	p.PutString("/music/a.flac")
	p.PutStringArray([]string{"Björk", "Guy Sigsworth"})
	p.PutInt32(-3)
	p.PutInt64(1700000000)
	p.PutFloat64(-6.5)
	p.PutBool(true)
	p.PutBlob([]byte{0xff, 0xd8})
	p.PutBool(false)

	u := NewUnpacker(p.Bytes())
	assert.Equal(t, "/music/a.flac", u.ReadString())
	assert.Equal(t, []string{"Björk", "Guy Sigsworth"}, u.ReadStringArray())
	assert.Equal(t, int32(-3), u.ReadInt32())
	assert.Equal(t, int64(1700000000), u.ReadInt64())
	assert.InDelta(t, -6.5, u.ReadFloat64(), 0)
	assert.True(t, u.ReadBool())
	assert.Equal(t, []byte{0xff, 0xd8}, u.ReadBlob())
	assert.False(t, u.ReadBool())
	require.NoError(t, u.Err())
}

func TestUnpacker_EmptyValues(t *testing.T) {
	p := NewPacker()
	p.PutString("")
	p.PutStringArray(nil)
	p.PutBlob(nil)

	u := NewUnpacker(p.Bytes())
	assert.Empty(t, u.ReadString())
	assert.Nil(t, u.ReadStringArray())
	assert.Nil(t, u.ReadBlob())
	require.NoError(t, u.Err())
}

func TestUnpacker_SpecialFloats(t *testing.T) {
	p := NewPacker()
	p.PutFloat64(math.Inf(1))
	p.PutFloat64(math.NaN())

	u := NewUnpacker(p.Bytes())
	assert.True(t, math.IsInf(u.ReadFloat64(), 1))
	assert.True(t, math.IsNaN(u.ReadFloat64()))
}

func TestUnpacker_TruncatedIsSticky(t *testing.T) {
	p := NewPacker()
	p.PutString("hello")
	data := p.Bytes()[:6]

	u := NewUnpacker(data)
	assert.Empty(t, u.ReadString())
	assert.Zero(t, u.ReadInt32())
	assert.Nil(t, u.ReadStringArray())

	err := u.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortRecord))
}

func TestUnpacker_OversizedLength(t *testing.T) {
	u := NewUnpacker([]byte{0xff, 0xff, 0xff, 0xff})
	assert.Nil(t, u.ReadBlob())
	assert.Error(t, u.Err())
}

func TestUnpacker_BlobIsCopied(t *testing.T) {
	p := NewPacker()
	p.PutBlob([]byte{1, 2, 3})
	data := p.Bytes()

	blob := NewUnpacker(data).ReadBlob()
	data[4] = 9
	assert.Equal(t, []byte{1, 2, 3}, blob)
}
