package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortRecord is returned when a record ends before all fields were read.
var ErrShortRecord = errors.New("store: record truncated")

// maxFieldLen bounds a single string or blob to keep corrupt records from
// triggering huge allocations.
const maxFieldLen = 64 << 20

// Packer serializes record fields in order. Integers are little endian,
// strings and blobs are prefixed with their uint32 length.
type Packer struct {
	buf []byte
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer {
	return &Packer{buf: make([]byte, 0, 128)}
}

func (p *Packer) PutBool(v bool) {
	if v {
		p.buf = append(p.buf, 1)
		return
	}
	p.buf = append(p.buf, 0)
}

func (p *Packer) PutInt32(v int32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(v))
}

func (p *Packer) PutInt64(v int64) {
	p.buf = binary.LittleEndian.AppendUint64(p.buf, uint64(v))
}

func (p *Packer) PutFloat64(v float64) {
	p.buf = binary.LittleEndian.AppendUint64(p.buf, math.Float64bits(v))
}

func (p *Packer) PutString(s string) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(s)))
	p.buf = append(p.buf, s...)
}

// PutStringArray writes the element count followed by each string.
func (p *Packer) PutStringArray(values []string) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(values)))
	for _, s := range values {
		p.PutString(s)
	}
}

// PutBlob writes opaque bytes such as image data. A nil blob and an empty blob
// both unpack as nil.
func (p *Packer) PutBlob(b []byte) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

// Bytes returns the packed record.
func (p *Packer) Bytes() []byte {
	return p.buf
}

// Unpacker reads fields in the order they were packed. The first failure is
// kept and every later read returns a zero value; check Err once at the end.
type Unpacker struct {
	data []byte
	pos  int
	err  error
}

// NewUnpacker wraps a packed record.
func NewUnpacker(data []byte) *Unpacker {
	return &Unpacker{data: data}
}

// Err returns the first decoding error, if any.
func (u *Unpacker) Err() error {
	return u.err
}

func (u *Unpacker) take(n int) []byte {
	if u.err != nil {
		return nil
	}
	if n < 0 || u.pos+n > len(u.data) {
		u.err = fmt.Errorf("%w at offset %d", ErrShortRecord, u.pos)
		return nil
	}
	b := u.data[u.pos : u.pos+n]
	u.pos += n
	return b
}

func (u *Unpacker) length() int {
	b := u.take(4)
	if b == nil {
		return 0
	}
	n := binary.LittleEndian.Uint32(b)
	if n > maxFieldLen {
		u.err = fmt.Errorf("store: field length %d exceeds limit", n)
		return 0
	}
	return int(n)
}

func (u *Unpacker) ReadBool() bool {
	b := u.take(1)
	return b != nil && b[0] != 0
}

func (u *Unpacker) ReadInt32() int32 {
	b := u.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (u *Unpacker) ReadInt64() int64 {
	b := u.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (u *Unpacker) ReadFloat64() float64 {
	b := u.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (u *Unpacker) ReadString() string {
	n := u.length()
	b := u.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (u *Unpacker) ReadStringArray() []string {
	n := u.length()
	if u.err != nil || n == 0 {
		return nil
	}
	values := make([]string, 0, min(n, 64))
	for range n {
		s := u.ReadString()
		if u.err != nil {
			return nil
		}
		values = append(values, s)
	}
	return values
}

func (u *Unpacker) ReadBlob() []byte {
	n := u.length()
	if n == 0 {
		return nil
	}
	b := u.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
