package binstream

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Reader is a cursor-based little-endian reader over a borrowed byte
// slice. It never copies the underlying buffer; callers that need to
// retain bytes past the Reader's lifetime must copy them explicitly.
type Reader struct {
	buf    []byte
	cursor uint32
}

// NewReader wraps buf for reading. buf is borrowed, not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total buffer length.
func (r *Reader) Len() uint32 { return uint32(len(r.buf)) }

// Cursor returns the current read position.
func (r *Reader) Cursor() uint32 { return r.cursor }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() uint32 {
	if r.cursor > uint32(len(r.buf)) {
		return 0
	}
	return uint32(len(r.buf)) - r.cursor
}

// Seek sets the cursor to an absolute offset. It does not validate the
// offset against the buffer length; the next read will fail if it does.
func (r *Reader) Seek(offset uint32) { r.cursor = offset }

func (r *Reader) need(n uint32) error {
	if r.cursor > uint32(len(r.buf)) || n > uint32(len(r.buf))-r.cursor {
		return boundaryErr(r.cursor, n, uint32(len(r.buf)))
	}
	return nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.cursor]
	r.cursor++
	return v, nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.cursor:])
	r.cursor += 2
	return v, nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.cursor:])
	r.cursor += 4
	return v, nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// Bytes returns a borrowed slice of n bytes at the cursor and advances it.
func (r *Reader) Bytes(n uint32) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.cursor : r.cursor+n]
	r.cursor += n
	return b, nil
}

// Latin1String reads n bytes and decodes them as ISO-8859-1 (latin-1).
func (r *Reader) Latin1String(n uint32) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// LengthPrefixedString reads a u16 byte-length followed by that many
// UTF-8 bytes, as used for the OBD V1 category name.
func (r *Reader) LengthPrefixedString() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(uint32(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
