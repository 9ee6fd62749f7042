package binstream

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Writer is a cursor-based little-endian writer with a geometrically
// growing backing array. The cursor can be set absolutely, which
// back-patches bytes already written -- used for the OBD V2/V3
// sprites-start placeholder.
type Writer struct {
	buf    []byte
	cursor uint32
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns an empty Writer with preallocated capacity.
func NewWriterSize(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written buffer. The slice is borrowed; callers must
// copy it if they intend to keep writing to this Writer afterwards.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the total number of bytes written so far.
func (w *Writer) Len() uint32 { return uint32(len(w.buf)) }

// Cursor returns the current write position.
func (w *Writer) Cursor() uint32 { return w.cursor }

// Seek moves the cursor to an absolute offset for back-patching. The
// offset must not exceed the current buffer length.
func (w *Writer) Seek(offset uint32) {
	if offset > uint32(len(w.buf)) {
		offset = uint32(len(w.buf))
	}
	w.cursor = offset
}

// SeekEnd moves the cursor back to the end of the written buffer, the
// usual position to resume appending after a back-patch.
func (w *Writer) SeekEnd() { w.cursor = uint32(len(w.buf)) }

// grow ensures the buffer has room for n more bytes starting at the
// cursor, doubling capacity as needed and extending length when writing
// past the current end.
func (w *Writer) grow(n uint32) {
	end := w.cursor + n
	if end <= uint32(len(w.buf)) {
		return
	}
	if end > uint32(cap(w.buf)) {
		newCap := uint32(cap(w.buf))
		if newCap == 0 {
			newCap = 64
		}
		for newCap < end {
			newCap *= 2
		}
		grown := make([]byte, len(w.buf), newCap)
		copy(grown, w.buf)
		w.buf = grown
	}
	w.buf = w.buf[:end]
}

func (w *Writer) writeAt(p []byte) {
	w.grow(uint32(len(p)))
	copy(w.buf[w.cursor:], p)
	w.cursor += uint32(len(p))
}

// U8 writes one unsigned byte.
func (w *Writer) U8(v uint8) { w.writeAt([]byte{v}) }

// I8 writes one signed byte.
func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.writeAt(b[:])
}

// I16 writes a little-endian int16.
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.writeAt(b[:])
}

// I32 writes a little-endian int32.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// WriteBytes writes a raw byte slice verbatim.
func (w *Writer) WriteBytes(p []byte) { w.writeAt(p) }

// Latin1String encodes s as ISO-8859-1 and writes it verbatim (no length
// prefix -- callers that need one write it themselves first).
func (w *Writer) Latin1String(s string) error {
	enc, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return err
	}
	w.writeAt([]byte(enc))
	return nil
}

// LengthPrefixedString writes a u16 byte-length followed by the UTF-8
// bytes of s.
func (w *Writer) LengthPrefixedString(s string) {
	w.U16(uint16(len(s)))
	w.writeAt([]byte(s))
}
