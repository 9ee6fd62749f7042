// Package binstream provides little-endian primitive reading and writing
// over in-memory byte buffers, plus latin-1 and length-prefixed UTF-8
// string helpers shared by the dat, spr and obd codecs.
package binstream

import (
	"errors"
	"fmt"
)

// ErrOutsideBoundary is returned when a read or seek would touch bytes
// outside the buffer.
var ErrOutsideBoundary = errors.New("binstream: reading or seeking outside buffer boundary")

// Error wraps ErrOutsideBoundary with the offset at which the violation
// was detected, for diagnostics.
type Error struct {
	Offset uint32
	Need   uint32
	Size   uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("binstream: offset %d needs %d bytes, buffer size is %d", e.Offset, e.Need, e.Size)
}

func (e *Error) Unwrap() error { return ErrOutsideBoundary }

func boundaryErr(offset, need, size uint32) error {
	return &Error{Offset: offset, Need: need, Size: size}
}
