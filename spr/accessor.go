package spr

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// ErrDisposed names the disposed-accessor condition. No Accessor method
// returns it: after Dispose, Has and Get report absence and the id
// iterator yields nothing.
var ErrDisposed = fmt.Errorf("spr: accessor disposed")

// Accessor owns a raw SPR byte buffer (optionally mmap'd) and an
// inlined address table computed up front, and hands out borrowed
// per-id slices without ever materialising every sprite. It is the
// lazy counterpart to Write/extract-all-at-once handling of a
// multi-hundred-megabyte SPR file.
type Accessor struct {
	buf       []byte
	mm        mmap.MMap // non-nil when backed by a memory-mapped file
	f         *os.File
	signature uint32
	count     uint32
	addresses []uint32
	disposed  bool
}

// NewAccessorFromBytes builds an accessor over a buffer the caller
// already has in memory (e.g. returned by the host's read_bytes).
func NewAccessorFromBytes(buf []byte, extended bool) (*Accessor, error) {
	hdr, err := readSPRHeader(buf, extended)
	if err != nil {
		return nil, err
	}
	return &Accessor{
		buf:       buf,
		signature: hdr.signature,
		count:     hdr.count,
		addresses: hdr.addresses,
	}, nil
}

// NewAccessorFromFile memory-maps path read-only and builds an accessor
// over it directly, avoiding a full read into the Go heap for files that
// can run into the hundreds of megabytes.
func NewAccessorFromFile(path string, extended bool) (*Accessor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	hdr, err := readSPRHeader(mm, extended)
	if err != nil {
		mm.Unmap()
		f.Close()
		return nil, err
	}
	return &Accessor{
		buf:       mm,
		mm:        mm,
		f:         f,
		signature: hdr.signature,
		count:     hdr.count,
		addresses: hdr.addresses,
	}, nil
}

// Signature returns the SPR file signature.
func (a *Accessor) Signature() uint32 { return a.signature }

// SpriteCount returns the declared sprite count from the header.
func (a *Accessor) SpriteCount() uint32 { return a.count }

// Has reports whether id has a non-empty slot. O(1).
func (a *Accessor) Has(id uint32) bool {
	if a.disposed || id == 0 || id >= uint32(len(a.addresses)) {
		return false
	}
	return a.addresses[id] != 0
}

// Get materialises exactly the one sprite body for id, as a slice
// borrowed from the underlying buffer. It returns (nil, false) for an
// empty slot, an out-of-range id, or a disposed accessor.
func (a *Accessor) Get(id uint32) ([]byte, bool) {
	if !a.Has(id) {
		return nil, false
	}
	body, err := spriteBodyBytes(a.buf, a.addresses[id])
	if err != nil {
		return nil, false
	}
	return body, true
}

// NonEmptyCount returns the number of ids with a non-empty slot.
func (a *Accessor) NonEmptyCount() uint32 {
	var n uint32
	for _, addr := range a.addresses {
		if addr != 0 {
			n++
		}
	}
	return n
}

// IDIterator walks non-empty sprite ids in ascending order without
// allocating a full slice up front.
type IDIterator struct {
	a   *Accessor
	cur uint32
}

// Ids returns a lazy, ascending iterator over every non-empty sprite id.
func (a *Accessor) Ids() *IDIterator {
	return &IDIterator{a: a, cur: 0}
}

// Next advances the iterator and returns the next non-empty id, or
// (0, false) once exhausted.
func (it *IDIterator) Next() (uint32, bool) {
	if it.a.disposed {
		return 0, false
	}
	for id := it.cur + 1; id < uint32(len(it.a.addresses)); id++ {
		if it.a.addresses[id] != 0 {
			it.cur = id
			return id, true
		}
	}
	it.cur = uint32(len(it.a.addresses))
	return 0, false
}

// ExtractAll materialises every non-empty sprite into an owned map, for
// operations that genuinely need all data at once (e.g. a sprite-sheet
// rewrite). Each slice is copied so it survives a later Dispose.
func (a *Accessor) ExtractAll() map[uint32][]byte {
	out := make(map[uint32][]byte, a.NonEmptyCount())
	it := a.Ids()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		body, _ := a.Get(id)
		owned := make([]byte, len(body))
		copy(owned, body)
		out[id] = owned
	}
	return out
}

// Dispose releases the underlying buffer and invalidates all future
// calls; Get returns (nil, false) and Has returns false afterwards, not
// an error.
func (a *Accessor) Dispose() error {
	if a.disposed {
		return nil
	}
	a.disposed = true
	a.buf = nil
	a.addresses = nil
	if a.mm != nil {
		if err := a.mm.Unmap(); err != nil {
			return err
		}
	}
	if a.f != nil {
		return a.f.Close()
	}
	return nil
}
