package spr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// magenta is the fixed RGB triple every sprite body is prefixed with on
// the wire. It is part of the format and must be written verbatim.
var magenta = [3]byte{0xFF, 0x00, 0xFF}

// MaxNonExtendedCount is the declared-count clamp applied in
// non-extended mode for compatibility with the legacy tool's writer.
const MaxNonExtendedCount = 0xFFFE

// ErrTruncated is returned when the buffer ends before a structure the
// reader expected to find there.
var ErrTruncated = errors.New("spr: truncated buffer")

// ErrTooManySprites is returned when a write is asked to declare a
// count that would not fit the wire format.
var ErrTooManySprites = errors.New("spr: too many sprites for a single SPR file")

// readHeader is the outcome of parsing an SPR buffer's header and
// address table, prior to constructing an Accessor over it.
type readHeader struct {
	signature uint32
	count     uint32
	addresses []uint32 // 1-based: addresses[0] is unused
}

func countFieldSize(extended bool) uint32 {
	if extended {
		return 4
	}
	return 2
}

func readSPRHeader(buf []byte, extended bool) (readHeader, error) {
	if len(buf) < 4 {
		return readHeader{}, fmt.Errorf("%w: missing signature", ErrTruncated)
	}
	signature := binary.LittleEndian.Uint32(buf[0:4])
	pos := uint32(4)

	var count uint32
	if extended {
		if uint32(len(buf)) < pos+4 {
			return readHeader{}, fmt.Errorf("%w: missing sprite count", ErrTruncated)
		}
		count = binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
	} else {
		if uint32(len(buf)) < pos+2 {
			return readHeader{}, fmt.Errorf("%w: missing sprite count", ErrTruncated)
		}
		count = uint32(binary.LittleEndian.Uint16(buf[pos:]))
		pos += 2
	}

	addresses := make([]uint32, count+1)
	tableBytes := count * 4
	if uint32(len(buf)) < pos+tableBytes {
		return readHeader{}, fmt.Errorf("%w: truncated address table", ErrTruncated)
	}
	for id := uint32(1); id <= count; id++ {
		addresses[id] = binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
	}

	return readHeader{signature: signature, count: count, addresses: addresses}, nil
}

// spriteBodyBytes returns the compressed pixel slice for a non-empty
// address, i.e. everything after the u16 length prefix that the address
// points at.
func spriteBodyBytes(buf []byte, address uint32) ([]byte, error) {
	if address == 0 {
		return nil, nil
	}
	if uint32(len(buf)) < address+2 {
		return nil, fmt.Errorf("%w: sprite length prefix out of range", ErrTruncated)
	}
	length := binary.LittleEndian.Uint16(buf[address:])
	start := address + 2
	end := start + uint32(length)
	if uint32(len(buf)) < end {
		return nil, fmt.Errorf("%w: sprite body out of range", ErrTruncated)
	}
	return buf[start:end], nil
}

// WriteEntry is one sprite handed to Write.
type WriteEntry struct {
	ID         uint32
	Compressed []byte
}

// Write serialises a sparse id->compressed-pixel mapping into a full SPR
// buffer. declaredCount is clamped to MaxNonExtendedCount in non-extended
// mode. Entries whose id exceeds the (possibly clamped) count, or whose
// bytes are empty, become empty slots.
func Write(signature uint32, declaredCount uint32, entries []WriteEntry, extended bool) ([]byte, error) {
	if !extended && declaredCount > MaxNonExtendedCount {
		declaredCount = MaxNonExtendedCount
	}

	byID := make(map[uint32][]byte, len(entries))
	for _, e := range entries {
		if e.ID == 0 || e.ID > declaredCount || len(e.Compressed) == 0 {
			continue
		}
		byID[e.ID] = e.Compressed
	}

	headerSize := 4 + countFieldSize(extended)
	tableSize := declaredCount * 4
	bodiesStart := headerSize + tableSize

	addresses := make([]uint32, declaredCount+1)
	offset := bodiesStart
	for id := uint32(1); id <= declaredCount; id++ {
		body, ok := byID[id]
		if !ok {
			continue
		}
		offset += 3 // magenta
		addresses[id] = offset
		offset += 2 + uint32(len(body))
	}

	out := make([]byte, offset)
	binary.LittleEndian.PutUint32(out[0:4], signature)
	pos := uint32(4)
	if extended {
		binary.LittleEndian.PutUint32(out[pos:], declaredCount)
		pos += 4
	} else {
		binary.LittleEndian.PutUint16(out[pos:], uint16(declaredCount))
		pos += 2
	}
	for id := uint32(1); id <= declaredCount; id++ {
		binary.LittleEndian.PutUint32(out[pos:], addresses[id])
		pos += 4
	}

	for id := uint32(1); id <= declaredCount; id++ {
		address := addresses[id]
		if address == 0 {
			continue
		}
		body := byID[id]
		copy(out[address-3:], magenta[:])
		binary.LittleEndian.PutUint16(out[address:], uint16(len(body)))
		copy(out[address+2:], body)
	}

	return out, nil
}
