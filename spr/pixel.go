// Package spr implements the SPR sprite file codec: the 32x32 ARGB tile
// RLE pixel codec (C3), the SPR file reader/writer (C4), and a lazy,
// mmap-backed accessor that indexes a multi-hundred-megabyte SPR buffer
// in place instead of materialising every sprite up front.
package spr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// TileBytes is the size in bytes of one decompressed 32x32 ARGB tile.
const TileBytes = 32 * 32 * 4

// TilePixels is the number of pixels in one tile.
const TilePixels = 32 * 32

// ErrWrongTileSize is returned when a caller passes a pixel buffer whose
// length is not exactly TileBytes.
var ErrWrongTileSize = errors.New("spr: tile must be exactly 4096 bytes")

// pixel layout within a tile: 4 bytes per pixel, ordered A, R, G, B.
const (
	offA = 0
	offR = 1
	offG = 2
	offB = 3
)

func isTransparent(p []byte) bool {
	return p[offA] == 0 && p[offR] == 0 && p[offG] == 0 && p[offB] == 0
}

// CompressPixels turns a decompressed 4096-byte ARGB tile into the
// game's RLE chunk stream. When transparency is true, each coloured
// pixel carries an explicit alpha byte; a fully transparent tile yields
// an empty byte slice.
func CompressPixels(tile []byte, transparency bool) ([]byte, error) {
	if len(tile) != TileBytes {
		return nil, fmt.Errorf("%w: got %d", ErrWrongTileSize, len(tile))
	}

	out := make([]byte, 0, TileBytes/4)
	i := 0
	for i < TilePixels {
		transparentCount := 0
		for i+transparentCount < TilePixels && isTransparent(tile[(i+transparentCount)*4:]) {
			transparentCount++
		}
		i += transparentCount
		if i >= TilePixels {
			break
		}

		colouredStart := i
		colouredCount := 0
		for i < TilePixels && !isTransparent(tile[i*4:]) {
			colouredCount++
			i++
		}

		var header [4]byte
		binary.LittleEndian.PutUint16(header[0:2], uint16(transparentCount))
		binary.LittleEndian.PutUint16(header[2:4], uint16(colouredCount))
		out = append(out, header[:]...)

		for p := colouredStart; p < colouredStart+colouredCount; p++ {
			px := tile[p*4:]
			out = append(out, px[offR], px[offG], px[offB])
			if transparency {
				out = append(out, px[offA])
			}
		}
	}

	if len(out) == 0 {
		return []byte{}, nil
	}
	return out, nil
}

// DecompressPixels turns an RLE chunk stream back into a 4096-byte ARGB
// tile. Missing trailing pixels are transparent. In opaque mode every
// coloured pixel's alpha is forced to 0xFF even though the stream
// carries no alpha byte for it.
func DecompressPixels(compressed []byte, transparency bool) []byte {
	tile := make([]byte, TileBytes)
	pos := 0
	i := 0

	for i < TilePixels && pos+4 <= len(compressed) {
		transparentCount := int(binary.LittleEndian.Uint16(compressed[pos : pos+2]))
		colouredCount := int(binary.LittleEndian.Uint16(compressed[pos+2 : pos+4]))
		pos += 4

		i += transparentCount
		if i > TilePixels {
			i = TilePixels
		}

		for c := 0; c < colouredCount && i < TilePixels; c++ {
			bytesPerPixel := 3
			if transparency {
				bytesPerPixel = 4
			}
			if pos+bytesPerPixel > len(compressed) {
				i = TilePixels
				break
			}
			px := tile[i*4:]
			px[offR] = compressed[pos]
			px[offG] = compressed[pos+1]
			px[offB] = compressed[pos+2]
			if transparency {
				px[offA] = compressed[pos+3]
			} else {
				px[offA] = 0xFF
			}
			pos += bytesPerPixel
			i++
		}
	}

	return tile
}

// rgbHashTransparentByte is substituted for every transparent channel
// in the RGB-hash projection so content hashes stay compatible with the
// legacy content-addressed sprite deduplicator.
const rgbHashTransparentByte = 0x11

// RGBHash projects a decompressed 4096-byte ARGB tile into a 3072-byte,
// 3-bytes-per-pixel view suitable for content hashing: every pixel that
// is fully transparent has all three channels replaced with the literal
// byte 0x11.
func RGBHash(tile []byte) ([]byte, error) {
	if len(tile) != TileBytes {
		return nil, fmt.Errorf("%w: got %d", ErrWrongTileSize, len(tile))
	}
	out := make([]byte, TilePixels*3)
	for p := 0; p < TilePixels; p++ {
		src := tile[p*4:]
		dst := out[p*3:]
		if isTransparent(src) {
			dst[0], dst[1], dst[2] = rgbHashTransparentByte, rgbHashTransparentByte, rgbHashTransparentByte
		} else {
			dst[0], dst[1], dst[2] = src[offR], src[offG], src[offB]
		}
	}
	return out, nil
}
