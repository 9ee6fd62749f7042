// Package lzma wraps github.com/ulikunitz/xz/lzma to provide the
// LZMA-Alone stream container the OBD format wraps every packet in,
// matching the legacy reference tool's output byte-for-byte.
package lzma

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// DefaultLevel is the compression level used when the caller does not
// ask for a specific one, favouring speed over ratio as the legacy
// exporter does.
const DefaultLevel = 1

// Compress returns the LZMA-Alone encoding of data at the given level
// (1-9; values outside that range are clamped). Level only selects the
// dictionary size, not the wire format.
func Compress(data []byte, level int) ([]byte, error) {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}

	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		DictCap: dictCapForLevel(level),
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma: creating writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma: compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma: closing stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates an LZMA-Alone stream produced by Compress (or by
// the legacy reference tool).
func Decompress(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma: creating reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma: decompressing: %w", err)
	}
	return out, nil
}

func dictCapForLevel(level int) int {
	// Mirrors the coarse level->dictionary-size tiers of common LZMA
	// command-line tools; higher levels trade memory for ratio.
	switch {
	case level <= 1:
		return 1 << 16
	case level <= 3:
		return 1 << 20
	case level <= 6:
		return 1 << 22
	default:
		return 1 << 24
	}
}
