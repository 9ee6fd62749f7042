package lzma

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tests := [][]byte{
		nil,
		[]byte{},
		[]byte("hello, world"),
		bytes.Repeat([]byte{0x42}, 4096),
	}

	for i, data := range tests {
		compressed, err := Compress(data, DefaultLevel)
		if err != nil {
			t.Fatalf("case %d: Compress: %v", i, err)
		}
		got, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("case %d: Decompress: %v", i, err)
		}
		if !bytes.Equal(got, data) && !(len(got) == 0 && len(data) == 0) {
			t.Fatalf("case %d: round trip mismatch: got %v want %v", i, got, data)
		}
	}
}
