package spr

import (
	"bytes"
	"testing"
)

func solidTile(a, r, g, b byte, n int) []byte {
	tile := make([]byte, TileBytes)
	for i := 0; i < n; i++ {
		tile[i*4+offA] = a
		tile[i*4+offR] = r
		tile[i*4+offG] = g
		tile[i*4+offB] = b
	}
	return tile
}

func TestFullyTransparentTileCompressesEmpty(t *testing.T) {
	tile := make([]byte, TileBytes)
	compressed, err := CompressPixels(tile, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) != 0 {
		t.Fatalf("expected empty compressed output, got %d bytes", len(compressed))
	}
	decompressed := DecompressPixels(compressed, true)
	if !bytes.Equal(decompressed, tile) {
		t.Fatal("decompressing empty stream did not yield an all-zero tile")
	}
}

func TestPixelRoundTripTransparent(t *testing.T) {
	tile := solidTile(0xAA, 10, 20, 30, 100)
	compressed, err := CompressPixels(tile, true)
	if err != nil {
		t.Fatal(err)
	}
	got := DecompressPixels(compressed, true)
	if !bytes.Equal(got, tile) {
		t.Fatalf("round trip mismatch in transparent mode")
	}
}

func TestPixelRoundTripOpaqueForcesAlpha(t *testing.T) {
	tile := solidTile(0x00, 10, 20, 30, 100) // alpha 0 but coloured -> not transparent
	compressed, err := CompressPixels(tile, false)
	if err != nil {
		t.Fatal(err)
	}
	got := DecompressPixels(compressed, false)
	want := solidTile(0xFF, 10, 20, 30, 100)
	if !bytes.Equal(got, want) {
		t.Fatalf("opaque decompress did not force alpha to 0xFF")
	}
}

func TestWrongTileSizeRejected(t *testing.T) {
	if _, err := CompressPixels(make([]byte, 10), true); err == nil {
		t.Fatal("expected error for wrong tile size")
	}
	if _, err := RGBHash(make([]byte, 10)); err == nil {
		t.Fatal("expected error for wrong tile size")
	}
}

func TestRGBHashSubstitutesTransparentBytes(t *testing.T) {
	tile := make([]byte, TileBytes)
	tile[0*4+offR] = 5
	tile[0*4+offG] = 6
	tile[0*4+offB] = 7
	tile[0*4+offA] = 9 // coloured

	hash, err := RGBHash(tile)
	if err != nil {
		t.Fatal(err)
	}
	if hash[0] != 5 || hash[1] != 6 || hash[2] != 7 {
		t.Fatalf("coloured pixel hash wrong: %v", hash[:3])
	}
	// pixel 1 is fully transparent.
	if hash[3] != 0x11 || hash[4] != 0x11 || hash[5] != 0x11 {
		t.Fatalf("transparent pixel hash wrong: %v", hash[3:6])
	}
}
