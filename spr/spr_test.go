package spr

import (
	"bytes"
	"testing"
)

func TestSPREmptySlotRoundTrip(t *testing.T) {
	entries := []WriteEntry{
		{ID: 1, Compressed: []byte{1, 2, 3}},
		{ID: 3, Compressed: []byte{4, 5, 6, 7}},
	}
	buf, err := Write(0x12345678, 3, entries, false)
	if err != nil {
		t.Fatal(err)
	}

	acc, err := NewAccessorFromBytes(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Dispose()

	if acc.Has(2) {
		t.Fatal("id 2 should be empty")
	}
	if got, ok := acc.Get(1); !ok || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("id 1 = %v, %v", got, ok)
	}
	if got, ok := acc.Get(3); !ok || !bytes.Equal(got, []byte{4, 5, 6, 7}) {
		t.Fatalf("id 3 = %v, %v", got, ok)
	}
	if acc.NonEmptyCount() != 2 {
		t.Fatalf("NonEmptyCount = %d, want 2", acc.NonEmptyCount())
	}
}

func TestAccessorIdsMatchNonEmptyCount(t *testing.T) {
	entries := []WriteEntry{
		{ID: 2, Compressed: []byte{9}},
		{ID: 5, Compressed: []byte{9, 9}},
		{ID: 7, Compressed: []byte{9, 9, 9}},
	}
	buf, err := Write(1, 10, entries, false)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := NewAccessorFromBytes(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Dispose()

	var got []uint32
	it := acc.Ids()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		got = append(got, id)
	}
	want := []uint32{2, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if uint32(len(got)) != acc.NonEmptyCount() {
		t.Fatalf("len(ids) %d != NonEmptyCount %d", len(got), acc.NonEmptyCount())
	}
}

func TestNonExtendedCountClamp(t *testing.T) {
	buf, err := Write(1, 0xFFFFFFFF, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := NewAccessorFromBytes(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	defer acc.Dispose()
	if acc.SpriteCount() != MaxNonExtendedCount {
		t.Fatalf("SpriteCount = %d, want %d", acc.SpriteCount(), MaxNonExtendedCount)
	}
}

func TestDisposeInvalidatesAccessor(t *testing.T) {
	buf, err := Write(1, 1, []WriteEntry{{ID: 1, Compressed: []byte{1}}}, false)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := NewAccessorFromBytes(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := acc.Dispose(); err != nil {
		t.Fatal(err)
	}
	if acc.Has(1) {
		t.Fatal("expected Has to be false after dispose")
	}
	if _, ok := acc.Get(1); ok {
		t.Fatal("expected Get to report absent after dispose")
	}
}

func TestExtractAllMaterialisesEverySprite(t *testing.T) {
	entries := []WriteEntry{
		{ID: 1, Compressed: []byte{1}},
		{ID: 2, Compressed: []byte{2, 2}},
	}
	buf, err := Write(1, 2, entries, true)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := NewAccessorFromBytes(buf, true)
	if err != nil {
		t.Fatal(err)
	}
	all := acc.ExtractAll()
	if len(all) != 2 {
		t.Fatalf("len(all) = %d", len(all))
	}
	acc.Dispose()
	// Extracted copies must survive Dispose.
	if !bytes.Equal(all[1], []byte{1}) || !bytes.Equal(all[2], []byte{2, 2}) {
		t.Fatalf("extracted data corrupted after dispose: %v", all)
	}
}
