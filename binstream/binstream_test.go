package binstream

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(0xAB)
	w.I8(-5)
	w.U16(0xBEEF)
	w.I16(-1234)
	w.U32(0xDEADBEEF)
	w.I32(-1)
	w.WriteBytes([]byte{1, 2, 3})
	w.LengthPrefixedString("hello")

	r := NewReader(w.Bytes())

	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = %v, %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -5 {
		t.Fatalf("I8 = %v, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xBEEF {
		t.Fatalf("U16 = %v, %v", v, err)
	}
	if v, err := r.I16(); err != nil || v != -1234 {
		t.Fatalf("I16 = %v, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = %v, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -1 {
		t.Fatalf("I32 = %v, %v", v, err)
	}
	b, err := r.Bytes(3)
	if err != nil || string(b) != "\x01\x02\x03" {
		t.Fatalf("Bytes = %v, %v", b, err)
	}
	s, err := r.LengthPrefixedString()
	if err != nil || s != "hello" {
		t.Fatalf("LengthPrefixedString = %q, %v", s, err)
	}
}

func TestReaderOutOfBounds(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.U32(); err == nil {
		t.Fatal("expected boundary error")
	}
}

func TestWriterSeekBackpatch(t *testing.T) {
	w := NewWriter()
	w.U32(0) // placeholder
	w.U8(1)
	w.U8(2)
	w.U8(3)
	patchAt := w.Cursor()
	w.Seek(0)
	w.U32(patchAt)
	w.SeekEnd()
	w.U8(4)

	r := NewReader(w.Bytes())
	placeholder, _ := r.U32()
	if placeholder != patchAt {
		t.Fatalf("placeholder = %d, want %d", placeholder, patchAt)
	}
}

func TestLatin1RoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.Latin1String("Magic Sword"); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes())
	s, err := r.Latin1String(uint32(len("Magic Sword")))
	if err != nil {
		t.Fatal(err)
	}
	if s != "Magic Sword" {
		t.Fatalf("got %q", s)
	}
}
