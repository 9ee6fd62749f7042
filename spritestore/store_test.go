package spritestore

import (
	"bytes"
	"testing"

	"github.com/tibia-tools/assets/spr"
)

func buildSPR(t *testing.T, entries []spr.WriteEntry) []byte {
	t.Helper()
	buf, err := spr.Write(1, uint32(len(entries))+1, entries, false)
	if err != nil {
		t.Fatalf("spr.Write: %v", err)
	}
	return buf
}

func TestOverlayAccessorResolution(t *testing.T) {
	buf := buildSPR(t, []spr.WriteEntry{
		{ID: 1, Compressed: []byte("A")},
		{ID: 2, Compressed: []byte("B")},
		{ID: 3, Compressed: []byte("C")},
	})

	s := New()
	if err := s.LoadFromBuffer(buf, false); err != nil {
		t.Fatalf("LoadFromBuffer: %v", err)
	}

	s.SetSprite(2, []byte("B'"))
	s.RemoveSprite(3)
	newID := s.AddSprite([]byte("D"))

	if got, ok := s.Get(1); !ok || !bytes.Equal(got, []byte("A")) {
		t.Fatalf("Get(1) = %v, %v", got, ok)
	}
	if got, ok := s.Get(2); !ok || !bytes.Equal(got, []byte("B'")) {
		t.Fatalf("Get(2) = %v, %v", got, ok)
	}
	if s.Has(3) {
		t.Fatal("expected id 3 to be deleted")
	}
	if got, ok := s.Get(newID); !ok || !bytes.Equal(got, []byte("D")) {
		t.Fatalf("Get(newID=%d) = %v, %v", newID, got, ok)
	}

	changed := map[uint32]bool{}
	for _, id := range s.ChangedIDs() {
		changed[id] = true
	}
	if !changed[2] || !changed[3] || !changed[newID] {
		t.Fatalf("changed ids = %v, want 2,3,%d present", s.ChangedIDs(), newID)
	}
	if got := s.GetSpriteCount(); got != 3 {
		t.Fatalf("GetSpriteCount() = %d, want 3", got)
	}
}

func TestSetSpriteThenRemoveSprite(t *testing.T) {
	s := New()
	s.SetSprite(5, []byte("x"))
	if !s.Has(5) {
		t.Fatal("expected has(5) after set")
	}
	if got, ok := s.Get(5); !ok || !bytes.Equal(got, []byte("x")) {
		t.Fatalf("Get(5) = %v, %v", got, ok)
	}
	s.RemoveSprite(5)
	if s.Has(5) {
		t.Fatal("expected has(5) == false after remove")
	}
}

func TestRenderCacheBound(t *testing.T) {
	s := New()
	s.SetCacheMaxSize(2)
	s.PutPreview(1, []byte{1})
	s.PutPreview(2, []byte{2})
	s.PutPreview(3, []byte{3})

	if _, ok := s.CachePreview(1); ok {
		t.Fatal("expected oldest entry (1) evicted")
	}
	if _, ok := s.CachePreview(2); !ok {
		t.Fatal("expected 2 to remain")
	}
	if _, ok := s.CachePreview(3); !ok {
		t.Fatal("expected 3 to remain")
	}
}

func TestRenderCacheInvalidatedOnMutation(t *testing.T) {
	s := New()
	s.PutPreview(9, []byte{9})
	s.SetSprite(9, []byte("new"))
	if _, ok := s.CachePreview(9); ok {
		t.Fatal("expected cache entry invalidated on SetSprite")
	}
}

func TestOperationLifecycle(t *testing.T) {
	s := New()
	if s.CurrentOperation() != nil {
		t.Fatal("expected no operation initially")
	}
	s.StartOperation(Import, []uint32{1, 2, 3})
	s.UpdateProgress(2)
	op := s.CurrentOperation()
	if op == nil || op.Completed != 2 || op.Total != 3 {
		t.Fatalf("unexpected operation state: %+v", op)
	}
	s.CompleteOperation()
	if s.CurrentOperation() != nil {
		t.Fatal("expected operation cleared after complete")
	}

	// Progress updates outside an operation are no-ops.
	s.UpdateProgress(99)
	if s.CurrentOperation() != nil {
		t.Fatal("expected no operation after no-op update")
	}
}

func TestClearSpritesResetsEverything(t *testing.T) {
	buf := buildSPR(t, []spr.WriteEntry{{ID: 1, Compressed: []byte("A")}})
	s := New()
	if err := s.LoadFromBuffer(buf, false); err != nil {
		t.Fatalf("LoadFromBuffer: %v", err)
	}
	s.SetSprite(2, []byte("B"))
	s.StartOperation(Export, []uint32{1})

	s.ClearSprites()

	if s.Has(1) || s.Has(2) {
		t.Fatal("expected all sprites gone after ClearSprites")
	}
	if s.CurrentOperation() != nil {
		t.Fatal("expected operation cleared by ClearSprites")
	}
}
