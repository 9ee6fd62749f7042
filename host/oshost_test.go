package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadWriteBytesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)
	path := filepath.Join(dir, "nested", "item.dat")

	if err := h.WriteBytes(context.Background(), path, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	got, err := h.ReadBytes(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("ReadBytes = %v", got)
	}
}

func TestReadWriteTextLatin1RoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)
	path := filepath.Join(dir, "monster.xml")

	text := "Tibia café"
	if err := h.WriteText(context.Background(), path, text, Latin1); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := h.ReadText(context.Background(), path, Latin1)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != text {
		t.Fatalf("ReadText = %q, want %q", got, text)
	}
}

func TestExistsAndList(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)

	if h.Exists(filepath.Join(dir, "missing.dat")) {
		t.Fatal("expected Exists == false for missing file")
	}

	for _, name := range []string{"a.dat", "b.spr", "c.dat"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("setup WriteFile: %v", err)
		}
	}

	got, err := h.List(dir, []string{".dat"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{filepath.Join(dir, "a.dat"), filepath.Join(dir, "c.dat")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("List(.dat) = %v, want %v", got, want)
	}
}

func TestFindInDirCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)
	if err := os.WriteFile(filepath.Join(dir, "Items.OTB"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	path, ok := h.FindInDir(dir, "items.otb")
	if !ok {
		t.Fatal("expected FindInDir to match case-insensitively")
	}
	if filepath.Base(path) != "Items.OTB" {
		t.Fatalf("FindInDir matched %q", path)
	}

	if _, ok := h.FindInDir(dir, "nope.otb"); ok {
		t.Fatal("expected no match for nope.otb")
	}
}

func TestBackupSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)
	present := filepath.Join(dir, "items.xml")
	missing := filepath.Join(dir, "monsters.xml")
	if err := os.WriteFile(present, []byte("<items/>"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	if err := h.Backup(context.Background(), []string{present, missing}); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !h.Exists(present + ".bak") {
		t.Fatal("expected backup of present file")
	}
	if h.Exists(missing + ".bak") {
		t.Fatal("expected no backup for missing file")
	}
}

func TestWatchFiresOnChangeAndUnwatchStops(t *testing.T) {
	dir := t.TempDir()
	h := NewOSHost(nil)
	path := filepath.Join(dir, "project.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	fired := make(chan struct{}, 1)
	if err := h.Watch(path, func(p string) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer h.UnwatchAll()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("{\"changed\":true}"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected onChange to fire after modification")
	}

	h.Unwatch(path)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("{\"changed\":2}"), 0o644); err != nil {
		t.Fatalf("rewrite file after unwatch: %v", err)
	}
	select {
	case <-fired:
		t.Fatal("expected no onChange after Unwatch")
	case <-time.After(3 * pollInterval):
	}
}
