package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/text/encoding/charmap"
)

// OSHost is the direct-to-disk reference Host implementation backing
// the CLI (assetctl) and integration tests.
type OSHost struct {
	logger *log.Helper

	mu       sync.Mutex
	watchers map[string]*watcher
}

type watcher struct {
	stop    chan struct{}
	stopped sync.WaitGroup
}

// pollInterval is how often OSHost's watchers check a file's mtime.
// No file-notification library is wired into this module, so watching
// falls back to polling -- see DESIGN.md.
const pollInterval = 500 * time.Millisecond

// NewOSHost returns a Host wired to a kratos logger. Pass nil to use a
// filtered stdout logger at info level.
func NewOSHost(logger *log.Helper) *OSHost {
	if logger == nil {
		base := log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo))
		logger = log.NewHelper(base)
	}
	return &OSHost{logger: logger, watchers: map[string]*watcher{}}
}

func (h *OSHost) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("host: read %s: %w", path, err)
	}
	return b, nil
}

func (h *OSHost) WriteBytes(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("host: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("host: write %s: %w", path, err)
	}
	return nil
}

func (h *OSHost) ReadText(ctx context.Context, path string, enc TextEncoding) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("host: read %s: %w", path, err)
	}
	switch enc {
	case Latin1:
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("host: decode %s as latin-1: %w", path, err)
		}
		return string(decoded), nil
	default:
		return string(raw), nil
	}
}

func (h *OSHost) WriteText(ctx context.Context, path string, s string, enc TextEncoding) error {
	var raw []byte
	switch enc {
	case Latin1:
		encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return fmt.Errorf("host: encode %s as latin-1: %w", path, err)
		}
		raw = encoded
	default:
		raw = []byte(s)
	}
	return h.WriteBytes(context.Background(), path, raw)
}

// Backup best-effort atomically copies each existing path to
// path+".bak" via a temp-file-then-rename, so a crash mid-copy never
// leaves a half-written backup.
func (h *OSHost) Backup(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if !h.Exists(p) {
			continue
		}
		if err := atomicCopy(p, p+".bak"); err != nil {
			h.Log(LogWarning, fmt.Sprintf("backup %s: %v", p, err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func atomicCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func (h *OSHost) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *OSHost) List(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("host: list %s: %w", dir, err)
	}
	wanted := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		wanted[strings.ToLower(e)] = true
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (h *OSHost) FindInDir(dir string, name string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

func (h *OSHost) Watch(path string, onChange ChangeFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[path]; ok {
		return nil
	}

	info, err := os.Stat(path)
	var lastMod time.Time
	if err == nil {
		lastMod = info.ModTime()
	}

	w := &watcher{stop: make(chan struct{})}
	w.stopped.Add(1)
	go func() {
		defer w.stopped.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if info.ModTime().After(lastMod) {
					lastMod = info.ModTime()
					onChange(path)
				}
			}
		}
	}()
	h.watchers[path] = w
	return nil
}

func (h *OSHost) Unwatch(path string) {
	h.mu.Lock()
	w, ok := h.watchers[path]
	if ok {
		delete(h.watchers, path)
	}
	h.mu.Unlock()
	if ok {
		close(w.stop)
		w.stopped.Wait()
	}
}

func (h *OSHost) UnwatchAll() {
	h.mu.Lock()
	watchers := h.watchers
	h.watchers = map[string]*watcher{}
	h.mu.Unlock()
	for _, w := range watchers {
		close(w.stop)
		w.stopped.Wait()
	}
}

func (h *OSHost) Log(level LogLevel, message string) {
	switch level {
	case LogWarning:
		h.logger.Warn(message)
	case LogError:
		h.logger.Error(message)
	default:
		h.logger.Info(message)
	}
}

