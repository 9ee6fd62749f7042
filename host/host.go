// Package host defines the small capability interface the codec core
// consumes from its surrounding shell (native dialogs, menus, window
// management — all out of scope here) and provides an in-process
// os-backed implementation used by the CLI and integration tests.
package host

import "context"

// LogLevel is one of the three severities the core ever logs at.
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarning
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogWarning:
		return "warning"
	case LogError:
		return "error"
	default:
		return "unknown"
	}
}

// TextEncoding names the encodings read_text/write_text support.
type TextEncoding int

const (
	UTF8 TextEncoding = iota
	Latin1
)

// ChangeFunc is invoked by a Host's watcher when the watched path
// changes on disk.
type ChangeFunc func(path string)

// Host is the capability surface the codec core (C1-C10) consumes. A
// production implementation wraps a GUI shell's filesystem/dialog/
// settings layer; OSHost (oshost.go) is a direct-to-disk reference
// implementation.
type Host interface {
	ReadBytes(ctx context.Context, path string) ([]byte, error)
	WriteBytes(ctx context.Context, path string, data []byte) error
	ReadText(ctx context.Context, path string, enc TextEncoding) (string, error)
	WriteText(ctx context.Context, path string, s string, enc TextEncoding) error

	// Backup best-effort atomically copies each existing path to
	// path+".bak". Failures are swallowed by the caller, not by Backup
	// itself -- Backup reports what it could not copy.
	Backup(ctx context.Context, paths []string) error

	Exists(path string) bool
	// List returns every path directly under dir whose extension (with
	// leading dot, e.g. ".dat") is in extensions, sorted. A nil or empty
	// extensions matches every file.
	List(dir string, extensions []string) ([]string, error)
	// FindInDir returns the first path directly under dir whose base
	// name matches name case-insensitively, or ("", false).
	FindInDir(dir string, name string) (string, bool)

	Watch(path string, onChange ChangeFunc) error
	Unwatch(path string)
	UnwatchAll()

	Log(level LogLevel, message string)
}
