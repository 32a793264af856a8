// Package files grants and reads local configuration files.
//
// A Handle is the server-side counterpart of a browser file handle: an opaque
// ID issued when the user picks a file, a display name, and the path it
// refers to. Read access is re-checked every time a handle is used.
package files

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrOutsideRoots = errors.New("file is outside the allowed directories")
	ErrExtension    = errors.New("file does not have a recognized extension")
	ErrNotFound     = errors.New("file handle not found")
)

// Handle refers to a previously granted local file.
type Handle struct {
	ID   string `json:"id" cbor:"id"`
	Name string `json:"name" cbor:"name"`
	Path string `json:"path" cbor:"path"`
}

// SameEntry reports whether h and other refer to the same file. When both
// files exist this follows os.SameFile, so hard links and alternate paths
// compare equal; otherwise the cleaned paths are compared.
func (h Handle) SameEntry(other Handle) bool {
	a, errA := os.Stat(h.Path)
	b, errB := os.Stat(other.Path)
	if errA == nil && errB == nil {
		return os.SameFile(a, b)
	}
	return cleanAbs(h.Path) == cleanAbs(other.Path)
}

func cleanAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
