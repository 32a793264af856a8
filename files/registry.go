package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Mode is the access a permission request asks for.
type Mode string

const ModeRead Mode = "read"

// Permission is the outcome of a permission request.
type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
)

// maxFileSize bounds configuration reads.
const maxFileSize int64 = 64 << 20

// Registry issues handles for files under a fixed set of root directories
// that carry the recognized extension.
type Registry struct {
	roots     []string
	resolved  []string // roots with symlinks evaluated
	extension string

	mu      sync.RWMutex
	handles map[string]Handle
}

// NewRegistry returns a registry over roots. Roots are made absolute; a root
// that cannot be resolved is kept as given.
func NewRegistry(roots []string, extension string) *Registry {
	abs := make([]string, 0, len(roots))
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		root = cleanAbs(root)
		abs = append(abs, root)
		resolved = append(resolved, resolvePath(root))
	}
	return &Registry{
		roots:     abs,
		resolved:  resolved,
		extension: extension,
		handles:   make(map[string]Handle),
	}
}

// Roots returns the absolute root directories.
func (r *Registry) Roots() []string {
	out := make([]string, len(r.roots))
	copy(out, r.roots)
	return out
}

// Extension returns the recognized file extension.
func (r *Registry) Extension() string { return r.extension }

// Grant issues a handle for path. Granting the same file twice returns the
// first handle.
func (r *Registry) Grant(path string) (Handle, error) {
	abs := cleanAbs(path)
	if !strings.EqualFold(filepath.Ext(abs), r.extension) {
		return Handle{}, fmt.Errorf("%s: %w", filepath.Base(abs), ErrExtension)
	}
	if !r.inRoots(abs) {
		return Handle{}, fmt.Errorf("%s: %w", abs, ErrOutsideRoots)
	}

	candidate := Handle{Name: filepath.Base(abs), Path: abs}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handles {
		if h.SameEntry(candidate) {
			return h, nil
		}
	}
	candidate.ID = uuid.New().String()
	r.handles[candidate.ID] = candidate
	return candidate, nil
}

// Adopt re-registers a handle restored from storage, keeping its ID.
func (r *Registry) Adopt(h Handle) Handle {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.ID] = h
	return h
}

// Lookup returns the handle issued under id.
func (r *Registry) Lookup(id string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// RequestPermission grants read access when the file is inside a root and
// can be opened.
func (r *Registry) RequestPermission(h Handle, mode Mode) Permission {
	if mode != ModeRead {
		return Denied
	}
	if !r.inRoots(cleanAbs(h.Path)) {
		return Denied
	}
	f, err := os.Open(h.Path)
	if err != nil {
		return Denied
	}
	f.Close()
	return Granted
}

// Read returns the contents of the file behind h. It does not check
// permission; callers request it first.
func (r *Registry) Read(ctx context.Context, h Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(h.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", h.Name, err)
	}
	if int64(len(data)) > maxFileSize {
		return nil, fmt.Errorf("reading %s: file exceeds %d bytes", h.Name, maxFileSize)
	}
	return data, nil
}

// Entry is one line of a picker listing.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
}

// List returns the picker listing for dir: subdirectories first, then files
// with the recognized extension, each group sorted by name. Hidden entries
// are skipped. An empty dir lists the roots themselves.
func (r *Registry) List(dir string) ([]Entry, error) {
	if dir == "" {
		entries := make([]Entry, 0, len(r.roots))
		for _, root := range r.roots {
			entries = append(entries, Entry{Name: root, Path: root, IsDir: true})
		}
		return entries, nil
	}

	abs := cleanAbs(dir)
	if !r.inRoots(abs) {
		return nil, fmt.Errorf("%s: %w", abs, ErrOutsideRoots)
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	var dirs, matches []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		entry := Entry{Name: name, Path: filepath.Join(abs, name), IsDir: de.IsDir()}
		switch {
		case de.IsDir():
			dirs = append(dirs, entry)
		case strings.EqualFold(filepath.Ext(name), r.extension):
			matches = append(matches, entry)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return append(dirs, matches...), nil
}

// inRoots reports whether abs lies inside a root both as written and after
// evaluating symlinks, so a link inside a root cannot reach outside them.
func (r *Registry) inRoots(abs string) bool {
	return within(r.roots, abs) && within(r.resolved, resolvePath(abs))
}

func within(roots []string, abs string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// resolvePath evaluates symlinks in abs. A missing file resolves through its
// parent directory; when that fails too abs is returned unchanged.
func resolvePath(abs string) string {
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}
