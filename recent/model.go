package recent

import (
	"errors"

	"vga-app/files"
)

// MaxEntries caps the recents list.
const MaxEntries = 10

// Key is the store key the whole list is persisted under.
const Key = "recents"

var ErrIndexOutOfRange = errors.New("recent item not found")

// Source is where a recent configuration came from: exactly one of a URL or a
// granted file.
type Source struct {
	URL  string        `json:"url,omitempty" cbor:"url,omitempty"`
	File *files.Handle `json:"file,omitempty" cbor:"file,omitempty"`
}

func URLSource(url string) Source { return Source{URL: url} }

func FileSource(h files.Handle) Source { return Source{File: &h} }

func (s Source) IsFile() bool { return s.File != nil }

// Same reports source identity: string equality for URLs, SameEntry for
// files. A URL never matches a file.
func (s Source) Same(other Source) bool {
	switch {
	case s.File != nil && other.File != nil:
		return s.File.SameEntry(*other.File)
	case s.File == nil && other.File == nil:
		return s.URL == other.URL
	default:
		return false
	}
}

// Label is the line shown under an entry in the recents list.
func (s Source) Label() string {
	if s.File != nil {
		return "File: " + s.File.Name
	}
	return "URL: " + s.URL
}

// Entry is one recently opened configuration.
type Entry struct {
	Name   string `json:"name,omitempty" cbor:"name,omitempty"`
	Icon   string `json:"icon,omitempty" cbor:"icon,omitempty"`
	Source Source `json:"source" cbor:"source"`
}
