package loader

import (
	"errors"
	"fmt"
	"io/fs"

	"vga-app/files"
	"vga-app/recent"
	"vga-app/vgaconf"
)

var (
	ErrEmptyURL         = errors.New("invalid config URL")
	ErrNoContent        = errors.New("no content")
	ErrNoFileSelected   = errors.New("no file selected")
	ErrPermissionDenied = errors.New("permission denied for read the file")
)

// FetchError reports a configuration URL that could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Alert is the message shown to the user when an operation fails with err.
func Alert(err error) string {
	var parseErr *vgaconf.ParseError
	var fetchErr *FetchError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyURL):
		return "Invalid config URL."
	case errors.Is(err, ErrNoContent):
		return "No content."
	case errors.Is(err, ErrNoFileSelected):
		return "No file selected."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied for read the file."
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Invalid configuration: %v", parseErr.Err)
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("Failed to fetch configuration: %v", fetchErr)
	case errors.Is(err, recent.ErrIndexOutOfRange):
		return "Recent item not found."
	case errors.Is(err, files.ErrOutsideRoots), errors.Is(err, files.ErrExtension),
		errors.Is(err, files.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Cannot open file: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
