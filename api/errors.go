package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"vga-app/files"
	"vga-app/loader"
	"vga-app/recent"
	"vga-app/vgaconf"
)

// statusFor maps a load or store error to the response status.
func statusFor(err error) int {
	var parseErr *vgaconf.ParseError
	var fetchErr *loader.FetchError
	switch {
	case errors.Is(err, loader.ErrEmptyURL),
		errors.Is(err, loader.ErrNoContent),
		errors.Is(err, loader.ErrNoFileSelected),
		errors.Is(err, files.ErrExtension):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrPermissionDenied),
		errors.Is(err, files.ErrOutsideRoots):
		return http.StatusForbidden
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, recent.ErrIndexOutOfRange),
		errors.Is(err, files.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends err as {"error": "<alert text>"} with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": loader.Alert(err)})
}
