package api

import (
	"net/http"

	"vga-app/files"
	"vga-app/ui"
)

type filesResponse struct {
	Dir       string        `json:"dir"`
	Extension string        `json:"extension"`
	Entries   []files.Entry `json:"entries"`
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	entries, err := h.files.List(dir)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []files.Entry{}
	}
	writeJSON(w, http.StatusOK, filesResponse{Dir: dir, Extension: h.files.Extension(), Entries: entries})
}

func (h *handler) listDemos(w http.ResponseWriter, r *http.Request) {
	demos, err := ui.Demos()
	if err != nil {
		h.logger.Error("reading demos failed", "error", err)
		http.Error(w, "failed to read demos", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, demos)
}
