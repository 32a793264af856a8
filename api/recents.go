package api

import (
	"net/http"

	"vga-app/session"
)

func (h *handler) listRecents(w http.ResponseWriter, r *http.Request) {
	entries, err := h.recents.List()
	if err != nil {
		h.logger.Warn("reading recents failed", "error", err)
		http.Error(w, "failed to read recents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) deleteRecent(w http.ResponseWriter, r *http.Request) {
	index, err := recentIndex(r)
	if err == nil {
		err = h.recents.Remove(index)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.sessions.Broadcast(session.Event{Type: session.EventRecents})
	w.WriteHeader(http.StatusNoContent)
}
