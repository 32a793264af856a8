package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vga-app/files"
	"vga-app/loader"
	"vga-app/session"
)

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	infos := make([]session.Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, s.Info())
}

func (h *handler) killSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Kill(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to kill session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiSession resolves the {id} URL parameter, writing a 404 when there is no
// such session.
func (h *handler) apiSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
	}
	return s, ok
}

// sessionState returns the current history entry. Entries carrying a
// configuration are tagged with its digest for conditional requests.
func (h *handler) sessionState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	entry := s.Current()
	if entry.State != nil {
		etag := `"` + entry.State.Config.Digest() + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, entry)
}

type loadResponse struct {
	Location string          `json:"location"`
	Title    string          `json:"title,omitempty"`
	Icon     string          `json:"icon,omitempty"`
	BaseURL  string          `json:"visHostBaseUrl,omitempty"`
	Digest   string          `json:"digest"`
	Config   json.RawMessage `json:"config"`
	File     *files.Handle   `json:"file,omitempty"`
}

func newLoadResponse(st loader.State) loadResponse {
	return loadResponse{
		Location: st.Location,
		Title:    st.Config.Title(),
		Icon:     st.Config.Icon(),
		BaseURL:  st.BaseURL,
		Digest:   st.Config.Digest(),
		Config:   st.Config.Bytes(),
		File:     st.Source.File,
	}
}

func (h *handler) loadURL(w http.ResponseWriter, r *http.Request) {
	s, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	st, err := h.loader.LoadFromURL(r.Context(), s, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	h.announce(s, st)
	writeJSON(w, http.StatusOK, newLoadResponse(st))
}

// loadFile loads a file named by a previously issued handle ID or by path.
// With neither, the configured picker is asked.
func (h *handler) loadFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	var req struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var handle *files.Handle
	switch {
	case req.ID != "":
		found, ok := h.files.Lookup(req.ID)
		if !ok {
			writeError(w, files.ErrNotFound)
			return
		}
		handle = &found
	case req.Path != "":
		granted, err := h.files.Grant(req.Path)
		if err != nil {
			writeError(w, err)
			return
		}
		handle = &granted
	}

	st, err := h.loader.LoadFromFile(r.Context(), s, handle)
	if err != nil {
		writeError(w, err)
		return
	}
	h.announce(s, st)
	writeJSON(w, http.StatusOK, newLoadResponse(st))
}
