package api

import (
	"bytes"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vga-app/loader"
	"vga-app/recent"
	"vga-app/session"
	"vga-app/ui"
)

const sessionCookie = "vga_session"

// pageSession returns the session named by the request cookie, creating one
// (and setting the cookie) when it is missing or has expired.
func (h *handler) pageSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s, _ := h.openSession(w, r)
	return s
}

func (h *handler) openSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := h.sessions.Get(c.Value); ok {
			return s, false
		}
	}
	s := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, true
}

// requestLocation is the history location of a page request, in the form
// URLLocation and FileLocation produce.
func requestLocation(r *http.Request) string {
	if q := r.URL.Query(); len(q) > 0 {
		return "?" + q.Encode()
	}
	return "/"
}

// pageURL turns a history location such as "?configUrl=..." into a path to
// redirect to.
func pageURL(location string) string {
	if location == "" || strings.HasPrefix(location, "?") {
		return "/" + location
	}
	return location
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	s, created := h.openSession(w, r)
	// Arriving somewhere other than the current entry adds an entry without
	// state, as a browser navigation does. A new session opened at "/" keeps
	// the entry it was created with, which may be the restored last-loaded one.
	location := requestLocation(r)
	if s.Current().Location != location && !(created && location == "/") {
		s.PushState(nil, location)
	}
	st, res, err := h.loader.Activate(r.Context(), s, r.URL.Query(), h.launch)
	if err != nil {
		h.logger.Warn("activation failed", "session", s.ID, "source", res.Kind.String(), "error", err)
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	if !st.Loaded() {
		h.renderShell(w, s, http.StatusOK, "")
		return
	}
	if res.Kind == loader.SourceLaunchQueue {
		h.logger.Info("opened launch file", "session", s.ID, "location", st.Location, "pending", h.launch.Len())
	}
	if res.Kind != loader.SourceHistory {
		h.announce(s, st)
	}
	h.renderHost(w, st)
}

func (h *handler) openURL(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	location, err := h.loader.PromptURL(r.FormValue("url"))
	if err != nil {
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	http.Redirect(w, r, pageURL(location), http.StatusSeeOther)
}

func (h *handler) pickFile(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	page := ui.PickerPage{
		Dir:       dir,
		Parent:    h.parentDir(dir),
		Extension: h.files.Extension(),
	}
	status := http.StatusOK
	entries, err := h.files.List(dir)
	if err != nil {
		status = statusFor(err)
		page.Alert = loader.Alert(err)
	}
	page.Entries = entries

	var buf bytes.Buffer
	if err := h.renderer.Picker(&buf, page); err != nil {
		h.logger.Error("rendering picker failed", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

// parentDir is the listing one level up from dir; the roots listing ("")
// sits above every root.
func (h *handler) parentDir(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil || slices.Contains(h.files.Roots(), abs) {
		return ""
	}
	return filepath.Dir(abs)
}

func (h *handler) openFile(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	var (
		st  loader.State
		err error
	)
	if path := r.FormValue("path"); path != "" {
		handle, grantErr := h.files.Grant(path)
		if grantErr != nil {
			h.renderShell(w, s, statusFor(grantErr), loader.Alert(grantErr))
			return
		}
		st, err = h.loader.LoadFromFile(r.Context(), s, &handle)
	} else {
		st, err = h.loader.LoadFromFile(r.Context(), s, nil)
	}
	if err != nil {
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	h.announce(s, st)
	http.Redirect(w, r, pageURL(st.Location), http.StatusSeeOther)
}

func (h *handler) openRecent(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	index, err := recentIndex(r)
	if err != nil {
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	st, location, err := h.loader.OpenRecent(r.Context(), s, index)
	if err != nil {
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	if st.Loaded() {
		h.announce(s, st)
	}
	http.Redirect(w, r, pageURL(location), http.StatusSeeOther)
}

func (h *handler) removeRecent(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	index, err := recentIndex(r)
	if err == nil {
		err = h.recents.Remove(index)
	}
	if err != nil {
		h.renderShell(w, s, statusFor(err), loader.Alert(err))
		return
	}
	h.sessions.Broadcast(session.Event{Type: session.EventRecents})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) historyBack(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	entry, _ := s.Back()
	http.Redirect(w, r, pageURL(entry.Location), http.StatusSeeOther)
}

func (h *handler) historyForward(w http.ResponseWriter, r *http.Request) {
	s := h.pageSession(w, r)
	entry, _ := s.Forward()
	http.Redirect(w, r, pageURL(entry.Location), http.StatusSeeOther)
}

func recentIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, recent.ErrIndexOutOfRange
	}
	return index, nil
}

// announce tells the session's client about a completed load, and every
// client that the recents list changed.
func (h *handler) announce(s *session.Session, st loader.State) {
	s.Notify(session.Event{Type: session.EventConfig, Location: st.Location, Title: st.Config.Title()})
	h.sessions.Broadcast(session.Event{Type: session.EventRecents})
}

func (h *handler) renderShell(w http.ResponseWriter, s *session.Session, status int, alert string) {
	page := ui.ShellPage{
		Alert:        alert,
		SessionID:    s.ID,
		CanGoBack:    s.CanGoBack(),
		CanGoForward: s.CanGoForward(),
	}
	entries, err := h.recents.List()
	if err != nil {
		h.logger.Warn("reading recents failed", "error", err)
		page.RecentsError = "Recent items are unavailable."
	} else {
		page.Recents = ui.RecentItems(entries)
	}

	var buf bytes.Buffer
	if err := h.renderer.Shell(&buf, page); err != nil {
		h.logger.Error("rendering shell failed", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

func (h *handler) renderHost(w http.ResponseWriter, st loader.State) {
	var buf bytes.Buffer
	if err := h.renderer.Host(&buf, ui.HostPage{Config: st.Config, BaseURL: st.BaseURL}); err != nil {
		h.logger.Error("rendering host failed", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
