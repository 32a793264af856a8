package api

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vga-app/files"
	"vga-app/loader"
	"vga-app/recent"
	"vga-app/session"
	"vga-app/ui"
)

// Deps are the components the routes are served from. Launch may be nil when
// the process was started without files to open.
type Deps struct {
	Sessions *session.Manager
	Loader   *loader.Loader
	Recents  *recent.Store
	Files    *files.Registry
	Launch   *files.LaunchQueue
	Renderer *ui.Renderer
	Static   fs.FS
	Logger   *slog.Logger
}

func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{
		sessions: d.Sessions,
		loader:   d.Loader,
		recents:  d.Recents,
		files:    d.Files,
		launch:   d.Launch,
		renderer: d.Renderer,
		logger:   logger,
	}

	// Pages
	r.Get("/", h.index)
	r.Post("/open/url", h.openURL)
	r.Get("/open/file", h.pickFile)
	r.Post("/open/file", h.openFile)
	r.Post("/recents/{index}/open", h.openRecent)
	r.Post("/recents/{index}/remove", h.removeRecent)
	r.Post("/history/back", h.historyBack)
	r.Post("/history/forward", h.historyForward)

	// REST API
	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", h.listSessions)
		r.Post("/sessions", h.createSession)
		r.Delete("/sessions/{id}", h.killSession)
		r.Get("/sessions/{id}/state", h.sessionState)
		r.Post("/sessions/{id}/load-url", h.loadURL)
		r.Post("/sessions/{id}/load-file", h.loadFile)

		// WebSocket
		r.Get("/sessions/{id}/ws", h.handleWS)

		r.Get("/recents", h.listRecents)
		r.Delete("/recents/{index}", h.deleteRecent)

		r.Get("/files", h.listFiles)
		r.Get("/demos", h.listDemos)
	})

	// Bundled icons and demo configurations
	if d.Static != nil {
		fileServer := http.FileServer(http.FS(d.Static))
		r.Get("/icons/*", fileServer.ServeHTTP)
		r.Get("/demos/*", fileServer.ServeHTTP)
	}

	return r
}

type handler struct {
	sessions *session.Manager
	loader   *loader.Loader
	recents  *recent.Store
	files    *files.Registry
	launch   *files.LaunchQueue
	renderer *ui.Renderer
	logger   *slog.Logger
}
