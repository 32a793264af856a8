package api_test

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"vga-app/api"
	"vga-app/files"
	"vga-app/kv"
	"vga-app/loader"
	"vga-app/recent"
	"vga-app/session"
	"vga-app/ui"
	"vga-app/vgaconf"
)

type testEnv struct {
	srv      *httptest.Server
	configs  *httptest.Server
	sessions *session.Manager
	recents  *recent.Store
	registry *files.Registry
	launch   *files.LaunchQueue
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := kv.NewMemory()
	root := t.TempDir()
	env := &testEnv{
		configs:  configServer(t),
		sessions: session.NewManager(store),
		recents:  recent.NewStore(store),
		registry: files.NewRegistry([]string{root}, vgaconf.Extension),
		launch:   files.NewLaunchQueue(),
		root:     root,
	}
	renderer, err := ui.NewRenderer("https://cdn.example.org/vga-core.js")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	ld := loader.New(loader.Options{
		Files:   env.registry,
		Recents: env.recents,
		Records: env.sessions,
	})
	env.srv = httptest.NewServer(api.RegisterRoutes(api.Deps{
		Sessions: env.sessions,
		Loader:   ld,
		Recents:  env.recents,
		Files:    env.registry,
		Launch:   env.launch,
		Renderer: renderer,
		Static:   ui.Static(),
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func configServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/conf.vgaconf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pageTitle":"Demo"}`))
	})
	mux.HandleFunc("/maps/rivers.vgaconf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pageTitle":"Rivers","favicon":"icon.png"}`))
	})
	mux.HandleFunc("/broken.vgaconf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pageTitle": `))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig creates a configuration file under the registry root and
// returns its path.
func (e *testEnv) writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.root, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// browser is a client that keeps the session cookie and does not follow
// redirects, so tests can inspect them.
func (e *testEnv) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// sessionID returns the session cookie the browser holds.
func (e *testEnv) sessionID(t *testing.T, c *http.Client) string {
	t.Helper()
	u, _ := url.Parse(e.srv.URL)
	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == "vga_session" {
			return cookie.Value
		}
	}
	t.Fatal("browser holds no session cookie")
	return ""
}
