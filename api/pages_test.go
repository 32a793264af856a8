package api_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"vga-app/files"
	"vga-app/recent"
	"vga-app/session"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func get(t *testing.T, c *http.Client, u string) *http.Response {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	return resp
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != want {
		t.Fatalf("expected redirect to %q, got %q", want, loc)
	}
}

func TestIndexShowsShell(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)

	resp := get(t, c, env.srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected html content-type, got %q", ct)
	}
	body := readBody(t, resp)
	for _, want := range []string{"Load Config URL", "No recent items", "Blank Map"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in shell page", want)
		}
	}

	id := env.sessionID(t, c)
	if _, ok := env.sessions.Get(id); !ok {
		t.Fatal("cookie names an unknown session")
	}

	// The same browser keeps its session.
	readBody(t, get(t, c, env.srv.URL+"/"))
	if got := env.sessionID(t, c); got != id {
		t.Fatalf("expected session %s to be reused, got %s", id, got)
	}
}

func TestOpenURLFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)
	source := env.configs.URL + "/conf.vgaconf"

	resp := postForm(t, c, env.srv.URL+"/open/url", url.Values{"url": {source}})
	want := "/?configUrl=" + url.QueryEscape(source)
	expectRedirect(t, resp, want)

	resp = get(t, c, env.srv.URL+want)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "<vga-core allow-modifying-page-info>") || !strings.Contains(body, "<title>Demo</title>") {
		t.Fatalf("expected host page for the loaded config:\n%s", body)
	}

	entries, _ := env.recents.List()
	if len(entries) != 1 || entries[0].Source.URL != source || entries[0].Name != "Demo" {
		t.Fatalf("unexpected recents %+v", entries)
	}
	rec, ok, err := env.sessions.Record()
	if err != nil || !ok || rec.Location != want[1:] {
		t.Fatalf("expected session record for the load, got %+v ok=%v err=%v", rec, ok, err)
	}

	// The bare shell now lists the recent entry and offers Back.
	body = readBody(t, get(t, c, env.srv.URL+"/"))
	for _, want := range []string{"URL: " + source, `action="/history/back"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in shell page", want)
		}
	}
}

func TestOpenURLEmpty(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)

	resp := postForm(t, c, env.srv.URL+"/open/url", url.Values{"url": {"   "}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "No content.") {
		t.Fatalf("expected alert in page:\n%s", body)
	}
}

func TestIndexLoadFailures(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		source string
		status int
		alert  string
	}{
		{"malformed", env.configs.URL + "/broken.vgaconf", http.StatusUnprocessableEntity, "Invalid configuration:"},
		{"missing", env.configs.URL + "/missing.vgaconf", http.StatusBadGateway, "Failed to fetch configuration:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := env.browser(t)
			resp := get(t, c, env.srv.URL+"/?configUrl="+url.QueryEscape(tc.source))
			if resp.StatusCode != tc.status {
				resp.Body.Close()
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			body := readBody(t, resp)
			if !strings.Contains(body, `role="alert">`+tc.alert) {
				t.Fatalf("expected alert %q:\n%s", tc.alert, body)
			}
			if !strings.Contains(body, "Load Config URL") {
				t.Fatal("shell should still render after a failed load")
			}
		})
	}
}

func TestOpenFileFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)
	path := env.writeConfig(t, "local.vgaconf", `{"pageTitle":"Local"}`)

	resp := postForm(t, c, env.srv.URL+"/open/file", url.Values{"path": {path}})
	expectRedirect(t, resp, "/?configFile=local.vgaconf")

	// Arriving restores the pushed history state without reading the file again.
	body := readBody(t, get(t, c, env.srv.URL+"/?configFile=local.vgaconf"))
	if !strings.Contains(body, "<title>Local</title>") {
		t.Fatalf("expected host page for the file:\n%s", body)
	}

	entries, _ := env.recents.List()
	if len(entries) != 1 || !entries[0].Source.IsFile() {
		t.Fatalf("expected a file entry in recents, got %+v", entries)
	}
}

func TestOpenFileErrors(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		path   string
		status int
		alert  string
	}{
		{"no selection", "", http.StatusBadRequest, "No file selected."},
		{"outside roots", "/etc/hosts.vgaconf", http.StatusForbidden, "Cannot open file:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := env.browser(t)
			resp := postForm(t, c, env.srv.URL+"/open/file", url.Values{"path": {tc.path}})
			if resp.StatusCode != tc.status {
				resp.Body.Close()
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			if body := readBody(t, resp); !strings.Contains(body, tc.alert) {
				t.Fatalf("expected alert %q:\n%s", tc.alert, body)
			}
		})
	}
}

func TestPickerPage(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)
	env.writeConfig(t, "a.vgaconf", `{}`)
	env.writeConfig(t, "notes.txt", "")

	body := readBody(t, get(t, c, env.srv.URL+"/open/file"))
	if !strings.Contains(body, "Configured directories") {
		t.Fatalf("expected the roots listing:\n%s", body)
	}

	resp := get(t, c, env.srv.URL+"/open/file?dir="+url.QueryEscape(env.root))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body = readBody(t, resp)
	if !strings.Contains(body, "a.vgaconf") || strings.Contains(body, "notes.txt") {
		t.Fatalf("listing should show only configuration files:\n%s", body)
	}

	resp = get(t, c, env.srv.URL+"/open/file?dir=/")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 outside the roots, got %d", resp.StatusCode)
	}
}

func TestLaunchQueueActivation(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeConfig(t, "launched.vgaconf", `{"pageTitle":"Launched"}`)
	h, err := env.registry.Grant(path)
	if err != nil {
		t.Fatal(err)
	}
	env.launch.Enqueue(files.LaunchParams{Files: []files.Handle{h}})

	body := readBody(t, get(t, env.browser(t), env.srv.URL+"/"))
	if !strings.Contains(body, "<title>Launched</title>") {
		t.Fatalf("expected the launched file to load:\n%s", body)
	}
	if env.launch.Len() != 0 {
		t.Fatal("launch request should be consumed")
	}
}

func TestRecentPages(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)
	source := env.configs.URL + "/conf.vgaconf"
	if err := env.recents.Upsert(recent.Entry{Name: "Demo", Source: recent.URLSource(source)}); err != nil {
		t.Fatal(err)
	}

	resp := postForm(t, c, env.srv.URL+"/recents/0/open", nil)
	expectRedirect(t, resp, "/?configUrl="+url.QueryEscape(source))

	resp = postForm(t, c, env.srv.URL+"/recents/7/open", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Recent item not found.") {
		t.Fatalf("expected alert in page:\n%s", body)
	}

	resp = postForm(t, c, env.srv.URL+"/recents/0/remove", nil)
	expectRedirect(t, resp, "/")
	if entries, _ := env.recents.List(); len(entries) != 0 {
		t.Fatalf("expected empty recents after remove, got %+v", entries)
	}

	resp = postForm(t, c, env.srv.URL+"/recents/x/remove", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a bad index, got %d", resp.StatusCode)
	}
}

func TestHistoryBackForward(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)
	first := env.configs.URL + "/conf.vgaconf"
	second := env.configs.URL + "/maps/rivers.vgaconf"

	readBody(t, get(t, c, env.srv.URL+"/?configUrl="+url.QueryEscape(first)))
	readBody(t, get(t, c, env.srv.URL+"/?configUrl="+url.QueryEscape(second)))

	resp := postForm(t, c, env.srv.URL+"/history/back", nil)
	expectRedirect(t, resp, "/?configUrl="+url.QueryEscape(first))

	body := readBody(t, get(t, c, env.srv.URL+"/?configUrl="+url.QueryEscape(first)))
	if !strings.Contains(body, "<title>Demo</title>") {
		t.Fatalf("expected the first config after going back:\n%s", body)
	}

	resp = postForm(t, c, env.srv.URL+"/history/forward", nil)
	expectRedirect(t, resp, "/?configUrl="+url.QueryEscape(second))
}

func TestRestoredSessionOnFirstVisit(t *testing.T) {
	env := newTestEnv(t)
	err := env.sessions.SaveRecord(session.Record{
		Config:   []byte(`{"pageTitle":"Saved"}`),
		Location: "?configUrl=https%3A%2F%2Fexample.org%2Fsaved.vgaconf",
	})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := env.sessions.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	body := readBody(t, get(t, env.browser(t), env.srv.URL+"/"))
	if !strings.Contains(body, "<title>Saved</title>") {
		t.Fatalf("expected the restored config on the first visit:\n%s", body)
	}

	// Only the first session is seeded.
	body = readBody(t, get(t, env.browser(t), env.srv.URL+"/"))
	if !strings.Contains(body, "Load Config URL") {
		t.Fatalf("expected the shell for a second browser:\n%s", body)
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/icons/vga.svg", "/demos/blank-map.vgaconf"} {
		resp, err := http.Get(env.srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
