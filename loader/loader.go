// Package loader acquires configuration documents and records them.
//
// Every successful load pushes a history entry on the session it was given,
// writes the last-loaded session record, and moves the source to the front of
// the recents list. The last two are bookkeeping: their failures are logged
// and do not fail the load.
package loader

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vga-app/files"
	"vga-app/recent"
	"vga-app/session"
	"vga-app/vgaconf"
)

// DefaultMaxBytes bounds a fetched configuration.
const DefaultMaxBytes int64 = 64 << 20

// History is the navigation history of the session a load happens in.
type History interface {
	PushState(state *session.HistoryState, location string)
	ReplaceState(state *session.HistoryState, location string)
	Current() session.HistoryEntry
}

// Recorder persists the last-loaded session record.
type Recorder interface {
	SaveRecord(rec session.Record) error
}

// State is the outcome of a load: the configuration handed to the host, the
// base URL for its relative resources, where it came from, and the location
// the history entry was pushed with.
type State struct {
	Config   vgaconf.Document
	BaseURL  string
	Source   recent.Source
	Location string
}

// Loaded reports whether a configuration is present.
func (s State) Loaded() bool { return !s.Config.IsZero() }

type Options struct {
	Client  *http.Client
	Timeout time.Duration
	// MaxBytes bounds fetched bodies; zero means DefaultMaxBytes.
	MaxBytes int64
	// Origin resolves URLs that are not absolute, such as "/demos/a.vgaconf".
	// When nil such URLs are rejected.
	Origin *url.URL

	Files   *files.Registry
	Picker  files.Picker
	Recents *recent.Store
	Records Recorder
	Logger  *slog.Logger
}

type Loader struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	origin   *url.URL
	files    *files.Registry
	picker   files.Picker
	recents  *recent.Store
	records  Recorder
	logger   *slog.Logger
}

func New(opts Options) *Loader {
	l := &Loader{
		client:   opts.Client,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		origin:   opts.Origin,
		files:    opts.Files,
		picker:   opts.Picker,
		recents:  opts.Recents,
		records:  opts.Records,
		logger:   opts.Logger,
	}
	if l.client == nil {
		l.client = http.DefaultClient
	}
	if l.maxBytes <= 0 {
		l.maxBytes = DefaultMaxBytes
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// URLLocation is the history location for a configuration loaded from rawURL.
func URLLocation(rawURL string) string {
	return "?configUrl=" + url.QueryEscape(rawURL)
}

// FileLocation is the history location for a configuration loaded from a
// file named name.
func FileLocation(name string) string {
	return "?configFile=" + url.QueryEscape(name)
}

// LoadFromURL fetches and parses the configuration at rawURL.
func (l *Loader) LoadFromURL(ctx context.Context, hist History, rawURL string) (State, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return State{}, ErrEmptyURL
	}

	data, err := l.fetch(ctx, rawURL)
	if err != nil {
		return State{}, err
	}
	doc, err := vgaconf.Parse(rawURL, data)
	if err != nil {
		return State{}, err
	}

	base, _ := vgaconf.BaseURL(rawURL)
	st := State{
		Config:   doc,
		BaseURL:  base,
		Source:   recent.URLSource(rawURL),
		Location: URLLocation(rawURL),
	}
	l.commit(hist, st)
	return st, nil
}

// LoadFromFile reads and parses the configuration behind h. A nil h asks the
// picker for a file first.
func (l *Loader) LoadFromFile(ctx context.Context, hist History, h *files.Handle) (State, error) {
	if h == nil {
		if l.picker == nil {
			return State{}, ErrNoFileSelected
		}
		picked, err := l.picker.Pick(ctx)
		if errors.Is(err, files.ErrCancelled) {
			return State{}, ErrNoFileSelected
		}
		if err != nil {
			return State{}, fmt.Errorf("picking a file: %w", err)
		}
		h = &picked
	}

	if l.files.RequestPermission(*h, files.ModeRead) != files.Granted {
		return State{}, ErrPermissionDenied
	}
	data, err := l.files.Read(ctx, *h)
	if err != nil {
		return State{}, err
	}
	doc, err := vgaconf.Parse(h.Name, data)
	if err != nil {
		return State{}, err
	}

	st := State{
		Config:   doc,
		Source:   recent.FileSource(*h),
		Location: FileLocation(h.Name),
	}
	l.commit(hist, st)
	return st, nil
}

// PromptURL validates what the user typed into the "Load Config URL" prompt
// and returns the location to navigate to. Loading happens on arrival.
func (l *Loader) PromptURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrNoContent
	}
	return URLLocation(input), nil
}

// OpenRecent reopens the recents entry at index. URL entries are not loaded
// here: the returned location carries them through activation. File entries
// are loaded immediately.
func (l *Loader) OpenRecent(ctx context.Context, hist History, index int) (State, string, error) {
	entry, err := l.recents.Get(index)
	if err != nil {
		return State{}, "", err
	}
	if !entry.Source.IsFile() {
		return State{}, URLLocation(entry.Source.URL), nil
	}
	h := l.files.Adopt(*entry.Source.File)
	st, err := l.LoadFromFile(ctx, hist, &h)
	if err != nil {
		return State{}, "", err
	}
	return st, st.Location, nil
}

func (l *Loader) commit(hist History, st State) {
	hist.PushState(&session.HistoryState{Config: st.Config, BaseURL: st.BaseURL}, st.Location)

	if l.records != nil {
		rec := session.Record{
			Config:   st.Config.Bytes(),
			BaseURL:  st.BaseURL,
			Location: st.Location,
		}
		if err := l.records.SaveRecord(rec); err != nil {
			l.logger.Warn("saving session record failed", "location", st.Location, "error", err)
		}
	}

	if l.recents != nil {
		entry := recent.Entry{
			Name:   st.Config.Title(),
			Icon:   st.Config.Icon(),
			Source: st.Source,
		}
		if err := l.recents.Upsert(entry); err != nil {
			l.logger.Warn("updating recents failed", "source", st.Source.Label(), "error", err)
		}
	}

	l.logger.Info("configuration loaded",
		"source", st.Source.Label(),
		"title", st.Config.Title(),
		"digest", st.Config.Digest(),
	)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(rawURL), "data:") {
		data, err := decodeDataURL(rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		return data, nil
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if !target.IsAbs() {
		if l.origin == nil {
			return nil, &FetchError{URL: rawURL, Err: errors.New("relative URL with no origin to resolve it against")}
		}
		target = l.origin.ResolveReference(target)
	}
	switch target.Scheme {
	case "http", "https":
	default:
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", target.Scheme)}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", vgaconf.MIMEType)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if int64(len(data)) > l.maxBytes {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("response exceeds %d bytes", l.maxBytes)}
	}
	return data, nil
}

// decodeDataURL returns the payload of an RFC 2397 data: URL.
func decodeDataURL(rawURL string) ([]byte, error) {
	rest := rawURL[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URL")
	}
	meta, payload := rest[:comma], rest[comma+1:]
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(decoded), nil
}
