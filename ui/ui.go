// Package ui renders the shell's HTML pages: the acquisition page (intro,
// demos, recents), the file picker, and the page hosting the visualization
// component.
package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"vga-app/files"
	"vga-app/recent"
	"vga-app/vgaconf"
)

// DefaultIcon and DefaultName stand in for configurations without a favicon
// or pageTitle.
const (
	DefaultIcon = "/icons/vga.svg"
	DefaultName = "VGA App"
)

//go:embed assets
var assets embed.FS

// Static serves the bundled icons and demo configurations, rooted so that
// "icons/vga.svg" and "demos/blank-map.vgaconf" resolve.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic("ui: embedded assets missing: " + err.Error())
	}
	return sub
}

// Demo is one card of the demo gallery.
type Demo struct {
	Label string `json:"label"`
	Image string `json:"image"`
	Href  string `json:"href"`
}

// Demos returns the bundled demo gallery.
func Demos() ([]Demo, error) {
	data, err := assets.ReadFile("assets/demos.json")
	if err != nil {
		return nil, err
	}
	var demos []Demo
	if err := json.Unmarshal(data, &demos); err != nil {
		return nil, fmt.Errorf("ui: parsing demos.json: %w", err)
	}
	return demos, nil
}

type Renderer struct {
	shell  *template.Template
	picker *template.Template
	host   *template.Template

	intro      template.HTML
	demos      []Demo
	hostScript string
}

// NewRenderer parses the page templates and renders the bundled introduction.
// hostScript is the module script that defines <vga-core>.
func NewRenderer(hostScript string) (*Renderer, error) {
	demos, err := Demos()
	if err != nil {
		return nil, err
	}
	source, err := assets.ReadFile("assets/intro.md")
	if err != nil {
		return nil, err
	}
	var intro bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert(source, &intro); err != nil {
		return nil, fmt.Errorf("ui: rendering intro: %w", err)
	}

	// Pages are parsed over the base in a second pass so they may redefine
	// its "head" block.
	parse := func(name, body string) (*template.Template, error) {
		t, err := template.New(name).Funcs(funcMap).Parse(tmplBase)
		if err != nil {
			return nil, err
		}
		return t.Parse(body)
	}
	r := &Renderer{
		intro:      template.HTML(intro.String()),
		demos:      demos,
		hostScript: hostScript,
	}
	if r.shell, err = parse("shell", tmplShell); err != nil {
		return nil, err
	}
	if r.picker, err = parse("picker", tmplPicker); err != nil {
		return nil, err
	}
	if r.host, err = parse("host", tmplHost); err != nil {
		return nil, err
	}
	return r, nil
}

var funcMap = template.FuncMap{
	"orDefault": func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	},
}

// RecentItem is one row of the recents list.
type RecentItem struct {
	Index int
	Name  string
	Icon  string
	Label string
}

// RecentItems converts store entries into rows, filling in defaults.
func RecentItems(entries []recent.Entry) []RecentItem {
	items := make([]RecentItem, len(entries))
	for i, e := range entries {
		items[i] = RecentItem{
			Index: i,
			Name:  e.Name,
			Icon:  e.Icon,
			Label: e.Source.Label(),
		}
	}
	return items
}

// ShellPage is the acquisition page.
type ShellPage struct {
	Alert string
	// SessionID subscribes the page to its session's events when set.
	SessionID string
	Recents   []RecentItem
	// RecentsError replaces the list when the store could not be read.
	RecentsError string
	CanGoBack    bool
	CanGoForward bool
}

type shellData struct {
	ShellPage
	Title string
	Intro template.HTML
	Demos []Demo
}

func (r *Renderer) Shell(w io.Writer, page ShellPage) error {
	return r.shell.ExecuteTemplate(w, "base", shellData{
		ShellPage: page,
		Title:     DefaultName,
		Intro:     r.intro,
		Demos:     r.demos,
	})
}

// PickerPage lists one directory for the file picker.
type PickerPage struct {
	Alert     string
	Dir       string
	Parent    string
	Extension string
	Entries   []files.Entry
}

type pickerData struct {
	PickerPage
	Title string
}

func (r *Renderer) Picker(w io.Writer, page PickerPage) error {
	return r.picker.ExecuteTemplate(w, "base", pickerData{PickerPage: page, Title: "Load Config File"})
}

// HostPage hands a configuration to the visualization component.
type HostPage struct {
	Config  vgaconf.Document
	BaseURL string
}

type hostData struct {
	Alert   string
	Title   string
	Icon    string
	Script  string
	Config  template.JS
	BaseURL string
}

func (r *Renderer) Host(w io.Writer, page HostPage) error {
	// HTMLEscape keeps "</script>" inside string values from ending the
	// element early.
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, page.Config.Bytes())

	title := page.Config.Title()
	if title == "" {
		title = DefaultName
	}
	icon := page.Config.Icon()
	if icon == "" {
		icon = DefaultIcon
	}
	return r.host.ExecuteTemplate(w, "base", hostData{
		Title:   title,
		Icon:    icon,
		Script:  r.hostScript,
		Config:  template.JS(escaped.String()),
		BaseURL: page.BaseURL,
	})
}
