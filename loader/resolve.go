package loader

import (
	"context"
	"net/url"

	"vga-app/files"
	"vga-app/session"
)

// SourceKind names the source activation picked.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceHistory
	SourceQuery
	SourceLaunchQueue
)

func (k SourceKind) String() string {
	switch k {
	case SourceHistory:
		return "history"
	case SourceQuery:
		return "query"
	case SourceLaunchQueue:
		return "launch-queue"
	default:
		return "none"
	}
}

// Inputs are the sources activation looks at. A nil Launch means the runtime
// has no launch queue.
type Inputs struct {
	History History
	Query   url.Values
	Launch  *files.LaunchQueue
}

// Resolution is the first available source, in priority order: a history
// entry carrying a configuration, the configUrl query parameter, then the
// launch queue.
type Resolution struct {
	Kind  SourceKind
	State *session.HistoryState
	URL   string
	File  files.Handle
}

// Resolve picks the source without loading anything. Reaching the launch
// queue consumes one launch request.
func Resolve(in Inputs) Resolution {
	if in.History != nil {
		if cur := in.History.Current(); cur.State != nil && !cur.State.Config.IsZero() {
			return Resolution{Kind: SourceHistory, State: cur.State}
		}
	}
	if u := in.Query.Get("configUrl"); u != "" {
		return Resolution{Kind: SourceQuery, URL: u}
	}
	if h, ok := in.Launch.Consume(); ok {
		return Resolution{Kind: SourceLaunchQueue, File: h}
	}
	return Resolution{Kind: SourceNone}
}

// Activate runs on the first render of a session page. A history state is
// restored as-is and then cleared from the entry so it is used once; the other
// sources go through LoadFromURL or LoadFromFile.
func (l *Loader) Activate(ctx context.Context, hist History, query url.Values, launch *files.LaunchQueue) (State, Resolution, error) {
	res := Resolve(Inputs{History: hist, Query: query, Launch: launch})
	switch res.Kind {
	case SourceHistory:
		location := hist.Current().Location
		hist.ReplaceState(nil, "")
		return State{Config: res.State.Config, BaseURL: res.State.BaseURL, Location: location}, res, nil
	case SourceQuery:
		st, err := l.LoadFromURL(ctx, hist, res.URL)
		return st, res, err
	case SourceLaunchQueue:
		h := l.files.Adopt(res.File)
		st, err := l.LoadFromFile(ctx, hist, &h)
		return st, res, err
	default:
		return State{}, res, nil
	}
}
