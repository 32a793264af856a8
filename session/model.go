package session

import (
	"sync"
	"time"

	"vga-app/vgaconf"
)

// maxHistory bounds the navigation history of one session; the oldest entries
// are dropped first.
const maxHistory = 50

// Event types delivered to a connected client.
const (
	EventConfig   = "config"
	EventRecents  = "recents"
	EventNavigate = "navigate"
	EventClosed   = "closed"
)

// Event is a notification pushed to the session's client.
type Event struct {
	Type     string `json:"type"`
	Location string `json:"location,omitempty"`
	Title    string `json:"title,omitempty"`
}

// HistoryState is the state attached to a history entry: the loaded
// configuration and, for URL sources, the base URL handed to the host.
type HistoryState struct {
	Config  vgaconf.Document `json:"config"`
	BaseURL string           `json:"visHostBaseUrl,omitempty"`
}

// HistoryEntry pairs a location such as "?configUrl=..." with its state. A
// nil State is an entry with nothing to restore.
type HistoryEntry struct {
	Location string        `json:"location"`
	State    *HistoryState `json:"state,omitempty"`
}

// Info is a point-in-time copy of a session's listing fields.
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`
	History    int       `json:"history"`
}

// Session is one shell tab: its navigation history and its event client.
type Session struct {
	ID        string
	CreatedAt time.Time

	histMu     sync.Mutex
	history    []HistoryEntry
	cursor     int
	lastActive time.Time // guarded by histMu

	outChan   chan Event
	kickChan  chan struct{}
	connected bool // guarded by outMu
	outMu     sync.Mutex
	done      chan struct{}
	doneOnce  sync.Once
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		lastActive: now,
		history:    []HistoryEntry{{Location: "/"}},
		done:       make(chan struct{}),
	}
}

// PushState adds an entry after the current one, discarding any forward
// entries. Pushing a state for the location of the current entry, after that
// entry's state was consumed, refills the entry in place as a reload would.
func (s *Session) PushState(state *HistoryState, location string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.lastActive = time.Now()
	if cur := &s.history[s.cursor]; state != nil && cur.State == nil && cur.Location == location {
		cur.State = state
		return
	}
	s.history = append(s.history[:s.cursor+1], HistoryEntry{Location: location, State: state})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.cursor = len(s.history) - 1
}

// ReplaceState overwrites the current entry. An empty location keeps the
// current one.
func (s *Session) ReplaceState(state *HistoryState, location string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if location == "" {
		location = s.history[s.cursor].Location
	}
	s.history[s.cursor] = HistoryEntry{Location: location, State: state}
}

// Current returns the current history entry.
func (s *Session) Current() HistoryEntry {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.history[s.cursor]
}

// Back moves to the previous entry. It reports false at the first entry.
func (s *Session) Back() (HistoryEntry, bool) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if s.cursor == 0 {
		return s.history[0], false
	}
	s.cursor--
	return s.history[s.cursor], true
}

// Forward moves to the next entry. It reports false at the last entry.
func (s *Session) Forward() (HistoryEntry, bool) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if s.cursor == len(s.history)-1 {
		return s.history[s.cursor], false
	}
	s.cursor++
	return s.history[s.cursor], true
}

// CanGoBack reports whether Back would move.
func (s *Session) CanGoBack() bool {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.cursor > 0
}

// CanGoForward reports whether Forward would move.
func (s *Session) CanGoForward() bool {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.cursor < len(s.history)-1
}

// LastActive is the time of the last history change.
func (s *Session) LastActive() time.Time {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.lastActive
}

// HistoryLen is the number of entries in the history.
func (s *Session) HistoryLen() int {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return len(s.history)
}

// Info snapshots the session for listing.
func (s *Session) Info() Info {
	return Info{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
		Connected:  s.IsConnected(),
		History:    s.HistoryLen(),
	}
}

// SetClient registers a channel to receive events. If a previous client is
// connected it is kicked: its kick channel is closed so the websocket handler
// can close that connection. Returns a kick channel that will be closed if
// this client is itself later displaced.
func (s *Session) SetClient(ch chan Event) <-chan struct{} {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.kickChan != nil {
		close(s.kickChan)
	}
	kick := make(chan struct{})
	s.kickChan = kick
	s.outChan = ch
	s.connected = true
	return kick
}

// ClearClient is called when a connection ends. It only updates session state
// if ch is still the current owner, so a displaced connection cannot clear a
// newer one. It always closes ch so the pump goroutine exits.
func (s *Session) ClearClient(ch chan Event) {
	s.outMu.Lock()
	if s.outChan == ch {
		s.outChan = nil
		s.connected = false
		s.kickChan = nil
	}
	s.outMu.Unlock()
	close(ch)
}

// IsConnected reports whether a client is registered.
func (s *Session) IsConnected() bool {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.connected
}

// Notify delivers ev to the connected client, dropping it if there is none or
// the client is not keeping up.
func (s *Session) Notify(ev Event) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outChan == nil {
		return
	}
	select {
	case s.outChan <- ev:
	default:
	}
}

// Done returns a channel that is closed when the session is killed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.doneOnce.Do(func() { close(s.done) })
}
