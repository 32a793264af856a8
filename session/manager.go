package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vga-app/codec"
	"vga-app/kv"
	"vga-app/vgaconf"
)

var ErrNotFound = errors.New("session not found")

// RecordKey is the store key of the last-loaded session record.
const RecordKey = "session"

// Record is the last successfully loaded configuration, persisted so that a
// restarted server can restore what the user was looking at.
type Record struct {
	Config   []byte    `cbor:"config"`
	BaseURL  string    `cbor:"baseUrl,omitempty"`
	Location string    `cbor:"location"`
	SavedAt  time.Time `cbor:"savedAt"`
}

// State parses the recorded configuration back into a history state.
func (r Record) State() (*HistoryState, error) {
	doc, err := vgaconf.Parse("session record", r.Config)
	if err != nil {
		return nil, err
	}
	return &HistoryState{Config: doc, BaseURL: r.BaseURL}, nil
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    kv.Store
	now      func() time.Time

	// pending seeds the first session created after Restore.
	pending *HistoryEntry
}

func NewManager(store kv.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		now:      time.Now,
	}
}

// Restore reads the last-loaded session record so the next Create starts from
// it. A missing record is not an error.
func (m *Manager) Restore() error {
	rec, ok, err := m.Record()
	if err != nil || !ok {
		return err
	}
	state, err := rec.State()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &HistoryEntry{Location: rec.Location, State: state}
	return nil
}

// Create starts a new session. The first session after Restore has the
// restored entry pushed onto its history.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSession(uuid.New().String(), m.now())
	if m.pending != nil {
		s.PushState(m.pending.State, m.pending.Location)
		m.pending = nil
	}
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	return list
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Kill removes a session and closes its Done channel, which disconnects its
// client.
func (m *Manager) Kill(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.close()
	delete(m.sessions, id)
	return nil
}

// Expire kills sessions with no client that have been idle longer than
// maxIdle, and returns how many were removed.
func (m *Manager) Expire(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if !s.IsConnected() && s.LastActive().Before(cutoff) {
			s.close()
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Broadcast notifies every session.
func (m *Manager) Broadcast(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.Notify(ev)
	}
}

// SaveRecord persists rec as the last-loaded session record.
func (m *Manager) SaveRecord(rec Record) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = m.now()
	}
	data, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}
	if err := m.store.Set(RecordKey, data); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	return nil
}

// Record returns the persisted session record, if any.
func (m *Manager) Record() (Record, bool, error) {
	data, err := m.store.Get(RecordKey)
	if errors.Is(err, kv.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("reading session record: %w", err)
	}
	var rec Record
	if err := codec.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding session record: %w", err)
	}
	return rec, true, nil
}
