package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"vga-app/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is a message from the client. "back" and "forward" move the
// session through its history; the reply is a navigate event naming the new
// location.
type wsRequest struct {
	Type string `json:"type"`
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.apiSession(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", s.ID, "error", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(ev session.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	outChan := make(chan session.Event, 64)
	kick := s.SetClient(outChan) // kicks any prior client
	defer s.ClearClient(outChan) // closes outChan

	// Pump session events to the client until ClearClient closes outChan.
	go func() {
		for ev := range outChan {
			if err := writeMsg(ev); err != nil {
				return
			}
		}
	}()

	// Close the connection on session end or displacement so ReadJSON below
	// unblocks.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-s.Done():
			writeMsg(session.Event{Type: session.EventClosed}) //nolint:errcheck
			conn.Close()
		case <-kick:
			// Displaced by a newer connection; no "closed" event, the session
			// lives on.
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	for {
		var msg wsRequest
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		var (
			entry session.HistoryEntry
			moved bool
		)
		switch msg.Type {
		case "back":
			entry, moved = s.Back()
		case "forward":
			entry, moved = s.Forward()
		default:
			continue
		}
		if !moved {
			continue
		}
		if err := writeMsg(session.Event{Type: session.EventNavigate, Location: entry.Location}); err != nil {
			return
		}
	}
}
