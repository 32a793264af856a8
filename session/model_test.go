package session

import (
	"testing"
	"time"

	"vga-app/vgaconf"
)

func testState(t *testing.T, title string) *HistoryState {
	t.Helper()
	doc, err := vgaconf.Parse("test", []byte(`{"pageTitle":"`+title+`"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return &HistoryState{Config: doc}
}

func TestSetClientConnected(t *testing.T) {
	s := newSession("s", time.Now())
	ch := make(chan Event, 1)
	kick := s.SetClient(ch)
	if !s.IsConnected() {
		t.Fatal("expected Connected to be true after SetClient")
	}
	if kick == nil {
		t.Fatal("expected non-nil kick channel")
	}
}

func TestSetClientKicksPrior(t *testing.T) {
	s := newSession("s", time.Now())
	ch1 := make(chan Event, 1)
	kick1 := s.SetClient(ch1)

	ch2 := make(chan Event, 1)
	_ = s.SetClient(ch2)

	select {
	case <-kick1:
	default:
		t.Fatal("first client's kick channel was not closed on displacement")
	}
}

func TestClearClientOwnershipGuard(t *testing.T) {
	s := newSession("s", time.Now())
	ch1 := make(chan Event, 1)
	_ = s.SetClient(ch1)

	ch2 := make(chan Event, 1)
	_ = s.SetClient(ch2)

	// ClearClient with the displaced channel should NOT clear Connected.
	s.ClearClient(ch1)
	if !s.IsConnected() {
		t.Fatal("ClearClient with displaced channel should not clear Connected")
	}

	s.ClearClient(ch2)
	if s.IsConnected() {
		t.Fatal("ClearClient with current channel should clear Connected")
	}
}

func TestNotifyDropsWhenFull(t *testing.T) {
	s := newSession("s", time.Now())
	s.Notify(Event{Type: EventRecents}) // no client: dropped

	ch := make(chan Event, 1)
	s.SetClient(ch)
	s.Notify(Event{Type: EventConfig, Title: "first"})
	s.Notify(Event{Type: EventConfig, Title: "second"}) // buffer full: dropped

	got := <-ch
	if got.Title != "first" {
		t.Fatalf("expected first event, got %+v", got)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestHistoryPushBackForward(t *testing.T) {
	s := newSession("s", time.Now())
	a, b := testState(t, "A"), testState(t, "B")

	s.PushState(a, "?configUrl=a")
	s.PushState(b, "?configUrl=b")
	if cur := s.Current(); cur.Location != "?configUrl=b" || cur.State != b {
		t.Fatalf("unexpected current entry %+v", cur)
	}

	entry, ok := s.Back()
	if !ok || entry.State != a {
		t.Fatalf("Back: got %+v, %v", entry, ok)
	}
	entry, ok = s.Back()
	if !ok || entry.State != nil || entry.Location != "/" {
		t.Fatalf("Back to start: got %+v, %v", entry, ok)
	}
	if _, ok := s.Back(); ok {
		t.Fatal("Back at the first entry should report false")
	}
	if s.CanGoBack() || !s.CanGoForward() {
		t.Fatal("at the first entry only forward should be possible")
	}

	entry, ok = s.Forward()
	if !ok || entry.State != a {
		t.Fatalf("Forward: got %+v, %v", entry, ok)
	}

	// Pushing from the middle drops the forward entry for b.
	c := testState(t, "C")
	s.PushState(c, "?configFile=c.vgaconf")
	if _, ok := s.Forward(); ok {
		t.Fatal("forward entries should be discarded by PushState")
	}
	if n := s.HistoryLen(); n != 3 {
		t.Fatalf("expected 3 history entries, got %d", n)
	}
}

func TestHistoryReplaceState(t *testing.T) {
	s := newSession("s", time.Now())
	s.PushState(testState(t, "A"), "?configUrl=a")
	s.ReplaceState(nil, "")
	cur := s.Current()
	if cur.State != nil {
		t.Fatal("ReplaceState(nil) should clear the state")
	}
	if cur.Location != "?configUrl=a" {
		t.Fatalf("empty location should keep the current one, got %q", cur.Location)
	}
}

func TestHistoryPushRefillsConsumedEntry(t *testing.T) {
	s := newSession("s", time.Now())
	s.PushState(testState(t, "A"), "?configUrl=a")
	s.PushState(testState(t, "B"), "?configUrl=b")
	s.Back()
	s.ReplaceState(nil, "")

	a := testState(t, "A")
	s.PushState(a, "?configUrl=a")
	if n := s.HistoryLen(); n != 3 {
		t.Fatalf("refilling should not add an entry, got %d entries", n)
	}
	if cur := s.Current(); cur.State != a {
		t.Fatalf("expected refilled state, got %+v", cur)
	}
	if entry, ok := s.Forward(); !ok || entry.Location != "?configUrl=b" {
		t.Fatalf("forward entry should survive a refill, got %+v, %v", entry, ok)
	}
}

func TestHistoryBounded(t *testing.T) {
	s := newSession("s", time.Now())
	for i := 0; i < maxHistory+5; i++ {
		s.PushState(nil, "?configUrl=x")
	}
	if n := s.HistoryLen(); n != maxHistory {
		t.Fatalf("expected history capped at %d, got %d", maxHistory, n)
	}
	if _, ok := s.Forward(); ok {
		t.Fatal("cursor should be at the newest entry")
	}
}
