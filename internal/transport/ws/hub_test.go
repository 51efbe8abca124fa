package ws

import (
	"context"
	"testing"
)

type noopHandler struct {
	id string
}

func (h *noopHandler) Handle()              {}
func (h *noopHandler) Close()               {}
func (h *noopHandler) ConnectionID() string { return h.id }

func newHubSession(t *testing.T, id string) *Session {
	t.Helper()
	return NewSession(context.Background(), &noopHandler{id: id}, nil, nil)
}

func TestHubRegisterAndCount(t *testing.T) {
	hub := NewHub(nil)
	first := newHubSession(t, "conn-a")
	second := newHubSession(t, "conn-b")

	hub.Register(first)
	hub.Register(second)
	if got := hub.Count(); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}

	got, ok := hub.Get("conn-a")
	if !ok || got != first {
		t.Fatal("expected to find session for conn-a")
	}

	hub.Unregister(first)
	if got := hub.Count(); got != 1 {
		t.Fatalf("count after unregister = %d, want 1", got)
	}
}

func TestHubDisplacedSessionCannotUnregisterReplacement(t *testing.T) {
	hub := NewHub(nil)
	old := newHubSession(t, "conn-a")
	replacement := newHubSession(t, "conn-a")

	hub.Register(old)
	hub.Register(replacement)

	hub.Unregister(old)

	got, ok := hub.Get("conn-a")
	if !ok || got != replacement {
		t.Fatal("replacement session should survive the displaced session's teardown")
	}
}

func TestHubCloseAllEmptiesHub(t *testing.T) {
	hub := NewHub(nil)
	hub.Register(newHubSession(t, "conn-a"))
	hub.Register(newHubSession(t, "conn-b"))

	hub.CloseAll(nil)
	if got := hub.Count(); got != 0 {
		t.Fatalf("count after CloseAll = %d, want 0", got)
	}
}
