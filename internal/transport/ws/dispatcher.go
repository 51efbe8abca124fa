package ws

import (
	"sync"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/pipeline"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
)

// Dispatcher fans pipeline results out to the handler owning each
// connection. The coordinator sees one listener; handlers come and go with
// their connections.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]pipeline.Listener
}

// NewDispatcher builds an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]pipeline.Listener),
	}
}

// Attach registers the listener for a connection.
func (d *Dispatcher) Attach(connID string, listener pipeline.Listener) {
	d.mu.Lock()
	d.handlers[connID] = listener
	d.mu.Unlock()
}

// Detach removes the listener for a connection. Results arriving afterwards
// are dropped, matching the discard-on-disconnect contract.
func (d *Dispatcher) Detach(connID string) {
	d.mu.Lock()
	delete(d.handlers, connID)
	d.mu.Unlock()
}

func (d *Dispatcher) listener(connID string) pipeline.Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[connID]
}

func (d *Dispatcher) OnTranscription(s *session.Session, tr pipeline.Transcription) {
	if l := d.listener(s.ConnID); l != nil {
		l.OnTranscription(s, tr)
	}
}

func (d *Dispatcher) OnTranslation(s *session.Session, tr pipeline.Translation) {
	if l := d.listener(s.ConnID); l != nil {
		l.OnTranslation(s, tr)
	}
}

func (d *Dispatcher) OnPipelineError(s *session.Session, stage string, err error) {
	if l := d.listener(s.ConnID); l != nil {
		l.OnPipelineError(s, stage, err)
	}
}
