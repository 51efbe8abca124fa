package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/eventbus"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/glossary"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/translation"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

// Defaults for the idle sweep when the config leaves them zero.
const (
	DefaultIdleTimeout   = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Options tunes session housekeeping.
type Options struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	MaxExchanges  int
}

// EvictFunc is invoked when the sweeper drops an idle session, after the
// session has been removed from the table. The connection is expected to be
// already gone, so no client notification is sent.
type EvictFunc func(s *Session)

// Manager owns the connection-to-session table. All lifecycle transitions
// flow through it; misordered requests return typed errors and never tear
// the session down.
type Manager struct {
	opts     Options
	logger   *logging.Logger
	glossary glossary.Store

	mu       sync.RWMutex
	sessions map[string]*Session

	onEvict EvictFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a manager. glossaryStore may be nil when term
// persistence is disabled.
func NewManager(opts Options, glossaryStore glossary.Store, logger *logging.Logger) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Manager{
		opts:     opts,
		logger:   logger,
		glossary: glossaryStore,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// OnEvict registers the idle-eviction hook. Must be called before Start.
func (m *Manager) OnEvict(fn EvictFunc) {
	m.onEvict = fn
}

// Start launches the idle sweeper.
func (m *Manager) Start() {
	go m.sweepLoop()
}

// Stop halts the sweeper.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Connect registers a new connection and returns its session record.
func (m *Manager) Connect(connID string) *Session {
	if connID == "" {
		connID = uuid.NewString()
	}
	s := newSession(connID)

	m.mu.Lock()
	m.sessions[connID] = s
	m.mu.Unlock()

	m.logger.InfoTag("Session", "connection %s registered", connID)
	return s
}

// Get returns the session for a connection.
func (m *Manager) Get(connID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[connID]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.KindNoActiveSession, "session.Get", "unknown connection")
	}
	return s, nil
}

// StartSession activates a translation session on the connection. A missing
// session id is generated. The conversation context is reset and seeded from
// the glossary store for the language pair.
func (m *Manager) StartSession(ctx context.Context, connID, sessionID, sourceLang, targetLang string) (*Session, error) {
	s, err := m.Get(connID)
	if err != nil {
		return nil, err
	}

	if s.RunsInFlight() > 0 {
		return nil, errors.New(errors.KindInvalidState, "session.StartSession",
			"pipeline run in flight, stop audio before restarting the session")
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	seed := m.seedTerms(ctx, sourceLang, targetLang)

	s.mu.Lock()
	s.id = sessionID
	s.sourceLanguage = sourceLang
	s.targetLanguage = targetLang
	s.state = StateActive
	s.generation++
	s.lastActivity = time.Now()
	s.translationCtx = translation.NewContext(m.opts.MaxExchanges)
	s.translationCtx.SeedGlossary(seed)
	s.mu.Unlock()

	m.logger.InfoTag("Session", "session %s started on %s (%s -> %s)",
		sessionID, connID, sourceLang, targetLang)
	eventbus.Publish(eventbus.EventSessionStarted, eventbus.SessionEventData{
		ConnectionID:   connID,
		SessionID:      sessionID,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	})
	return s, nil
}

// StopSession deactivates the session, keeping the connection alive. The
// generation bump makes any in-flight pipeline results stale.
func (m *Manager) StopSession(connID string) error {
	s, err := m.activeSession(connID, "session.StopSession")
	if err != nil {
		return err
	}

	s.mu.Lock()
	sessionID := s.id
	s.id = ""
	s.state = StateConnected
	s.generation++
	s.lastActivity = time.Now()
	s.translationCtx = nil
	s.mu.Unlock()

	m.logger.InfoTag("Session", "session %s stopped on %s", sessionID, connID)
	eventbus.Publish(eventbus.EventSessionStopped, eventbus.SessionEventData{
		ConnectionID: connID,
		SessionID:    sessionID,
	})
	return nil
}

// StartAudio begins accepting audio frames for the active session.
func (m *Manager) StartAudio(connID string) error {
	s, err := m.activeSession(connID, "session.StartAudio")
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateRecording
	s.lastActivity = time.Now()
	s.mu.Unlock()
	return nil
}

// StopAudio stops accepting audio frames. The caller force-flushes the
// segmenter so the final partial segment still reaches the pipeline.
func (m *Manager) StopAudio(connID string) error {
	s, err := m.activeSession(connID, "session.StopAudio")
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateRecording {
		s.state = StateActive
	}
	s.lastActivity = time.Now()
	s.mu.Unlock()
	return nil
}

// UpdateConfig changes the language pair, synthesis voice, or glossary of an
// active session. Empty strings leave the current value untouched. New
// glossary terms are persisted for the session's language pair.
func (m *Manager) UpdateConfig(ctx context.Context, connID, sourceLang, targetLang, voice string, terms map[string]string) (*Session, error) {
	s, err := m.activeSession(connID, "session.UpdateConfig")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if sourceLang != "" {
		s.sourceLanguage = sourceLang
	}
	if targetLang != "" {
		s.targetLanguage = targetLang
	}
	if voice != "" {
		s.voice = voice
	}
	source, target := s.sourceLanguage, s.targetLanguage
	tctx := s.translationCtx
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if len(terms) > 0 && tctx != nil {
		tctx.SeedGlossary(terms)
		if m.glossary != nil {
			pair := glossaryPair(source, target)
			for term, tr := range terms {
				if err := m.glossary.Put(ctx, pair, term, tr); err != nil {
					m.logger.WarnTag("Glossary", "persist term %q failed: %v", term, err)
				}
			}
		}
	}
	return s, nil
}

// Disconnect removes the connection and returns its session record so the
// transport layer can release per-session resources.
func (m *Manager) Disconnect(connID string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[connID]
	delete(m.sessions, connID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.generation++
	s.mu.Unlock()

	m.logger.InfoTag("Session", "connection %s disconnected", connID)
	return s
}

// Count reports the number of live connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) activeSession(connID, op string) (*Session, error) {
	s, err := m.Get(connID)
	if err != nil {
		return nil, err
	}
	state := s.State()
	if state != StateActive && state != StateRecording {
		return nil, errors.New(errors.KindNoActiveSession, op, "no active session")
	}
	return s, nil
}

func (m *Manager) seedTerms(ctx context.Context, sourceLang, targetLang string) map[string]string {
	if m.glossary == nil {
		return nil
	}
	terms, err := m.glossary.Terms(ctx, glossaryPair(sourceLang, targetLang))
	if err != nil {
		m.logger.WarnTag("Glossary", "load terms for %s|%s failed: %v", sourceLang, targetLang, err)
		return nil
	}
	return terms
}

func glossaryPair(sourceLang, targetLang string) string {
	return sourceLang + "|" + targetLang
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCh:
			return
		}
	}
}

// sweep evicts sessions idle past the timeout. No client notification is
// sent; the connection is expected to be already gone.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var evicted []*Session
	for connID, s := range m.sessions {
		if s.LastActivity().Before(cutoff) && s.RunsInFlight() == 0 {
			delete(m.sessions, connID)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		sessionID := s.ID()
		s.mu.Lock()
		s.state = StateDisconnected
		s.generation++
		s.mu.Unlock()

		m.logger.InfoTag("Session", "evicted idle connection %s (session %s)", s.ConnID, sessionID)
		eventbus.Publish(eventbus.EventSessionEvicted, eventbus.SessionEventData{
			ConnectionID: s.ConnID,
			SessionID:    sessionID,
		})
		if m.onEvict != nil {
			m.onEvict(s)
		}
	}
}
