// Package session owns the per-connection translation session lifecycle and
// the idle-eviction sweep.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/translation"
)

// State of a session within its lifecycle.
type State string

const (
	StateConnected    State = "connected"
	StateActive       State = "active"
	StateRecording    State = "recording"
	StateDisconnected State = "disconnected"
)

// Session tracks one client connection and its active translation session.
// The manager is the only writer of lifecycle fields; the pipeline reads
// generation and run counters concurrently.
type Session struct {
	ConnID string

	mu             sync.Mutex
	id             string
	sourceLanguage string
	targetLanguage string
	voice          string
	state          State
	generation     uint64
	lastActivity   time.Time
	translationCtx *translation.Context

	runs atomic.Int32
}

func newSession(connID string) *Session {
	return &Session{
		ConnID:       connID,
		state:        StateConnected,
		lastActivity: time.Now(),
	}
}

// ID returns the active session id, empty when no session is started.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Languages returns the configured source and target language codes.
func (s *Session) Languages() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceLanguage, s.targetLanguage
}

// Voice returns the synthesis voice id selected for this session, if any.
func (s *Session) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recording reports whether audio frames are currently accepted.
func (s *Session) Recording() bool {
	return s.State() == StateRecording
}

// Generation identifies the current session epoch. Results produced under an
// older generation are stale and must be discarded.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Translation returns the conversation context for the active session.
func (s *Session) Translation() *translation.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.translationCtx
}

// Touch refreshes the activity timestamp used by the idle sweeper.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the most recent activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// BeginRun marks one pipeline run in flight.
func (s *Session) BeginRun() {
	s.runs.Add(1)
}

// EndRun marks one pipeline run finished.
func (s *Session) EndRun() {
	s.runs.Add(-1)
}

// RunsInFlight reports the number of pipeline runs currently executing.
func (s *Session) RunsInFlight() int {
	return int(s.runs.Load())
}
