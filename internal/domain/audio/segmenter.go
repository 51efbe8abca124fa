// Package audio accumulates binary audio frames per session and assembles
// them into segments for transcription. Frame size stands in for voice
// activity detection: tiny frames carry near-silent audio and are dropped.
package audio

import (
	"sync"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

// Defaults applied when the corresponding config value is zero.
const (
	DefaultSilenceThreshold = 200
	DefaultMinSegmentBytes  = 8192
	DefaultFlushInterval    = 1800 * time.Millisecond
)

// FlushFunc receives an assembled segment after an inactivity flush.
// It is called without holding any segmenter lock.
type FlushFunc func(sessionID string, segment []byte)

// Options tunes the segmentation heuristics.
type Options struct {
	SilenceThreshold int
	MinSegmentBytes  int
	FlushInterval    time.Duration
}

// Segmenter tracks one buffer per session. Sessions are isolated: ingestion
// and flushing for one session never block another.
type Segmenter struct {
	opts   Options
	onsegm FlushFunc
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*sessionBuffer
}

type sessionBuffer struct {
	mu         sync.Mutex
	buf        []byte
	timer      *time.Timer
	lastIngest time.Time
	closed     bool
}

// NewSegmenter creates a segmenter that delivers inactivity-flushed segments
// to onFlush.
func NewSegmenter(opts Options, onFlush FlushFunc, logger *logging.Logger) *Segmenter {
	if opts.SilenceThreshold <= 0 {
		opts.SilenceThreshold = DefaultSilenceThreshold
	}
	if opts.MinSegmentBytes <= 0 {
		opts.MinSegmentBytes = DefaultMinSegmentBytes
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	return &Segmenter{
		opts:     opts,
		onsegm:   onFlush,
		logger:   logger,
		sessions: make(map[string]*sessionBuffer),
	}
}

// Open registers a session buffer. Repeated opens are no-ops.
func (s *Segmenter) Open(sessionID string) {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = &sessionBuffer{}
	}
	s.mu.Unlock()
}

// Ingest appends one frame to the session buffer. Frames at or below the
// silence threshold are dropped without touching the buffer or the timer.
// Frames for unknown sessions are ignored.
func (s *Segmenter) Ingest(sessionID string, frame []byte) {
	if len(frame) <= s.opts.SilenceThreshold {
		return
	}

	sb := s.lookup(sessionID)
	if sb == nil {
		return
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return
	}

	sb.buf = append(sb.buf, frame...)
	sb.lastIngest = time.Now()

	if sb.timer == nil {
		sb.timer = time.AfterFunc(s.opts.FlushInterval, func() {
			s.timerFlush(sessionID, sb)
		})
	} else {
		sb.timer.Reset(s.opts.FlushInterval)
	}
}

// ForceFlush drains the session buffer and returns the segment regardless of
// the minimum size gate. Returns nil when nothing is buffered.
func (s *Segmenter) ForceFlush(sessionID string) []byte {
	sb := s.lookup(sessionID)
	if sb == nil {
		return nil
	}

	sb.mu.Lock()
	segment := sb.take()
	sb.mu.Unlock()
	return segment
}

// Close cancels the session's timer and discards any buffered audio.
func (s *Segmenter) Close(sessionID string) {
	s.mu.Lock()
	sb := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if sb == nil {
		return
	}
	sb.mu.Lock()
	sb.closed = true
	sb.take()
	sb.mu.Unlock()
}

// Buffered reports the current buffer length for a session.
func (s *Segmenter) Buffered(sessionID string) int {
	sb := s.lookup(sessionID)
	if sb == nil {
		return 0
	}
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return len(sb.buf)
}

func (s *Segmenter) lookup(sessionID string) *sessionBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// timerFlush runs on inactivity expiry. Segments below the minimum viable
// size are discarded: they hold too little speech to transcribe.
func (s *Segmenter) timerFlush(sessionID string, sb *sessionBuffer) {
	sb.mu.Lock()
	if sb.closed {
		sb.mu.Unlock()
		return
	}
	// A frame can land between the timer firing and this callback taking the
	// lock. That frame deserves its full inactivity window: re-arm for the
	// remainder instead of flushing it early.
	if remaining := s.opts.FlushInterval - time.Since(sb.lastIngest); remaining > 0 {
		if sb.timer != nil {
			sb.timer.Reset(remaining)
		}
		sb.mu.Unlock()
		return
	}
	segment := sb.take()
	sb.mu.Unlock()

	if len(segment) == 0 {
		return
	}
	if len(segment) < s.opts.MinSegmentBytes {
		if s.logger != nil {
			s.logger.DebugTag("Audio", "discarding too-short segment of %d bytes for session %s",
				len(segment), sessionID)
		}
		return
	}
	s.onsegm(sessionID, segment)
}

// take drains the buffer and stops the pending timer. Caller holds sb.mu.
func (sb *sessionBuffer) take() []byte {
	if sb.timer != nil {
		sb.timer.Stop()
		sb.timer = nil
	}
	if len(sb.buf) == 0 {
		return nil
	}
	segment := sb.buf
	sb.buf = nil
	return segment
}
