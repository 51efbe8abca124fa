package audio

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu       sync.Mutex
	segments [][]byte
	sessions []string
}

func (r *flushRecorder) flush(sessionID string, segment []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
	r.segments = append(r.segments, segment)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segments)
}

func (r *flushRecorder) segment(i int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segments[i]
}

func voicedFrame(size int) []byte {
	return bytes.Repeat([]byte{0x7f}, size)
}

func TestIngestDropsSilenceFrames(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{SilenceThreshold: 200}, rec.flush, nil)
	seg.Open("s1")

	seg.Ingest("s1", voicedFrame(100))
	seg.Ingest("s1", voicedFrame(200))
	assert.Equal(t, 0, seg.Buffered("s1"))

	seg.Ingest("s1", voicedFrame(201))
	assert.Equal(t, 201, seg.Buffered("s1"))
}

func TestIngestUnknownSessionIsIgnored(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{}, rec.flush, nil)

	seg.Ingest("ghost", voicedFrame(4096))
	assert.Equal(t, 0, seg.Buffered("ghost"))
}

func TestInactivityFlushDeliversSegment(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  1000,
		FlushInterval:    30 * time.Millisecond,
	}, rec.flush, nil)
	seg.Open("s1")

	seg.Ingest("s1", voicedFrame(600))
	seg.Ingest("s1", voicedFrame(600))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.segment(0), 1200)
	assert.Equal(t, 0, seg.Buffered("s1"))
}

func TestInactivityFlushDiscardsTooShortSegment(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  5000,
		FlushInterval:    30 * time.Millisecond,
	}, rec.flush, nil)
	seg.Open("s1")

	seg.Ingest("s1", voicedFrame(600))

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 0, seg.Buffered("s1"))
}

func TestVoicedFramesResetTimer(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  100,
		FlushInterval:    60 * time.Millisecond,
	}, rec.flush, nil)
	seg.Open("s1")

	for i := 0; i < 4; i++ {
		seg.Ingest("s1", voicedFrame(300))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 0, rec.count())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.segment(0), 1200)
}

func TestExpiredTimerDefersToFreshFrame(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 50,
		MinSegmentBytes:  64,
		FlushInterval:    time.Hour,
	}, rec.flush, nil)
	seg.Open("s1")
	seg.Ingest("s1", voicedFrame(128))

	// Simulate the timer callback running right after a frame arrived: the
	// frame keeps its full inactivity window, so nothing flushes.
	sb := seg.lookup("s1")
	require.NotNil(t, sb)
	seg.timerFlush("s1", sb)

	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 128, seg.Buffered("s1"))

	// With the window genuinely elapsed the same callback flushes.
	sb.mu.Lock()
	sb.lastIngest = time.Now().Add(-2 * time.Hour)
	sb.mu.Unlock()
	seg.timerFlush("s1", sb)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, voicedFrame(128), rec.segment(0))
	assert.Equal(t, 0, seg.Buffered("s1"))
}

func TestForceFlushBypassesMinimumGate(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  100000,
		FlushInterval:    time.Minute,
	}, rec.flush, nil)
	seg.Open("s1")

	seg.Ingest("s1", voicedFrame(512))
	segment := seg.ForceFlush("s1")
	assert.Len(t, segment, 512)
	assert.Equal(t, 0, seg.Buffered("s1"))

	assert.Nil(t, seg.ForceFlush("s1"))
	assert.Nil(t, seg.ForceFlush("ghost"))
}

func TestCloseDiscardsBufferAndTimer(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  100,
		FlushInterval:    30 * time.Millisecond,
	}, rec.flush, nil)
	seg.Open("s1")

	seg.Ingest("s1", voicedFrame(600))
	seg.Close("s1")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Nil(t, seg.ForceFlush("s1"))
}

func TestSessionsAreIsolated(t *testing.T) {
	rec := &flushRecorder{}
	seg := NewSegmenter(Options{
		SilenceThreshold: 10,
		MinSegmentBytes:  100,
		FlushInterval:    time.Minute,
	}, rec.flush, nil)
	seg.Open("a")
	seg.Open("b")

	seg.Ingest("a", voicedFrame(300))
	seg.Ingest("b", voicedFrame(700))

	assert.Equal(t, 300, seg.Buffered("a"))
	assert.Equal(t, 700, seg.Buffered("b"))

	seg.Close("a")
	assert.Equal(t, 700, seg.Buffered("b"))
}
