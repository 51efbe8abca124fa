package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformerrors "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
)

type fakeAdapter struct {
	name      string
	available bool
	fail      bool
	calls     int
}

func (f *fakeAdapter) Name() string      { return f.name }
func (f *fakeAdapter) Available() bool   { return f.available }
func (f *fakeAdapter) Initialize() error { return nil }
func (f *fakeAdapter) Cleanup() error    { return nil }

func callCounting(t *testing.T) func(ctx context.Context, adapter Adapter) error {
	t.Helper()
	return func(ctx context.Context, adapter Adapter) error {
		fake := adapter.(*fakeAdapter)
		fake.calls++
		if fake.fail {
			return errors.New("upstream failure")
		}
		return nil
	}
}

func TestRegistry_ExecuteFallbackOrder(t *testing.T) {
	registry := NewRegistry(nil)
	first := &fakeAdapter{name: "premium", available: true, fail: true}
	second := &fakeAdapter{name: "standard", available: true, fail: true}
	third := &fakeAdapter{name: "mock", available: true}
	require.NoError(t, registry.Register(CapabilitySTT, first))
	require.NoError(t, registry.Register(CapabilitySTT, second))
	require.NoError(t, registry.Register(CapabilitySTT, third))

	err := registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t))

	require.NoError(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
	assert.Equal(t, "mock", registry.Sticky("s1", CapabilitySTT))
}

func TestRegistry_ExecuteStickyTriedFirst(t *testing.T) {
	registry := NewRegistry(nil)
	first := &fakeAdapter{name: "premium", available: true, fail: true}
	second := &fakeAdapter{name: "standard", available: true}
	require.NoError(t, registry.Register(CapabilityTTS, first))
	require.NoError(t, registry.Register(CapabilityTTS, second))

	require.NoError(t, registry.Execute(context.Background(), CapabilityTTS, "s1", time.Second, callCounting(t)))
	require.NoError(t, registry.Execute(context.Background(), CapabilityTTS, "s1", time.Second, callCounting(t)))

	// premium degraded after the first run, so only standard is called again
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 2, second.calls)
}

func TestRegistry_ExecuteAllExhausted(t *testing.T) {
	registry := NewRegistry(nil)
	first := &fakeAdapter{name: "premium", available: true, fail: true}
	second := &fakeAdapter{name: "standard", available: true, fail: true}
	require.NoError(t, registry.Register(CapabilityTranslation, first))
	require.NoError(t, registry.Register(CapabilityTranslation, second))

	err := registry.Execute(context.Background(), CapabilityTranslation, "s1", time.Second, callCounting(t))

	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindProvidersExhausted))
	assert.Empty(t, registry.Sticky("s1", CapabilityTranslation))
}

func TestRegistry_UnavailableAdaptersSkipped(t *testing.T) {
	registry := NewRegistry(nil)
	offline := &fakeAdapter{name: "premium", available: false}
	online := &fakeAdapter{name: "mock", available: true}
	require.NoError(t, registry.Register(CapabilitySTT, offline))
	require.NoError(t, registry.Register(CapabilitySTT, online))

	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t)))

	assert.Equal(t, 0, offline.calls)
	assert.Equal(t, 1, online.calls)
}

func TestRegistry_DegradedIsPerSession(t *testing.T) {
	registry := NewRegistry(nil)
	flaky := &fakeAdapter{name: "premium", available: true, fail: true}
	backup := &fakeAdapter{name: "mock", available: true}
	require.NoError(t, registry.Register(CapabilitySTT, flaky))
	require.NoError(t, registry.Register(CapabilitySTT, backup))

	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t)))

	flaky.fail = false
	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s2", time.Second, callCounting(t)))

	// s2 has no degraded state, so premium is tried (and now succeeds)
	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, "premium", registry.Sticky("s2", CapabilitySTT))
	assert.Equal(t, "mock", registry.Sticky("s1", CapabilitySTT))
}

func TestRegistry_DropSessionResetsState(t *testing.T) {
	registry := NewRegistry(nil)
	flaky := &fakeAdapter{name: "premium", available: true, fail: true}
	backup := &fakeAdapter{name: "mock", available: true}
	require.NoError(t, registry.Register(CapabilitySTT, flaky))
	require.NoError(t, registry.Register(CapabilitySTT, backup))

	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t)))
	registry.DropSession("s1")
	flaky.fail = false

	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t)))
	assert.Equal(t, "premium", registry.Sticky("s1", CapabilitySTT))
}

func TestRegistry_ExecuteRecoversAfterExhaustion(t *testing.T) {
	registry := NewRegistry(nil)
	first := &fakeAdapter{name: "premium", available: true, fail: true}
	second := &fakeAdapter{name: "standard", available: true, fail: true}
	require.NoError(t, registry.Register(CapabilitySTT, first))
	require.NoError(t, registry.Register(CapabilitySTT, second))

	err := registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t))
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindProvidersExhausted))

	// transient outage over; the full chain must be tried again
	first.fail = false
	second.fail = false

	require.NoError(t, registry.Execute(context.Background(), CapabilitySTT, "s1", time.Second, callCounting(t)))
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, "premium", registry.Sticky("s1", CapabilitySTT))
}

func TestRegistry_ExhaustionDoesNotPinFailures(t *testing.T) {
	registry := NewRegistry(nil)
	flaky := &fakeAdapter{name: "premium", available: true, fail: true}
	require.NoError(t, registry.Register(CapabilityTTS, flaky))

	for i := 0; i < 3; i++ {
		err := registry.Execute(context.Background(), CapabilityTTS, "s1", time.Second, callCounting(t))
		require.Error(t, err)
		assert.True(t, platformerrors.IsKind(err, platformerrors.KindProvidersExhausted))
	}

	// every attempt reached the adapter instead of short-circuiting
	assert.Equal(t, 3, flaky.calls)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(CapabilitySTT, &fakeAdapter{name: "dup", available: true}))
	err := registry.Register(CapabilitySTT, &fakeAdapter{name: "dup", available: true})
	assert.Error(t, err)
}

func TestRegistry_Availability(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(CapabilitySTT, &fakeAdapter{name: "premium", available: false}))
	require.NoError(t, registry.Register(CapabilitySTT, &fakeAdapter{name: "mock", available: true}))

	statuses := registry.Availability()
	require.Len(t, statuses["stt"], 2)
	assert.Equal(t, "premium", statuses["stt"][0].Name)
	assert.False(t, statuses["stt"][0].Available)
	assert.True(t, statuses["stt"][1].Available)
}
