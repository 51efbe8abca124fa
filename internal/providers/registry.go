package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	platformerrors "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

// Registry keeps the ordered adapter chain per capability plus the
// per-session sticky and degraded bookkeeping that drives fallback.
//
// Fallback contract: Execute tries the session's sticky adapter first, then
// the remaining adapters in registration order, skipping adapters already
// degraded for that session. A failing call degrades the adapter for the
// session only; a succeeding call promotes the adapter to sticky. Exhausting
// the chain clears the degraded set, so the next call starts over with the
// full chain.
type Registry struct {
	mu       sync.RWMutex
	chains   map[Capability][]Adapter
	sessions map[string]*sessionProviders
	logger   *logging.Logger
}

// sessionProviders tracks sticky/degraded adapters for one session.
type sessionProviders struct {
	mu       sync.Mutex
	sticky   map[Capability]string
	degraded map[Capability]map[string]bool
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		chains:   make(map[Capability][]Adapter),
		sessions: make(map[string]*sessionProviders),
		logger:   logger,
	}
}

// Register appends an adapter to the capability chain. Registration order is
// the preference order.
func (r *Registry) Register(capability Capability, adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.chains[capability] {
		if existing.Name() == adapter.Name() {
			return errors.New("adapter already registered: " + adapter.Name())
		}
	}

	r.chains[capability] = append(r.chains[capability], adapter)
	return nil
}

// Adapters returns the chain for a capability in preference order.
func (r *Registry) Adapters(capability Capability) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.chains[capability]
	out := make([]Adapter, len(chain))
	copy(out, chain)
	return out
}

// Availability reports each adapter's availability, for the health endpoint.
func (r *Registry) Availability() map[string][]AdapterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]AdapterStatus, len(r.chains))
	for capability, chain := range r.chains {
		statuses := make([]AdapterStatus, 0, len(chain))
		for _, adapter := range chain {
			statuses = append(statuses, AdapterStatus{
				Name:      adapter.Name(),
				Available: adapter.Available(),
			})
		}
		result[string(capability)] = statuses
	}
	return result
}

func (r *Registry) sessionState(sessionID string) *sessionProviders {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.sessions[sessionID]
	if !ok {
		state = &sessionProviders{
			sticky:   make(map[Capability]string),
			degraded: make(map[Capability]map[string]bool),
		}
		r.sessions[sessionID] = state
	}
	return state
}

// DropSession forgets the sticky and degraded state for a session.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Sticky returns the session's sticky adapter name for a capability.
func (r *Registry) Sticky(sessionID string, capability Capability) string {
	r.mu.RLock()
	state, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return ""
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.sticky[capability]
}

// candidates builds the try order for one call: sticky first, then the chain
// in preference order, skipping degraded and unavailable adapters.
func (r *Registry) candidates(state *sessionProviders, capability Capability) []Adapter {
	chain := r.Adapters(capability)

	state.mu.Lock()
	sticky := state.sticky[capability]
	degraded := state.degraded[capability]
	state.mu.Unlock()

	ordered := make([]Adapter, 0, len(chain))
	if sticky != "" {
		for _, adapter := range chain {
			if adapter.Name() == sticky && !degraded[adapter.Name()] && adapter.Available() {
				ordered = append(ordered, adapter)
				break
			}
		}
	}
	for _, adapter := range chain {
		if adapter.Name() == sticky || degraded[adapter.Name()] || !adapter.Available() {
			continue
		}
		ordered = append(ordered, adapter)
	}
	return ordered
}

func (state *sessionProviders) markDegraded(capability Capability, name string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.degraded[capability] == nil {
		state.degraded[capability] = make(map[string]bool)
	}
	state.degraded[capability][name] = true
}

func (state *sessionProviders) markSticky(capability Capability, name string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.sticky[capability] = name
}

// resetDegraded forgets the capability's degraded adapters. Called when a
// walk exhausts the chain: degradation scopes a single attempt's retries,
// not the session's remaining lifetime, so the next segment gets the full
// chain again.
func (state *sessionProviders) resetDegraded(capability Capability) {
	state.mu.Lock()
	defer state.mu.Unlock()
	delete(state.degraded, capability)
}

// Execute walks the fallback chain for one capability call. The call closure
// performs the capability-specific request against the adapter it is handed;
// the registry owns ordering, timeouts and degradation bookkeeping.
func (r *Registry) Execute(
	ctx context.Context,
	capability Capability,
	sessionID string,
	timeout time.Duration,
	call func(ctx context.Context, adapter Adapter) error,
) error {
	state := r.sessionState(sessionID)
	ordered := r.candidates(state, capability)

	if len(ordered) == 0 {
		state.resetDegraded(capability)
		return platformerrors.New(
			platformerrors.KindProvidersExhausted,
			string(capability),
			"no available providers",
		)
	}

	var lastErr error
	for _, adapter := range ordered {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := call(callCtx, adapter)
		cancel()

		if err == nil {
			state.markSticky(capability, adapter.Name())
			return nil
		}

		kind := platformerrors.KindProvider
		if errors.Is(err, context.DeadlineExceeded) {
			kind = platformerrors.KindProviderTimeout
		}
		lastErr = platformerrors.Wrap(kind, string(capability), adapter.Name()+" failed", err)

		state.markDegraded(capability, adapter.Name())
		if r.logger != nil {
			r.logger.WarnTag("Pipeline", "%s provider %s degraded for session %s: %v",
				capability, adapter.Name(), sessionID, err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	state.resetDegraded(capability)
	return &platformerrors.Error{
		Kind:    platformerrors.KindProvidersExhausted,
		Op:      string(capability),
		Message: "all providers exhausted",
		Cause:   lastErr,
	}
}
