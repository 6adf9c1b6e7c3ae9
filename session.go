package mateauth

import (
	"sync"
	"time"
)

// stateKind is the closed set of identity states a session can be in.
type stateKind int

const (
	stateAnonymous stateKind = iota
	stateLocal
	stateFederated
)

// SessionState is the per-client identity holder. It is exactly one of
// anonymous, locally authenticated, or federated. A new login of either kind
// replaces the previous state wholesale, and callers resolve the current
// identity through Current instead of inspecting slots.
//
// All Auth operations on the same state serialize on its mutex, so a logout
// racing a profile update cannot interleave into a half-cleared state.
type SessionState struct {
	mu   sync.Mutex
	kind stateKind
	mate *Mate
}

// NewSessionState returns a fresh anonymous state.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// Current returns the identity for this session regardless of which login
// path established it, or nil when anonymous. This is the single merge point
// for the local and federated paths.
func (s *SessionState) Current() *Mate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *SessionState) currentLocked() *Mate {
	if s.kind == stateAnonymous {
		return nil
	}
	return s.mate
}

// IsFederated reports whether the current identity came from a third-party
// provider. False when anonymous.
func (s *SessionState) IsFederated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind == stateFederated
}

func (s *SessionState) setLocalLocked(mate *Mate) {
	s.kind = stateLocal
	s.mate = mate
}

func (s *SessionState) setFederatedLocked(mate *Mate) {
	s.kind = stateFederated
	s.mate = mate
}

func (s *SessionState) resetLocked() {
	s.kind = stateAnonymous
	s.mate = nil
}

// StateRegistry maps session tokens to their live SessionState. States are
// created on first contact, dropped when the session is destroyed, and swept
// once their session must have expired, so the map cannot grow with sessions
// that were simply abandoned. An evicted state costs nothing: the snapshot in
// the session data re-hydrates the identity on the next request.
type StateRegistry struct {
	// TTL after which an untouched state is evicted. Align it with the session
	// lifetime; a sweep runs lazily on access.
	TTL time.Duration

	mu        sync.Mutex
	states    map[string]*registryEntry
	lastSweep time.Time
}

type registryEntry struct {
	state    *SessionState
	lastSeen time.Time
}

func NewStateRegistry() *StateRegistry {
	return &StateRegistry{
		TTL:    24 * time.Hour,
		states: make(map[string]*registryEntry),
	}
}

// State returns the state for the token, creating an anonymous one on first
// contact. Each access refreshes the entry's eviction clock.
func (r *StateRegistry) State(token string) *SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.sweepLocked(now)
	e, ok := r.states[token]
	if !ok {
		e = &registryEntry{state: NewSessionState()}
		r.states[token] = e
	}
	e.lastSeen = now
	return e.state
}

// Drop forgets the state for a token. Used when the session is destroyed or
// its token rotates.
func (r *StateRegistry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, token)
}

// Rename moves a state to a new token, preserving identity across a token
// rotation (scs renews the token on privilege change).
func (r *StateRegistry) Rename(oldToken, newToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.states[oldToken]; ok {
		delete(r.states, oldToken)
		e.lastSeen = time.Now()
		r.states[newToken] = e
	}
}

// sweepLocked evicts entries whose session must have expired. It runs at most
// every quarter TTL so a busy registry pays for a full scan rarely.
func (r *StateRegistry) sweepLocked(now time.Time) {
	if r.TTL <= 0 || now.Sub(r.lastSweep) < r.TTL/4 {
		return
	}
	r.lastSweep = now
	for token, e := range r.states {
		if now.Sub(e.lastSeen) > r.TTL {
			delete(r.states, token)
		}
	}
}

// Session is the transport-side session handle the handlers talk to. The scs
// session manager backs it in production; tests use an in-memory fake.
type Session interface {
	Get(key string) any
	Set(key string, value any)
	Invalidate() error
}
