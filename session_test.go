package mateauth_test

import (
	"sync"
	"testing"
	"time"

	ma "github.com/gump416/project-runningmate"
)

func TestStateRegistry(t *testing.T) {
	registry := ma.NewStateRegistry()

	first := registry.State("token-a")
	if first == nil {
		t.Fatal("State must create on first contact")
	}
	if registry.State("token-a") != first {
		t.Error("Same token must yield the same state")
	}
	if registry.State("token-b") == first {
		t.Error("Different tokens must yield different states")
	}

	registry.Drop("token-a")
	if registry.State("token-a") == first {
		t.Error("Drop must forget the state")
	}
}

func TestStateRegistryRename(t *testing.T) {
	registry := ma.NewStateRegistry()
	auth := ma.New(stubStore{})

	state := registry.State("old-token")
	if _, err := auth.LoginFederated(state, &ma.Mate{Email: "alice@example.com"}); err != nil {
		t.Fatalf("LoginFederated failed: %v", err)
	}

	registry.Rename("old-token", "new-token")
	renamed := registry.State("new-token")
	if renamed != state {
		t.Fatal("Rename must carry the state to the new token")
	}
	if mate := renamed.Current(); mate == nil || mate.Email != "alice@example.com" {
		t.Errorf("Identity lost across rename: %+v", mate)
	}
	if registry.State("old-token") == state {
		t.Error("Old token must not resolve to the moved state")
	}

	// renaming a token with no state is a no-op
	registry.Rename("ghost", "elsewhere")
}

func TestStateRegistryEvictsExpired(t *testing.T) {
	registry := ma.NewStateRegistry()
	registry.TTL = 10 * time.Millisecond

	stale := registry.State("stale-token")
	time.Sleep(30 * time.Millisecond)

	// any access sweeps entries older than the TTL
	if registry.State("stale-token") == stale {
		t.Error("Expired state must be evicted, not returned")
	}
}

func TestStateRegistryKeepsLiveEntries(t *testing.T) {
	registry := ma.NewStateRegistry()
	registry.TTL = time.Hour

	live := registry.State("live-token")
	registry.State("other-token")
	if registry.State("live-token") != live {
		t.Error("A state within its TTL must survive other accesses")
	}
}

func TestSessionStateConcurrentAccess(t *testing.T) {
	auth := ma.New(stubStore{})
	state := ma.NewSessionState()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = auth.LoginFederated(state, &ma.Mate{Email: "alice@example.com"})
			_ = state.Current()
			auth.Logout(state)
		}()
	}
	wg.Wait()

	if state.Current() != nil && state.Current().Email != "alice@example.com" {
		t.Error("State corrupted by concurrent access")
	}
}

// stubStore satisfies MateStore for tests that never hit persistence.
type stubStore struct{}

func (stubStore) FindByEmail(email string) (*ma.Mate, error) { return nil, ma.ErrMateNotFound }
func (stubStore) Insert(mate *ma.Mate) error                 { return nil }
func (stubStore) Save(mate *ma.Mate) (*ma.Mate, error)       { return mate, nil }
func (stubStore) DeleteByEmail(email string) (bool, error)   { return false, nil }
