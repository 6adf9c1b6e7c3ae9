package mateauth_test

import (
	"errors"
	"testing"

	ma "github.com/gump416/project-runningmate"
	"github.com/gump416/project-runningmate/stores"
)

func newTestAuth(t *testing.T) (*ma.Auth, *stores.FSMateStore) {
	t.Helper()
	store := stores.NewFSMateStore(t.TempDir())
	return ma.New(store), store
}

func registerMate(t *testing.T, auth *ma.Auth, email, name, password string) *ma.Mate {
	t.Helper()
	mate, err := auth.Register(&ma.RegistrationForm{
		Email:      email,
		Name:       name,
		Password:   password,
		BirthYear:  "1994",
		BirthMonth: "3",
		BirthDay:   "7",
		Phone1:     "010",
		Phone2:     "1234",
		Phone3:     "5678",
		City:       "Seoul",
		District:   "Mapo",
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return mate
}

func TestRegisterThenLogin(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	result, err := auth.LoginLocal(state, "alice@example.com", "password123", false)
	if err != nil {
		t.Fatalf("LoginLocal after register failed: %v", err)
	}
	if result.Mate.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", result.Mate.Email)
	}
	if result.SavedEmail != nil {
		t.Errorf("Expected no savedEmail cookie without remember, got %+v", result.SavedEmail)
	}
	if mate := auth.Current(state); mate == nil || mate.Email != "alice@example.com" {
		t.Errorf("Current() = %+v, want alice@example.com", mate)
	}
}

func TestRegisterNormalizesProfile(t *testing.T) {
	auth, store := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	mate, err := store.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if mate.Birthdate != "1994-03-07" {
		t.Errorf("Birthdate = %q, want 1994-03-07", mate.Birthdate)
	}
	if mate.PhoneNumber != "010-1234-5678" {
		t.Errorf("PhoneNumber = %q, want 010-1234-5678", mate.PhoneNumber)
	}
	if mate.Location != "Seoul Mapo" {
		t.Errorf("Location = %q, want Seoul Mapo", mate.Location)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, store := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	_, err := auth.Register(&ma.RegistrationForm{
		Email:    "alice@example.com",
		Name:     "Impostor",
		Password: "different123",
	})
	if !errors.Is(err, ma.ErrDuplicateEmail) {
		t.Fatalf("Expected ErrDuplicateEmail, got %v", err)
	}

	// the original record must be untouched
	mate, err := store.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if mate.Name != "Alice" {
		t.Errorf("Name = %q, want Alice (store mutated by failed register)", mate.Name)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newTestAuth(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"bad email", "not-an-email", "password123", ma.ErrCodeInvalidEmail},
		{"short password", "bob@example.com", "short", ma.ErrCodeWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(&ma.RegistrationForm{Email: tt.email, Name: "Bob", Password: tt.password})
			var authErr *ma.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("Expected AuthError, got %v", err)
			}
			if authErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", authErr.Code, tt.wantCode)
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrongpass123"},
		{"unknown email", "nobody@example.com", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.LoginLocal(state, tt.email, tt.password, false)
			if !errors.Is(err, ma.ErrInvalidCredentials) {
				t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
			}
			if auth.Current(state) != nil {
				t.Errorf("Failed login must leave the state anonymous")
			}
		})
	}
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")
	registerMate(t, auth, "bob@example.com", "Bob", "password456")

	state := ma.NewSessionState()
	if _, err := auth.LoginLocal(state, "alice@example.com", "password123", false); err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}

	if _, err := auth.LoginLocal(state, "bob@example.com", "wrongpass000", false); !errors.Is(err, ma.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}

	mate := auth.Current(state)
	if mate == nil || mate.Email != "alice@example.com" {
		t.Errorf("Failed attempt must not touch the existing session, Current() = %+v", mate)
	}
}

func TestLoginRememberIssuesCookie(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	result, err := auth.LoginLocal(state, "alice@example.com", "password123", true)
	if err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}
	cookie := result.SavedEmail
	if cookie == nil {
		t.Fatal("Expected savedEmail cookie with remember=true")
	}
	if cookie.Name != ma.SavedEmailCookie || cookie.Value != "alice@example.com" {
		t.Errorf("Cookie = %+v, want savedEmail=alice@example.com", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("Cookie MaxAge = %d, want 3600", cookie.MaxAge)
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie Path = %q, want /", cookie.Path)
	}
}

func TestLoginFederated(t *testing.T) {
	auth, _ := newTestAuth(t)

	state := ma.NewSessionState()
	mate, err := auth.LoginFederated(state, &ma.Mate{Email: "kakao@example.com", Name: "Kakao Mate"})
	if err != nil {
		t.Fatalf("LoginFederated failed: %v", err)
	}
	if !mate.Federated {
		t.Error("Federated flag must be set on federated login")
	}
	current := auth.Current(state)
	if current == nil || current.Email != "kakao@example.com" {
		t.Errorf("Current() = %+v, want kakao@example.com", current)
	}
	if !state.IsFederated() {
		t.Error("State must report federated")
	}
}

func TestLoginFederatedNilProfile(t *testing.T) {
	auth, _ := newTestAuth(t)
	state := ma.NewSessionState()
	if _, err := auth.LoginFederated(state, nil); !errors.Is(err, ma.ErrNilProfile) {
		t.Fatalf("Expected ErrNilProfile, got %v", err)
	}
	if auth.Current(state) != nil {
		t.Error("Rejected federated login must leave state anonymous")
	}
}

func TestLastLoginWins(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	if _, err := auth.LoginLocal(state, "alice@example.com", "password123", false); err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}
	if _, err := auth.LoginFederated(state, &ma.Mate{Email: "kakao@example.com", Name: "Kakao Mate"}); err != nil {
		t.Fatalf("LoginFederated failed: %v", err)
	}

	current := auth.Current(state)
	if current == nil || current.Email != "kakao@example.com" {
		t.Errorf("A new login must replace the previous state wholesale, Current() = %+v", current)
	}
	if !state.IsFederated() {
		t.Error("State must hold only the federated identity")
	}
}

func TestUpdateProfile(t *testing.T) {
	auth, store := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	if _, err := auth.LoginLocal(state, "alice@example.com", "password123", false); err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}

	result, err := auth.UpdateProfile(state, ma.ProfileEdits{Name: "Alice Kim", Location: "Busan"}, "")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if result.PasswordChanged {
		t.Error("PasswordChanged must be false without a new password")
	}
	if result.Mate.Name != "Alice Kim" || result.Mate.Location != "Busan" {
		t.Errorf("Edits not applied: %+v", result.Mate)
	}

	// the session must see the committed record, not the stale one
	current := auth.Current(state)
	if current.Name != "Alice Kim" {
		t.Errorf("Session not refreshed with persisted record: %+v", current)
	}
	stored, err := store.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if stored.Name != "Alice Kim" {
		t.Errorf("Store not updated: %+v", stored)
	}
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	auth, _ := newTestAuth(t)
	state := ma.NewSessionState()
	_, err := auth.UpdateProfile(state, ma.ProfileEdits{Name: "Nobody"}, "")
	if !errors.Is(err, ma.ErrNoActiveSession) {
		t.Fatalf("Expected ErrNoActiveSession, got %v", err)
	}
}

func TestPasswordChangeForcesReauth(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "pw1-password")

	state := ma.NewSessionState()
	if _, err := auth.LoginLocal(state, "alice@example.com", "pw1-password", false); err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}

	result, err := auth.UpdateProfile(state, ma.ProfileEdits{}, "pw2-password")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if !result.PasswordChanged {
		t.Fatal("PasswordChanged must be reported for a new password")
	}

	// the caller's contract: invalidate the session right after responding
	auth.Logout(state)
	if auth.Current(state) != nil {
		t.Error("Current() must be nil after forced re-auth")
	}

	if _, err := auth.LoginLocal(state, "alice@example.com", "pw1-password", false); !errors.Is(err, ma.ErrInvalidCredentials) {
		t.Errorf("Old password must no longer authenticate, got %v", err)
	}
	if _, err := auth.LoginLocal(state, "alice@example.com", "pw2-password", false); err != nil {
		t.Errorf("New password must authenticate, got %v", err)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	state := ma.NewSessionState()
	if _, err := auth.LoginLocal(state, "alice@example.com", "password123", false); err != nil {
		t.Fatalf("LoginLocal failed: %v", err)
	}

	auth.Logout(state)
	if auth.Current(state) != nil {
		t.Error("Current() must be nil after logout")
	}
	auth.Logout(state)
	if auth.Current(state) != nil {
		t.Error("Repeated logout must stay anonymous")
	}
}

func TestEmailAvailable(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	available, err := auth.EmailAvailable("alice@example.com")
	if err != nil {
		t.Fatalf("EmailAvailable failed: %v", err)
	}
	if available {
		t.Error("Registered email must not be available")
	}

	available, err = auth.EmailAvailable("fresh@example.com")
	if err != nil {
		t.Fatalf("EmailAvailable failed: %v", err)
	}
	if !available {
		t.Error("Fresh email must be available")
	}
}

func TestCheckPassword(t *testing.T) {
	auth, _ := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	tests := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{"match", "alice@example.com", "password123", true},
		{"wrong password", "alice@example.com", "nope-nope-nope", false},
		{"unknown email", "ghost@example.com", "password123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := auth.CheckPassword(tt.email, tt.password)
			if err != nil {
				t.Fatalf("CheckPassword failed: %v", err)
			}
			if ok != tt.want {
				t.Errorf("CheckPassword = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	auth, store := newTestAuth(t)
	registerMate(t, auth, "alice@example.com", "Alice", "password123")

	ok, err := auth.Delete("alice@example.com")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !ok {
		t.Error("Delete of an existing mate must report true")
	}
	if _, err := store.FindByEmail("alice@example.com"); !errors.Is(err, ma.ErrMateNotFound) {
		t.Errorf("Record must be gone, got %v", err)
	}

	ok, err = auth.Delete("alice@example.com")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok {
		t.Error("Delete of a missing mate must report false")
	}
}
