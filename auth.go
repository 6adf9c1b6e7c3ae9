package mateauth

import (
	"errors"
	"fmt"
	"log/slog"
)

// Auth is the single authority for transitioning a session's identity state.
// It owns registration, both login paths, profile mutation and logout; the
// HTTP layer never touches a SessionState except through it.
type Auth struct {
	Store  MateStore
	Policy PasswordPolicy
}

// New creates an Auth over the given store with the legacy-compatible
// password policy.
func New(store MateStore) *Auth {
	return (&Auth{Store: store}).EnsureDefaults()
}

func (a *Auth) EnsureDefaults() *Auth {
	if a.Policy == nil {
		a.Policy = PlainPolicy{}
	}
	return a
}

// Register validates and persists a new account. It never establishes a
// session; the mate logs in afterwards. Email uniqueness is enforced by the
// store's Insert so concurrent registrations of the same email cannot both
// win.
func (a *Auth) Register(form *RegistrationForm) (*Mate, error) {
	a.EnsureDefaults()
	mate := form.Normalize()
	if !ValidEmail(mate.Email) {
		return nil, NewAuthError(ErrCodeInvalidEmail, "invalid email format", "email")
	}
	stored, err := a.Policy.Normalize(form.Password)
	if err != nil {
		return nil, NewAuthError(ErrCodeWeakPassword, err.Error(), "password")
	}
	mate.Password = stored

	if err := a.Store.Insert(mate); err != nil {
		return nil, err
	}
	slog.Info("registered mate", "email", mate.Email)
	return mate, nil
}

// EmailAvailable reports whether no account holds the email yet. Backs the
// signup form's email-check call.
func (a *Auth) EmailAvailable(email string) (bool, error) {
	_, err := a.Store.FindByEmail(email)
	if errors.Is(err, ErrMateNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// LoginResult carries the identity a successful login established and, when
// the mate asked to be remembered, the savedEmail cookie to issue.
type LoginResult struct {
	Mate       *Mate
	SavedEmail *CookieSpec
}

// LoginLocal verifies an email/password pair and, on success, replaces the
// session's identity with the local one. The record is fetched exactly once
// per attempt. A failed attempt returns ErrInvalidCredentials and leaves the
// existing state untouched, whether it was anonymous or already logged in.
func (a *Auth) LoginLocal(state *SessionState, email, password string, remember bool) (*LoginResult, error) {
	a.EnsureDefaults()
	state.mu.Lock()
	defer state.mu.Unlock()

	mate, err := a.Store.FindByEmail(email)
	if errors.Is(err, ErrMateNotFound) {
		// same answer as a wrong password so callers cannot probe for accounts
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup failed: %w", err)
	}
	if !a.Policy.Verify(password, mate.Password) {
		return nil, ErrInvalidCredentials
	}

	state.setLocalLocked(mate.Clone())
	slog.Info("local login", "email", mate.Email)

	result := &LoginResult{Mate: mate}
	if remember {
		result.SavedEmail = IssueSavedEmail(mate.Email)
	}
	return result, nil
}

// LoginFederated accepts a profile asserted by a trusted external provider
// and replaces the session's identity with it. The assertion itself was
// already verified at the boundary; the only rejection here is a missing
// profile.
func (a *Auth) LoginFederated(state *SessionState, mate *Mate) (*Mate, error) {
	if mate == nil {
		return nil, ErrNilProfile
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	mate.Federated = true
	state.setFederatedLocked(mate.Clone())
	slog.Info("federated login", "email", mate.Email)
	return mate, nil
}

// Current resolves the session's identity, whichever login path established
// it. Nil when anonymous.
func (a *Auth) Current(state *SessionState) *Mate {
	return state.Current()
}

// ProfileEdits holds the editable profile fields. Empty fields are left as
// they are.
type ProfileEdits struct {
	Name          string
	Birthdate     string
	PhoneNumber   string
	Address       string
	AddressDetail string
	Location      string
}

// UpdateResult reports the persisted record and whether the password changed.
// When PasswordChanged is true the caller must invalidate the session right
// after responding; the old session must not outlive the old password.
type UpdateResult struct {
	Mate            *Mate
	PasswordChanged bool
}

// UpdateProfile applies edits to the logged-in mate's record and persists
// them. A non-empty newPassword is re-derived through the policy and stored.
// The session is refreshed with the record the store actually persisted, not
// the stale pre-update copy.
func (a *Auth) UpdateProfile(state *SessionState, edits ProfileEdits, newPassword string) (*UpdateResult, error) {
	a.EnsureDefaults()
	state.mu.Lock()
	defer state.mu.Unlock()

	current := state.currentLocked()
	if current == nil {
		return nil, ErrNoActiveSession
	}

	updated := current.Clone()
	applyEdits(updated, edits)

	passwordChanged := false
	if newPassword != "" {
		stored, err := a.Policy.Normalize(newPassword)
		if err != nil {
			return nil, NewAuthError(ErrCodeWeakPassword, err.Error(), "new-password")
		}
		updated.Password = stored
		passwordChanged = true
	}

	persisted, err := a.Store.Save(updated)
	if err != nil {
		return nil, fmt.Errorf("profile update failed: %w", err)
	}

	if state.kind == stateFederated {
		state.setFederatedLocked(persisted.Clone())
	} else {
		state.setLocalLocked(persisted.Clone())
	}
	slog.Info("profile updated", "email", persisted.Email, "password_changed", passwordChanged)
	return &UpdateResult{Mate: persisted, PasswordChanged: passwordChanged}, nil
}

func applyEdits(mate *Mate, edits ProfileEdits) {
	if edits.Name != "" {
		mate.Name = edits.Name
	}
	if edits.Birthdate != "" {
		mate.Birthdate = edits.Birthdate
	}
	if edits.PhoneNumber != "" {
		mate.PhoneNumber = edits.PhoneNumber
	}
	if edits.Address != "" {
		mate.Address = edits.Address
	}
	if edits.AddressDetail != "" {
		mate.AddressDetail = edits.AddressDetail
	}
	if edits.Location != "" {
		mate.Location = edits.Location
	}
}

// Logout discards the session's identity. Safe to call on an anonymous state.
func (a *Auth) Logout(state *SessionState) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.resetLocked()
}

// CheckPassword reports whether the raw password matches the account's stored
// one. Backs the password-check call on the profile page. An unknown email is
// simply false.
func (a *Auth) CheckPassword(email, password string) (bool, error) {
	a.EnsureDefaults()
	mate, err := a.Store.FindByEmail(email)
	if errors.Is(err, ErrMateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Policy.Verify(password, mate.Password), nil
}

// Delete removes the account. The store owns the actual delete; this just
// requests it and reports the outcome.
func (a *Auth) Delete(email string) (bool, error) {
	ok, err := a.Store.DeleteByEmail(email)
	if err != nil {
		return false, err
	}
	if ok {
		slog.Info("mate deleted", "email", email)
	}
	return ok, nil
}
