package mateauth

import "errors"

// Recovery answers the forgotten email / forgotten password lookups. It is
// read-only: nothing here creates a record, mutates one, or touches any
// session.
type Recovery struct {
	Store  RecoveryStore
	Policy PasswordPolicy
}

func NewRecovery(store RecoveryStore) *Recovery {
	return &Recovery{Store: store, Policy: PlainPolicy{}}
}

// Result is the lookup answer in the shape the find form's script expects:
// {"type":"email","result":true,"email":"..."} or {"type":"email","result":false},
// and symmetrically for password.
type Result struct {
	Type     string `json:"type"`
	Found    bool   `json:"result"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// FindEmail looks up the account whose name and password both match and
// returns its email. Any mismatch is a plain not-found result. The store match
// compares normalized forms, which only works when the policy produces a
// reproducible one; a hashed deployment answers not-found, same as
// FindPassword.
func (r *Recovery) FindEmail(name, password string) (*Result, error) {
	if !r.Policy.Displayable() {
		return &Result{Type: "email"}, nil
	}
	stored, err := r.Policy.Normalize(password)
	if err != nil {
		return &Result{Type: "email"}, nil
	}
	mate, err := r.Store.FindByNameAndPassword(name, stored)
	if errors.Is(err, ErrMateNotFound) {
		return &Result{Type: "email"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Type: "email", Found: true, Email: mate.Email}, nil
}

// FindPassword looks up the account whose name and email both match and
// returns its stored password. This mirrors the legacy contract of handing
// the stored value back to the requester; it only works under a displayable
// policy, and a hashed deployment answers not-found instead.
func (r *Recovery) FindPassword(name, email string) (*Result, error) {
	if !r.Policy.Displayable() {
		return &Result{Type: "password"}, nil
	}
	mate, err := r.Store.FindByNameAndEmail(name, email)
	if errors.Is(err, ErrMateNotFound) {
		return &Result{Type: "password"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Type: "password", Found: true, Password: mate.Password}, nil
}
