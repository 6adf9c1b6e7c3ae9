package mateauth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// PasswordPolicy turns a raw password into its stored form and checks a raw
// password against a stored one. Verify must accept any stored form the same
// policy's Normalize produced, even when Normalize salts and two runs differ.
type PasswordPolicy interface {
	Normalize(raw string) (string, error)

	Verify(raw, stored string) bool

	// Displayable reports whether the stored form can be shown back to the
	// account owner. A displayable form is also reproducible: Normalize of the
	// same raw input yields the same stored value, so recovery lookups can
	// match on it. Both recovery flows answer not-found under a
	// non-displayable policy.
	Displayable() bool
}

// PlainPolicy keeps the password in a trimmed, directly comparable form. It
// preserves the legacy contract where the find-password flow returns the
// stored value to the requester. New deployments should prefer BcryptPolicy
// and a reset flow instead.
type PlainPolicy struct{}

func (PlainPolicy) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return trimmed, nil
}

func (PlainPolicy) Verify(raw, stored string) bool {
	trimmed := strings.TrimSpace(raw)
	return subtle.ConstantTimeCompare([]byte(trimmed), []byte(stored)) == 1
}

func (PlainPolicy) Displayable() bool { return true }

// BcryptPolicy stores a bcrypt hash. The stored form is not displayable, so
// the find-password flow reports not-found under this policy.
type BcryptPolicy struct {
	// Cost defaults to bcrypt.DefaultCost when zero.
	Cost int
}

func (p BcryptPolicy) Normalize(raw string) (string, error) {
	if len(strings.TrimSpace(raw)) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (p BcryptPolicy) Verify(raw, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
}

func (BcryptPolicy) Displayable() bool { return false }
