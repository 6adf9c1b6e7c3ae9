package mateauth_test

import (
	"strings"
	"testing"

	ma "github.com/gump416/project-runningmate"
)

func TestPlainPolicy(t *testing.T) {
	policy := ma.PlainPolicy{}

	stored, err := policy.Normalize("  password123  ")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if stored != "password123" {
		t.Errorf("Normalize = %q, want trimmed password123", stored)
	}
	if !policy.Verify("password123", stored) {
		t.Error("Verify must accept the original password")
	}
	if !policy.Verify("  password123  ", stored) {
		t.Error("Verify must trim the raw input the way Normalize does")
	}
	if policy.Verify("password124", stored) {
		t.Error("Verify must reject a different password")
	}
	if !policy.Displayable() {
		t.Error("The plain stored form must be displayable")
	}

	if _, err := policy.Normalize("short"); err == nil {
		t.Error("Normalize must reject a password below the minimum length")
	}
}

func TestBcryptPolicy(t *testing.T) {
	policy := ma.BcryptPolicy{Cost: 4} // min cost keeps the test fast

	stored, err := policy.Normalize("password123")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if stored == "password123" {
		t.Error("Stored form must not be the raw password")
	}
	if !strings.HasPrefix(stored, "$2a$") {
		t.Errorf("Stored form %q does not look like a bcrypt hash", stored)
	}
	if !policy.Verify("password123", stored) {
		t.Error("Verify must accept the original password")
	}
	if policy.Verify("password124", stored) {
		t.Error("Verify must reject a different password")
	}
	if policy.Displayable() {
		t.Error("A hash must not be displayable")
	}

	if _, err := policy.Normalize("short"); err == nil {
		t.Error("Normalize must reject a password below the minimum length")
	}
}
