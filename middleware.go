package mateauth

import (
	"context"
	"log/slog"
	"net/http"
)

type mateEmailKey string

const mateEmailParam mateEmailKey = "mateEmail"

// Middleware resolves the logged-in mate for a request. Resolution order is
// the live session state first, then the signed auth-token cookie/header as a
// fallback for requests arriving without server-side state.
type Middleware struct {
	// StateForRequest returns the session's identity state.
	StateForRequest func(r *http.Request) *SessionState

	// VerifyToken checks an auth token and returns the email it names.
	VerifyToken func(tokenString string) (email string, err error)

	AuthTokenHeaderName string
	AuthTokenCookieName string

	// Where EnsureMate redirects anonymous requests. Empty means a plain 401.
	LoginURL string
}

func (m *Middleware) EnsureReasonableDefaults() {
	if m.AuthTokenHeaderName == "" {
		m.AuthTokenHeaderName = "Authorization"
	}
	if m.AuthTokenCookieName == "" {
		m.AuthTokenCookieName = AuthTokenCookie
	}
}

// LoggedInEmail returns the email of the request's mate, or "" when the
// request is anonymous.
func (m *Middleware) LoggedInEmail(r *http.Request) string {
	if v := r.Context().Value(mateEmailParam); v != nil {
		if email := v.(string); email != "" {
			return email
		}
	}

	if m.StateForRequest != nil {
		if mate := m.StateForRequest(r).Current(); mate != nil {
			return mate.Email
		}
	}

	if m.VerifyToken == nil {
		return ""
	}
	tokens := r.Header.Values(m.AuthTokenHeaderName)
	for _, cookie := range r.CookiesNamed(m.AuthTokenCookieName) {
		if len(cookie.Value) > 0 {
			tokens = append(tokens, cookie.Value)
		}
	}
	for _, token := range tokens {
		email, err := m.VerifyToken(token)
		if err == nil && email != "" {
			return email
		} else if err != nil {
			slog.Warn("error verifying auth token", "error", err)
		}
	}
	return ""
}

// ExtractMate loads the logged-in email into the request context without
// enforcing anything. Handlers that work both ways use this.
func (m *Middleware) ExtractMate(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withEmail(m.LoggedInEmail(r), r))
	})
}

// EnsureMate rejects or redirects anonymous requests, and otherwise behaves
// like ExtractMate.
func (m *Middleware) EnsureMate(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := m.LoggedInEmail(r)
		if email == "" {
			if m.LoginURL != "" {
				http.Redirect(w, r, m.LoginURL, http.StatusFound)
			} else {
				http.Error(w, "Login Required", http.StatusUnauthorized)
			}
			return
		}
		next.ServeHTTP(w, m.withEmail(email, r))
	})
}

func (m *Middleware) withEmail(email string, r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), mateEmailParam, email))
}
