package mateauth

import "net/http"

// SavedEmailCookie is the advisory remember-me cookie. It only pre-fills the
// login form's email field; nothing ever consults it to decide whether a
// request is authenticated.
const SavedEmailCookie = "savedEmail"

// SavedEmailMaxAge is how long the browser keeps the cookie, in seconds.
const SavedEmailMaxAge = 3600

// CookieSpec describes a cookie to issue on the response.
type CookieSpec struct {
	Name   string
	Value  string
	MaxAge int
	Path   string
}

// IssueSavedEmail builds the savedEmail cookie for a remembered login.
func IssueSavedEmail(email string) *CookieSpec {
	return &CookieSpec{
		Name:   SavedEmailCookie,
		Value:  email,
		MaxAge: SavedEmailMaxAge,
		Path:   "/",
	}
}

// Write sets the cookie on the response.
func (c *CookieSpec) Write(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		MaxAge: c.MaxAge,
		Path:   c.Path,
	})
}

// ReadSavedEmail returns the remembered email from the request, if any.
func ReadSavedEmail(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SavedEmailCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// ClearSavedEmail expires the savedEmail cookie.
func ClearSavedEmail(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SavedEmailCookie,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
}
