package mateauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
)

// Session state keys inside the server-side session data. The identity is a
// single typed snapshot, not a scatter of per-slot attributes.
const (
	sessionKindKey = "authKind"
	sessionMateKey = "authMate"
)

// Handlers is the HTTP surface of the account layer. Session mechanics come
// from scs; identity state transitions all go through Auth.
type Handlers struct {
	Auth     *Auth
	Recovery *Recovery

	Session *scs.SessionManager
	States  *StateRegistry
	Signer  *TokenSigner

	Middleware Middleware

	// How long a login session lives, in seconds. Defaults to a day.
	SessionTimeoutInSeconds int

	mounts []authMount
}

type authMount struct {
	prefix  string
	handler http.Handler
}

// AddAuth mounts an external auth flow (an OAuth2 provider) under a path
// prefix. The provider handler sees paths with the prefix stripped, so its
// "/" starts the flow and "/callback/" completes it.
func (h *Handlers) AddAuth(prefix string, handler http.Handler) *Handlers {
	prefix = strings.TrimSuffix(prefix, "/")
	h.mounts = append(h.mounts, authMount{prefix: prefix, handler: handler})
	return h
}

// NewHandlers wires the handler set over an Auth and Recovery pair.
func NewHandlers(auth *Auth, recovery *Recovery) *Handlers {
	return (&Handlers{Auth: auth, Recovery: recovery}).EnsureDefaults()
}

func (h *Handlers) EnsureDefaults() *Handlers {
	if h.Session == nil {
		h.Session = scs.New()
	}
	if h.SessionTimeoutInSeconds <= 0 {
		h.SessionTimeoutInSeconds = 86400
	}
	h.Session.Lifetime = time.Duration(h.SessionTimeoutInSeconds) * time.Second
	if h.States == nil {
		h.States = NewStateRegistry()
		h.States.TTL = h.Session.Lifetime
	}
	if h.Signer == nil {
		h.Signer = (&TokenSigner{}).EnsureDefaults()
	}
	if h.Middleware.StateForRequest == nil {
		h.Middleware.StateForRequest = h.state
	}
	if h.Middleware.VerifyToken == nil {
		h.Middleware.VerifyToken = h.Signer.Verify
	}
	if h.Middleware.LoginURL == "" {
		h.Middleware.LoginURL = "/mate/login"
	}
	return h
}

// Handler returns the routed handler wrapped with session load/save.
func (h *Handlers) Handler() http.Handler {
	h.EnsureDefaults()
	r := mux.NewRouter()

	m := r.PathPrefix("/mate").Subrouter()
	m.HandleFunc("", h.handleRegister).Methods("POST")
	m.HandleFunc("/email-check", h.handleEmailCheck).Methods("POST")
	m.HandleFunc("/login", h.handleLoginForm).Methods("GET")
	m.HandleFunc("/login", h.handleLogin).Methods("POST")
	m.HandleFunc("/kakaoLogin", h.handleKakaoLogin).Methods("POST")
	m.Handle("/mypage", h.Middleware.EnsureMate(http.HandlerFunc(h.handleMyPage))).Methods("GET")
	m.Handle("/mateDetail", h.Middleware.EnsureMate(http.HandlerFunc(h.handleDetailForm))).Methods("GET")
	m.Handle("/mateDetail", h.Middleware.EnsureMate(http.HandlerFunc(h.handleDetail))).Methods("POST")
	m.HandleFunc("/password-check", h.handlePasswordCheck).Methods("POST")
	m.HandleFunc("/delete", h.handleDelete).Methods("POST")
	m.HandleFunc("/newLogin", h.handleNewLogin).Methods("GET")
	m.HandleFunc("/findEmailPassword", h.handleFindEmailPassword).Methods("POST")

	r.HandleFunc("/logout", h.handleLogout)

	for _, mt := range h.mounts {
		r.PathPrefix(mt.prefix + "/").Handler(http.StripPrefix(mt.prefix, mt.handler))
	}

	return h.Session.LoadAndSave(r)
}

// scsSession adapts the scs manager to the Session boundary.
type scsSession struct {
	sm  *scs.SessionManager
	ctx context.Context
}

func (s *scsSession) Get(key string) any        { return s.sm.Get(s.ctx, key) }
func (s *scsSession) Set(key string, value any) { s.sm.Put(s.ctx, key, value) }
func (s *scsSession) Invalidate() error         { return s.sm.Destroy(s.ctx) }

func (h *Handlers) session(r *http.Request) Session {
	return &scsSession{sm: h.Session, ctx: r.Context()}
}

// state resolves the live identity state for the request's session, creating
// it on first contact and re-hydrating it from the session data when the
// in-memory registry has no record (fresh process, new node).
func (h *Handlers) state(r *http.Request) *SessionState {
	token := h.Session.Token(r.Context())
	var st *SessionState
	if token == "" {
		// brand-new session; scs mints the token at commit time
		st = NewSessionState()
	} else {
		st = h.States.State(token)
	}
	if st.Current() == nil {
		h.hydrate(h.session(r), st)
	}
	return st
}

func (h *Handlers) hydrate(sess Session, st *SessionState) {
	kind, _ := sess.Get(sessionKindKey).(int)
	if stateKind(kind) == stateAnonymous {
		return
	}
	data, _ := sess.Get(sessionMateKey).([]byte)
	if len(data) == 0 {
		return
	}
	var mate Mate
	if err := json.Unmarshal(data, &mate); err != nil {
		slog.Warn("failed to decode session mate", "error", err)
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.kind != stateAnonymous {
		return
	}
	if stateKind(kind) == stateFederated {
		st.setFederatedLocked(&mate)
	} else {
		st.setLocalLocked(&mate)
	}
}

// persist snapshots the identity state into the session data so it survives
// process restarts and token-only requests.
func (h *Handlers) persist(sess Session, st *SessionState) {
	st.mu.Lock()
	kind := st.kind
	mate := st.mate
	st.mu.Unlock()

	data, err := json.Marshal(mate)
	if err != nil {
		slog.Warn("failed to encode session mate", "error", err)
		return
	}
	sess.Set(sessionKindKey, int(kind))
	sess.Set(sessionMateKey, data)
}

// setLoggedInMate finalizes a successful login: rotates the session token,
// persists the identity snapshot, and issues the signed auth-token cookie.
func (h *Handlers) setLoggedInMate(st *SessionState, mate *Mate, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oldToken := h.Session.Token(ctx)
	if err := h.Session.RenewToken(ctx); err != nil {
		slog.Warn("error renewing session token", "error", err)
	} else if newToken := h.Session.Token(ctx); newToken != "" && newToken != oldToken {
		h.States.Rename(oldToken, newToken)
	} else if oldToken != "" && newToken == "" {
		// scs mints the renewed token at commit time; the snapshot in the
		// session data re-hydrates the identity on the next request
		h.States.Drop(oldToken)
	}
	h.persist(h.session(r), st)

	tokenString, err := h.Signer.Sign(mate.Email)
	if err != nil {
		slog.Warn("error signing auth token", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:    AuthTokenCookie,
		Value:   tokenString,
		Path:    "/",
		MaxAge:  h.SessionTimeoutInSeconds,
		Expires: time.Now().Add(time.Duration(h.SessionTimeoutInSeconds) * time.Second),
	})
}

// destroySession tears down both halves of the session: the identity state
// and the transport session plus the auth-token cookie.
func (h *Handlers) destroySession(w http.ResponseWriter, r *http.Request) {
	st := h.state(r)
	h.Auth.Logout(st)
	if token := h.Session.Token(r.Context()); token != "" {
		h.States.Drop(token)
	}
	if err := h.session(r).Invalidate(); err != nil {
		slog.Warn("error destroying session", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    AuthTokenCookie,
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "error parsing form", ""), http.StatusBadRequest)
		return
	}
	form := &RegistrationForm{
		Email:         r.FormValue("email"),
		Name:          r.FormValue("name"),
		Password:      r.FormValue("password"),
		BirthYear:     r.FormValue("birth-year"),
		BirthMonth:    r.FormValue("birth-month"),
		BirthDay:      r.FormValue("birth-day"),
		Phone1:        r.FormValue("phone1"),
		Phone2:        r.FormValue("phone2"),
		Phone3:        r.FormValue("phone3"),
		Address:       r.FormValue("address"),
		AddressDetail: r.FormValue("address-detail"),
		City:          r.FormValue("city"),
		District:      r.FormValue("district"),
	}

	if _, err := h.Auth.Register(form); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			writeAuthError(w, authErr, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrDuplicateEmail) {
			writeAuthError(w, NewAuthError(ErrCodeEmailExists, err.Error(), "email"), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// registration never logs the mate in; send them to the login page
	http.Redirect(w, r, "/mate/login", http.StatusFound)
}

func (h *Handlers) handleEmailCheck(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	available, err := h.Auth.EmailAvailable(r.FormValue("email"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeBool(w, available)
}

func (h *Handlers) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{}
	if email, ok := ReadSavedEmail(r); ok {
		resp["savedEmail"] = email
	}
	writeJSON(w, resp)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBool(w, false)
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")
	remember := r.FormValue("saveEmail") != ""

	st := h.state(r)
	result, err := h.Auth.LoginLocal(st, email, password, remember)
	if errors.Is(err, ErrInvalidCredentials) {
		writeBool(w, false)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.setLoggedInMate(st, result.Mate, w, r)
	if result.SavedEmail != nil {
		result.SavedEmail.Write(w)
	}
	writeBool(w, true)
}

func (h *Handlers) handleKakaoLogin(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	mate := federatedMateFromForm(r)

	st := h.state(r)
	logged, err := h.Auth.LoginFederated(st, mate)
	if errors.Is(err, ErrNilProfile) {
		writeBool(w, false)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.setLoggedInMate(st, logged, w, r)
	writeBool(w, true)
}

// HandleFederatedUser is the callback the OAuth2 provider invokes after a
// successful code exchange. It maps the provider's userinfo payload onto a
// Mate and establishes the federated session. The provider token is not
// retained: the session snapshot is the identity source afterwards and no
// further provider API calls are made on the mate's behalf.
func (h *Handlers) HandleFederatedUser(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	mate := federatedMateFromUserInfo(userInfo)

	st := h.state(r)
	logged, err := h.Auth.LoginFederated(st, mate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	h.setLoggedInMate(st, logged, w, r)
	slog.Info("federated callback login", "authtype", authtype, "provider", provider, "email", logged.Email)
	http.Redirect(w, r, "/mate/mypage", http.StatusFound)
}

func (h *Handlers) handleMyPage(w http.ResponseWriter, r *http.Request) {
	mate := h.currentMate(r)
	if mate == nil {
		http.Error(w, "Login Required", http.StatusUnauthorized)
		return
	}
	writeJSON(w, mate)
}

func (h *Handlers) handleDetailForm(w http.ResponseWriter, r *http.Request) {
	mate := h.currentMate(r)
	if mate == nil {
		http.Error(w, "Login Required", http.StatusUnauthorized)
		return
	}
	// older records stored the detail inside the address; split for the form
	view := mate.Clone()
	if view.AddressDetail == "" {
		view.Address, view.AddressDetail = SplitAddress(view.Address)
	}
	writeJSON(w, view)
}

func (h *Handlers) handleDetail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "error parsing form", ""), http.StatusBadRequest)
		return
	}
	edits := ProfileEdits{
		Name:          r.FormValue("name"),
		Birthdate:     r.FormValue("birthdate"),
		PhoneNumber:   r.FormValue("phone"),
		Address:       r.FormValue("address"),
		AddressDetail: r.FormValue("address-detail"),
		Location:      JoinLocation(r.FormValue("city"), r.FormValue("district")),
	}
	newPassword := r.FormValue("new-password")

	st := h.state(r)
	result, err := h.Auth.UpdateProfile(st, edits, newPassword)
	if errors.Is(err, ErrNoActiveSession) {
		http.Error(w, "Login Required", http.StatusUnauthorized)
		return
	}
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			writeAuthError(w, authErr, http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if result.PasswordChanged {
		// the old session must not keep working under the new password
		h.destroySession(w, r)
		http.Redirect(w, r, "/mate/newLogin", http.StatusFound)
		return
	}

	h.persist(h.session(r), st)
	writeJSON(w, result.Mate)
}

func (h *Handlers) handlePasswordCheck(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	ok, err := h.Auth.CheckPassword(r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeBool(w, ok)
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	email := r.FormValue("email")
	ok, err := h.Auth.Delete(email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ok {
		if mate := h.currentMate(r); mate != nil && mate.Email == email {
			h.destroySession(w, r)
		}
	}
	writeBool(w, ok)
}

func (h *Handlers) handleNewLogin(w http.ResponseWriter, r *http.Request) {
	h.destroySession(w, r)
	http.Redirect(w, r, "/mate/login", http.StatusFound)
}

func (h *Handlers) handleFindEmailPassword(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")

	var result *Result
	var err error
	if email == "" {
		result, err = h.Recovery.FindEmail(name, password)
	} else {
		result, err = h.Recovery.FindPassword(name, email)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.destroySession(w, r)
	toUrl := r.URL.Query().Get("to")
	if toUrl == "" {
		fmt.Fprint(w, "Logged Out")
		return
	}
	http.Redirect(w, r, toUrl, http.StatusFound)
}

// currentMate resolves the request's mate: the live session state first, then
// a store lookup for requests authenticated only by the auth-token cookie.
func (h *Handlers) currentMate(r *http.Request) *Mate {
	st := h.state(r)
	if mate := h.Auth.Current(st); mate != nil {
		return mate
	}
	email := h.Middleware.LoggedInEmail(r)
	if email == "" {
		return nil
	}
	mate, err := h.Auth.Store.FindByEmail(email)
	if err != nil {
		return nil
	}
	return mate
}

func federatedMateFromForm(r *http.Request) *Mate {
	email := r.FormValue("email")
	name := r.FormValue("name")
	if email == "" && name == "" {
		return nil
	}
	return &Mate{Email: email, Name: name}
}

func federatedMateFromUserInfo(userInfo map[string]any) *Mate {
	if userInfo == nil {
		return nil
	}
	mate := &Mate{}
	if email, ok := userInfo["email"].(string); ok {
		mate.Email = email
	}
	if name, ok := userInfo["nickname"].(string); ok {
		mate.Name = name
	} else if name, ok := userInfo["name"].(string); ok {
		mate.Name = name
	}
	if mate.Email == "" && mate.Name == "" {
		return nil
	}
	return mate
}

func writeBool(w http.ResponseWriter, v bool) {
	if v {
		fmt.Fprint(w, "true")
	} else {
		fmt.Fprint(w, "false")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAuthError(w http.ResponseWriter, err *AuthError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(err)
}
