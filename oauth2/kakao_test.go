package oauth2

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFlattenKakaoUserInfo(t *testing.T) {
	raw := map[string]any{
		"id": float64(123456),
		"kakao_account": map[string]any{
			"email": "mate@example.com",
			"profile": map[string]any{
				"nickname": "runner",
			},
		},
	}
	flat := flattenKakaoUserInfo(raw)
	assert.Equal(t, float64(123456), flat["id"])
	assert.Equal(t, "mate@example.com", flat["email"])
	assert.Equal(t, "runner", flat["nickname"])
}

func TestFlattenKakaoUserInfoPartial(t *testing.T) {
	flat := flattenKakaoUserInfo(map[string]any{
		"kakao_account": map[string]any{"email": "mate@example.com"},
	})
	assert.Equal(t, "mate@example.com", flat["email"])
	assert.NotContains(t, flat, "nickname")

	flat = flattenKakaoUserInfo(map[string]any{})
	assert.Empty(t, flat)
}

func TestOauthRedirector(t *testing.T) {
	k := NewKakaoOAuth2("client-id", "client-secret", "http://localhost/auth/kakao/callback/", nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/?callbackURL=/after-login", nil)
	k.ServeHTTP(w, r)

	resp := w.Result()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "kauth.kakao.com", loc.Host)
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))

	var stateCookie, callbackCookie *http.Cookie
	for _, c := range resp.Cookies() {
		switch c.Name {
		case "oauthstate":
			stateCookie = c
		case "oauthCallbackURL":
			callbackCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.Equal(t, stateCookie.Value, loc.Query().Get("state"))
	require.NotNil(t, callbackCookie)
	assert.Equal(t, "/after-login", callbackCookie.Value)
}

func TestCallbackRejectsMissingState(t *testing.T) {
	k := NewKakaoOAuth2("client-id", "client-secret", "http://localhost/callback/", nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/callback/?state=abc&code=xyz", nil)
	k.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	k := NewKakaoOAuth2("client-id", "client-secret", "http://localhost/callback/", nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/callback/?state=forged&code=xyz", nil)
	r.AddCookie(&http.Cookie{Name: "oauthstate", Value: "genuine"})
	k.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestCallbackSuccess(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-access-token","token_type":"bearer"}`)
	}))
	defer tokenServer.Close()

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":123,"kakao_account":{"email":"mate@example.com","profile":{"nickname":"runner"}}}`)
	}))
	defer userInfoServer.Close()

	var handled bool
	handleUser := func(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
		handled = true
		assert.Equal(t, "oauth", authtype)
		assert.Equal(t, "kakao", provider)
		assert.Equal(t, "test-access-token", token.AccessToken)
		assert.Equal(t, "mate@example.com", userInfo["email"])
		assert.Equal(t, "runner", userInfo["nickname"])
		w.WriteHeader(http.StatusOK)
	}

	k := NewKakaoOAuth2("client-id", "client-secret", "http://localhost/callback/", handleUser)
	k.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/authorize",
		TokenURL: tokenServer.URL + "/token",
	}
	k.UserInfoURL = userInfoServer.URL

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/callback/?state=genuine&code=test-code", nil)
	r.AddCookie(&http.Cookie{Name: "oauthstate", Value: "genuine"})
	k.ServeHTTP(w, r)

	require.True(t, handled, "user callback not invoked")
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestCallbackFailureRedirects(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad code", http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	k := NewKakaoOAuth2("client-id", "client-secret", "http://localhost/callback/", nil)
	k.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/authorize",
		TokenURL: tokenServer.URL + "/token",
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/callback/?state=genuine&code=bad-code", nil)
	r.AddCookie(&http.Cookie{Name: "oauthstate", Value: "genuine"})
	k.ServeHTTP(w, r)

	resp := w.Result()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/mate/login", resp.Header.Get("Location"))
}
