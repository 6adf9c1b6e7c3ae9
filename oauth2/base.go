package oauth2

import (
	"context"
	"net/http"
	"os"

	"golang.org/x/oauth2"
)

// BaseOAuth2 carries the pieces every provider shares: the oauth2 config, the
// redirect handler and the post-login user callback.
type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string
	HandleUser   HandleUserFunc

	// AuthFailureUrl is where a failed callback redirects. Defaults to the
	// login page.
	AuthFailureUrl string

	// HTTPClient overrides the client used to fetch user info (tests).
	HTTPClient *http.Client

	oauthConfig oauth2.Config
	mux         *http.ServeMux
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *BaseOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_CALLBACK_URL")
	}
	out := &BaseOAuth2{
		ClientId:       clientId,
		ClientSecret:   clientSecret,
		CallbackURL:    callbackUrl,
		HandleUser:     handleUser,
		AuthFailureUrl: "/mate/login",
		mux:            http.NewServeMux(),
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
	out.setupHandlers()
	return out
}

func (b *BaseOAuth2) setupHandlers() {
	b.mux.HandleFunc("/", OauthRedirector(&b.oauthConfig))
}

// ServeHTTP lets a provider be mounted under a path prefix; "/" starts the
// flow and "/callback/" completes it.
func (b *BaseOAuth2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// ExchangeContext is the context used for the code exchange.
func (b *BaseOAuth2) ExchangeContext() context.Context {
	return context.Background()
}

func (b *BaseOAuth2) getHTTPClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}
