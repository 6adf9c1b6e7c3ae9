package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// KakaoEndpoint is Kakao's OAuth2 endpoint (x/oauth2 does not ship one).
var KakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

type KakaoOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL is the URL to fetch user info from. Defaults to Kakao's API.
	// Can be overridden for testing.
	UserInfoURL string
}

func NewKakaoOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *KakaoOAuth2 {
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv("OAUTH2_KAKAO_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("OAUTH2_KAKAO_CLIENT_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv("OAUTH2_KAKAO_CALLBACK_URL"))
	}

	out := KakaoOAuth2{
		BaseOAuth2:  NewBaseOAuth2(clientId, clientSecret, callbackUrl, handleUser),
		UserInfoURL: "https://kapi.kakao.com/v2/user/me",
	}
	out.BaseOAuth2.oauthConfig.Endpoint = KakaoEndpoint
	out.BaseOAuth2.oauthConfig.Scopes = []string{
		"account_email", "profile_nickname",
	}

	out.mux.HandleFunc("/callback/", out.handleCallback)

	return &out
}

func (k *KakaoOAuth2) handleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie("oauthstate")
	if oauthState == nil {
		http.Error(w, "OauthState is nil", http.StatusBadRequest)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		http.SetCookie(w, &http.Cookie{
			Name:   "oauthstate",
			MaxAge: 0,
		})
		http.Error(w, fmt.Sprintf("invalid oauth kakao state: %s, CookieOauthState: %s", r.FormValue("state"), oauthState.Value), http.StatusBadRequest)
		return
	}

	var userInfo map[string]any
	code := r.FormValue("code")
	token, err := k.oauthConfig.Exchange(k.ExchangeContext(), code)
	if err != nil {
		slog.Info("Invalid code exchange", "err", err)
	} else {
		userInfo, err = k.validateAccessToken(token)
		if err == nil {
			k.HandleUser("oauth", "kakao", token, userInfo, w, r)
		}
	}
	if err != nil {
		slog.Info("redirecting due to error ", "err", err)
		http.Redirect(w, r, k.AuthFailureUrl, http.StatusTemporaryRedirect)
	}
}

func (k *KakaoOAuth2) validateAccessToken(token *oauth2.Token) (userInfo map[string]any, err error) {
	userInfo, err = k.getUserData(token)
	if err != nil {
		slog.Info("error validating tokens", "err", err)
	}
	return
}

func (k *KakaoOAuth2) getUserData(token *oauth2.Token) (map[string]any, error) {
	log.Println("Getting User data from kakao....")
	req, err := http.NewRequest("GET", k.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	client := k.getHTTPClient()
	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from kakao: %s", err.Error())
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %s", err.Error())
	}

	var raw map[string]any
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %s", err.Error())
	}
	return flattenKakaoUserInfo(raw), nil
}

// flattenKakaoUserInfo lifts the fields nested under kakao_account and
// profile up to the top level so the user callback sees a flat payload.
func flattenKakaoUserInfo(raw map[string]any) map[string]any {
	userInfo := map[string]any{}
	if id, ok := raw["id"]; ok {
		userInfo["id"] = id
	}
	account, _ := raw["kakao_account"].(map[string]any)
	if account != nil {
		if email, ok := account["email"].(string); ok {
			userInfo["email"] = email
		}
		if profile, ok := account["profile"].(map[string]any); ok {
			if nickname, ok := profile["nickname"].(string); ok {
				userInfo["nickname"] = nickname
			}
		}
	}
	return userInfo
}
