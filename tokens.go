package mateauth

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthTokenCookie is the cookie carrying the signed auth token. Unlike
// savedEmail it is authoritative: the middleware accepts it when no live
// session state resolves.
const AuthTokenCookie = "mateAuthToken"

// TokenSigner issues and verifies the JWT auth tokens set alongside the
// server-side session on login.
type TokenSigner struct {
	Issuer    string
	SecretKey string

	// Token lifetime. Defaults to an hour.
	Expiry time.Duration
}

func (t *TokenSigner) EnsureDefaults() *TokenSigner {
	if t.Issuer == "" {
		t.Issuer = "runningmate"
	}
	if t.SecretKey == "" {
		t.SecretKey = strings.TrimSpace(os.Getenv("RUNNINGMATE_JWT_SECRET_KEY"))
	}
	if t.Expiry <= 0 {
		t.Expiry = time.Hour
	}
	return t
}

// Sign issues a token whose subject is the mate's email.
func (t *TokenSigner) Sign(email string) (string, error) {
	t.EnsureDefaults()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"iss": t.Issuer,
		"exp": time.Now().Add(t.Expiry).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString([]byte(t.SecretKey))
}

// Verify parses a token and returns the email it was issued for.
func (t *TokenSigner) Verify(tokenString string) (email string, err error) {
	t.EnsureDefaults()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(t.SecretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("subject not found")
	}
	return sub, nil
}
