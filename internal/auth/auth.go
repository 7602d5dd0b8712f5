package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrInvalidToken is returned for tokens that fail to decode, are expired, or name no client.
var ErrInvalidToken = errors.New("invalid token")

const (
	tokenName = "centralino_client"
	// HeaderName carries the token when the caller cannot set Authorization.
	HeaderName = "X-Centralino-Token"
	DefaultTTL = 365 * 24 * time.Hour
)

// Claims is what a client token asserts.
type Claims struct {
	Client   string `json:"c"`
	IssuedAt int64  `json:"iat"`
}

// Tokens issues and verifies signed, encrypted client tokens. Calling
// assistants present one on every webhook request.
type Tokens struct {
	sc *securecookie.SecureCookie
}

func NewTokens(hashKey, blockKey []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &Tokens{sc: sc}
}

func (t *Tokens) Issue(client string) (string, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return "", fmt.Errorf("%w: client name required", ErrInvalidToken)
	}
	return t.sc.Encode(tokenName, Claims{Client: client, IssuedAt: time.Now().Unix()})
}

func (t *Tokens) Verify(token string) (Claims, error) {
	var c Claims
	if err := t.sc.Decode(tokenName, token, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Client == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

type ctxKey string

const clientKey ctxKey = "client"

// RequireToken rejects requests without a valid token with 401.
func (t *Tokens) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := t.Verify(tokenFrom(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="centralino"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), clientKey, c.Client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderName))
}

func ClientFromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(clientKey).(string)
	return c, ok
}
