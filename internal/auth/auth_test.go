package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *Tokens {
	return NewTokens(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), 0)
}

func TestIssueAndVerify(t *testing.T) {
	tok := newTokens()
	s, err := tok.Issue("voice-agent")
	require.NoError(t, err)

	c, err := tok.Verify(s)
	require.NoError(t, err)
	assert.Equal(t, "voice-agent", c.Client)
	assert.NotZero(t, c.IssuedAt)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	s, err := newTokens().Issue("voice-agent")
	require.NoError(t, err)

	_, err = newTokens().Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTokens().Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresClient(t *testing.T) {
	_, err := newTokens().Issue("  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireToken(t *testing.T) {
	tok := newTokens()
	s, err := tok.Issue("chat")
	require.NoError(t, err)

	var seen string
	h := tok.RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClientFromContext(r.Context())
	}))

	for _, tc := range []struct {
		name   string
		header string
		value  string
		code   int
	}{
		{"bearer", "Authorization", "Bearer " + s, http.StatusOK},
		{"custom header", HeaderName, s, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "Authorization", "Bearer nope", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/book_table", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "chat", seen)
			}
		})
	}
}
