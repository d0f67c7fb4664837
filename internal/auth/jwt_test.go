package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTResolverRoundTrip(t *testing.T) {
	resolver := NewJWTResolver("secret", "authenticated")
	userID := uuid.New()

	token, err := resolver.Issue(userID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/functions/v1/send-message", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	got, err := resolver.UserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTResolverMissingHeader(t *testing.T) {
	resolver := NewJWTResolver("secret", "")

	for _, header := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		req := httptest.NewRequest("POST", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, err := resolver.UserID(req)
		assert.ErrorIs(t, err, ErrMissingToken, header)
	}
}

func TestJWTResolverRejectsBadTokens(t *testing.T) {
	resolver := NewJWTResolver("secret", "authenticated")
	userID := uuid.New()

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{"sub": userID.String(), "aud": "authenticated", "exp": time.Now().Add(time.Hour).Unix()}
	}

	expired := valid()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := valid()
	delete(noExp, "exp")

	wrongAud := valid()
	wrongAud["aud"] = "anon"

	badSub := valid()
	badSub["sub"] = "not-a-uuid"

	cases := map[string]string{
		"wrong secret":   sign(jwt.SigningMethodHS256, []byte("other"), valid()),
		"expired":        sign(jwt.SigningMethodHS256, []byte("secret"), expired),
		"no expiry":      sign(jwt.SigningMethodHS256, []byte("secret"), noExp),
		"wrong audience": sign(jwt.SigningMethodHS256, []byte("secret"), wrongAud),
		"bad subject":    sign(jwt.SigningMethodHS256, []byte("secret"), badSub),
		"wrong method":   sign(jwt.SigningMethodHS512, []byte("secret"), valid()),
		"garbage":        "abc.def.ghi",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := resolver.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
