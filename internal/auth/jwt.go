package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Resolver turns an incoming request into the caller's user id.
type Resolver interface {
	UserID(r *http.Request) (uuid.UUID, error)
}

// JWTResolver validates HS256 access tokens issued by the platform's auth
// provider. The subject claim carries the user id.
type JWTResolver struct {
	secret   []byte
	audience string
	parser   *jwt.Parser
}

func NewJWTResolver(secret, audience string) *JWTResolver {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTResolver{
		secret:   []byte(secret),
		audience: audience,
		parser:   jwt.NewParser(opts...),
	}
}

func (j *JWTResolver) UserID(r *http.Request) (uuid.UUID, error) {
	tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(tokenStr) == "" {
		return uuid.Nil, ErrMissingToken
	}
	return j.Parse(tokenStr)
}

func (j *JWTResolver) Parse(tokenStr string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	token, err := j.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}

// Issue signs a token for userID. The server never calls it; it exists for
// local tooling and tests.
func (j *JWTResolver) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	if j.audience != "" {
		claims["aud"] = j.audience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}
