package security

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"portfolio_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AuthTokenHeader is the dedicated header accepted next to Authorization.
	AuthTokenHeader = "x-auth-token"

	claimUserID = "user_id"
	claimRole   = "role"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims is the decoded session token payload.
type Claims struct {
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens. It holds the
// signing secret for the lifetime of the process and is safe for
// concurrent use.
type TokenManager struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now for both issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		auth:   jwtauth.New("HS256", secret, nil),
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token carrying only the subject id and role.
func (m *TokenManager) Issue(userID string, role model.Role) (string, time.Time, error) {
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)

	claims := map[string]interface{}{
		claimUserID: userID,
		claimRole:   string(role),
	}
	jwtauth.SetIssuedAt(claims, issuedAt)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := m.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse verifies signature and expiry. An expired but otherwise valid token
// yields ErrTokenExpired; every other failure yields ErrTokenInvalid.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// TokenFromRequest reads the bearer token from x-auth-token, falling back to
// "Authorization: Bearer <token>".
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(AuthTokenHeader)); token != "" {
		return token
	}
	return strings.TrimSpace(jwtauth.TokenFromHeader(r))
}
