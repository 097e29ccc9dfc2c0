package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrNoSigningKey   = errors.New("jwt signing key is not configured")
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// Claims is the JWT body issued by TokenManager.
type Claims struct {
	Type        TokenType `json:"typ"`
	Roles       []string  `json:"roles,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token together with its identity and expiry.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		key:        []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccess signs an access token carrying roles and permissions.
func (m *TokenManager) IssueAccess(username string, roles, permissions []string) (IssuedToken, error) {
	return m.issue(username, AccessToken, m.accessTTL, roles, permissions)
}

// IssueRefresh signs a refresh token. It carries no authorities.
func (m *TokenManager) IssueRefresh(username string) (IssuedToken, error) {
	return m.issue(username, RefreshToken, m.refreshTTL, nil, nil)
}

func (m *TokenManager) issue(subject string, typ TokenType, ttl time.Duration, roles, perms []string) (IssuedToken, error) {
	if len(m.key) == 0 {
		return IssuedToken{}, ErrNoSigningKey
	}
	now := m.now()
	exp := now.Add(ttl)
	id := uuid.NewString()

	claims := Claims{
		Type:        typ,
		Roles:       roles,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, ID: id, ExpiresAt: time.Unix(exp.Unix(), 0)}, nil
}

// ParseAccess validates an access token and returns its claims.
func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, AccessToken)
}

// ParseRefresh validates a refresh token and returns its claims.
func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, RefreshToken)
}

func (m *TokenManager) parse(token string, want TokenType) (*Claims, error) {
	if len(m.key) == 0 {
		return nil, ErrNoSigningKey
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// HashToken returns the hex sha256 digest used to persist refresh tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
