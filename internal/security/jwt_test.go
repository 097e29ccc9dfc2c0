package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(now time.Time) *TokenManager {
	m := NewTokenManager("test-secret", "dentalclinic", time.Hour, 7*24*time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	m := newTestManager(now)

	issued, err := m.IssueAccess("drsmith", []string{"ROLE_DOCTOR"}, []string{"VIEW_PATIENT"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, now.Add(time.Hour).Unix(), issued.ExpiresAt.Unix())

	claims, err := m.ParseAccess(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "drsmith", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "dentalclinic", claims.Issuer)
	assert.Equal(t, AccessToken, claims.Type)
	assert.Equal(t, []string{"ROLE_DOCTOR"}, claims.Roles)
	assert.Equal(t, []string{"VIEW_PATIENT"}, claims.Permissions)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := newTestManager(time.Now())

	refresh, err := m.IssueRefresh("drsmith")
	require.NoError(t, err)

	_, err = m.ParseAccess(refresh.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := m.ParseRefresh(refresh.Token)
	require.NoError(t, err)
	assert.Empty(t, claims.Permissions)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	m := newTestManager(issuedAt)
	issued, err := m.IssueAccess("drsmith", nil, nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccess(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	other := NewTokenManager("another-secret", "dentalclinic", time.Hour, time.Hour)
	issued, err := other.IssueAccess("drsmith", nil, nil)
	require.NoError(t, err)

	_, err = newTestManager(time.Now()).ParseAccess(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    "dentalclinic",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestManager(time.Now()).ParseAccess(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_NoKey(t *testing.T) {
	m := NewTokenManager("", "dentalclinic", time.Hour, time.Hour)
	_, err := m.IssueAccess("x", nil, nil)
	assert.ErrorIs(t, err, ErrNoSigningKey)
	_, err = m.ParseAccess("x.y.z")
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
	assert.NotEqual(t, h, HashToken("abd"))
}
