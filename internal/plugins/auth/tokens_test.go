package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute, time.Hour)

	pair, err := issuer.Issue(&User{ID: 42, Username: "alice"})
	require.NoError(t, err)

	access, err := issuer.Parse(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	refresh, err := issuer.Parse(pair.Refresh, TokenTypeRefresh)
	require.NoError(t, err)

	id, err := access.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "alice", access.Username)
	assert.NotEqual(t, access.ID, refresh.ID, "each token gets its own jti")
}

func TestTokenIssuer_TypeMismatch(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute, time.Hour)
	pair, err := issuer.Issue(&User{ID: 1, Username: "a"})
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Access, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Parse(pair.Refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute, time.Hour)
	pair, err := issuer.Issue(&User{ID: 1, Username: "a"})
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute, time.Hour)
	other := NewTokenIssuer("another-secret-key-of-sufficient-length", time.Minute, time.Hour)
	pair, err := other.Issue(&User{ID: 1, Username: "a"})
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute, time.Hour)
	claims := Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Parse(raw, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RemainingTTL(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	}}
	assert.Equal(t, 10*time.Minute, issuer.RemainingTTL(claims))

	claims.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	assert.Equal(t, time.Duration(0), issuer.RemainingTTL(claims))
}
