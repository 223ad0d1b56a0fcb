package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/toir/internal/model"
)

var tech = &model.User{ID: 7, Username: "ivanov", Role: model.RoleTechnician}

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret-key", time.Hour)

	token, issued, err := tokens.Issue(tech)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ivanov", claims.Username)
	assert.Equal(t, model.RoleTechnician, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseWrongSecret(t *testing.T) {
	token, _, err := NewTokens("secret1", time.Hour).Issue(tech)
	require.NoError(t, err)

	_, err = NewTokens("secret2", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := tokens.Issue(tech)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	_, err := NewTokens("secret", time.Hour).Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, _, err := tokens.Issue(&model.User{ID: 1, Username: "x", Role: "superuser"})
	require.NoError(t, err)

	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		UserID: 1, Username: "x", Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUniqueTokenIDs(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	_, a, err := tokens.Issue(tech)
	require.NoError(t, err)
	_, b, err := tokens.Issue(tech)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
