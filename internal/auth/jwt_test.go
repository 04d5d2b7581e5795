package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("test-secret", "hilook")

	token, err := issuer.Issue(Claims{UserID: 12, Name: "Aziz", Phone: "+998901234567", IsWholesaler: true, Role: "user"}, time.Hour)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)

	assert.Equal(t, int64(12), claims.UserID)
	assert.Equal(t, "+998901234567", claims.Phone)
	assert.True(t, claims.IsWholesaler)
	assert.Equal(t, "user", claims.Role)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", "hilook")
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(Claims{Username: "admin", Role: "admin"}, time.Hour)
	require.NoError(t, err)

	issuer.now = time.Now

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewIssuer("one", "hilook").Issue(Claims{Role: "admin"}, time.Hour)
	require.NoError(t, err)

	_, err = NewIssuer("two", "hilook").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewIssuer("one", "hilook").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
