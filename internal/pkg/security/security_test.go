package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", "Agora")
	token, err := m.GenerateToken(7, []string{"admin"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("system"))
}

func TestTokenRejectsWrongSecretOrIssuer(t *testing.T) {
	token, err := NewTokenManager("secret", "Agora").GenerateToken(1, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("other", "Agora").ValidateToken(token)
	assert.Error(t, err)

	_, err = NewTokenManager("secret", "Elsewhere").ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractSignature(t *testing.T) {
	sig, err := ExtractSignature("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "c", sig)

	_, err = ExtractSignature("a.b")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	pw, err := RandomPassword()
	require.NoError(t, err)
	assert.Len(t, pw, 48)

	hash, err := HashPassword(pw)
	require.NoError(t, err)
	assert.NoError(t, CheckPasswordHash(pw, hash))
	assert.Error(t, CheckPasswordHash("wrong", hash))
}

func TestSanitizerStripsMarkup(t *testing.T) {
	s := NewTextSanitizer()
	assert.Equal(t, "적분은 a < b 일 때", s.Sanitize("<p>적분은 a &lt; b 일 때</p><script>alert(1)</script>"))
	assert.Equal(t, "plain & simple", s.Sanitize("  plain & simple  "))
}
