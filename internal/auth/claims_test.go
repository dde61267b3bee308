package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{
		"sub":      "user-42",
		"email":    "ada@example.test",
		"name":     "Ada",
		"tenantId": "tenant-7",
		"role":     "customer",
		"exp":      exp.Unix(),
		"iat":      exp.Add(-2 * time.Hour).Unix(),
	})

	c, err := ParseClaims(token)
	require.NoError(t, err)

	assert.Equal(t, "user-42", c.Subject)
	assert.Equal(t, "ada@example.test", c.Email)
	assert.Equal(t, "tenant-7", c.TenantID)
	assert.Equal(t, "customer", c.Role)
	assert.Equal(t, "Ada", c.DisplayName())
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(time.Now()))
	assert.True(t, c.Expired(exp.Add(time.Minute)))
}

func TestParseClaims_Fallbacks(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"userId":    "u-1",
		"email":     "bob@example.test",
		"tenant_id": "t-2",
	})

	c, err := ParseClaims(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "t-2", c.TenantID)
	assert.Equal(t, "bob@example.test", c.DisplayName())
	assert.True(t, c.ExpiresAt.IsZero())
	assert.False(t, c.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestParseClaims_Malformed(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.Error(t, err)
}
