package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the tenant JWT the chatbox displays.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	TenantID  string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ParseClaims decodes token without verifying its signature. The backend is the
// only party that verifies; the client just reads identity and expiry for display.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	c := &Claims{
		Email:    stringClaim(mc, "email"),
		Name:     stringClaim(mc, "name"),
		TenantID: firstString(mc, "tenantId", "tenant_id"),
		Role:     stringClaim(mc, "role"),
	}
	if sub, err := mc.GetSubject(); err == nil && sub != "" {
		c.Subject = sub
	} else {
		c.Subject = firstString(mc, "userId", "id")
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// Expired reports whether the token had expired at now. Tokens without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// DisplayName picks the friendliest identity available.
func (c *Claims) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.Subject
	}
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return v
	}
	return ""
}

func firstString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v := stringClaim(mc, k); v != "" {
			return v
		}
	}
	return ""
}
