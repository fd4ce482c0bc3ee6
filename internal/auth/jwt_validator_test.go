package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func buildToken(t *testing.T, issuer, role string, nbf, exp time.Time) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{"aud"}).
		Subject("order-service").
		IssuedAt(nbf).
		NotBefore(nbf).
		Expiration(exp).
		Claim(RoleClaim, role).
		Build()
	require.NoError(t, err)
	return tok
}

func TestTokenValidatorAcceptsAdmin(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "toybox", RoleAdmin, now, now.Add(time.Minute))
	v := TokenValidator{Issuer: "toybox", Audience: "aud", Role: RoleAdmin, ClockSkew: time.Second, Algorithm: jwa.HS256}
	require.NoError(t, v.Validate(tok, jwa.HS256, now))
}

func TestTokenValidatorRejections(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "toybox", Role: RoleAdmin, Algorithm: jwa.HS256}
	cases := map[string]struct {
		tok jwt.Token
		alg jwa.SignatureAlgorithm
	}{
		"issuer mismatch": {buildToken(t, "other", RoleAdmin, now, now.Add(time.Minute)), jwa.HS256},
		"expired":         {buildToken(t, "toybox", RoleAdmin, now.Add(-2*time.Hour), now.Add(-time.Minute)), jwa.HS256},
		"not yet valid":   {buildToken(t, "toybox", RoleAdmin, now.Add(5*time.Minute), now.Add(10*time.Minute)), jwa.HS256},
		"wrong role":      {buildToken(t, "toybox", "customer", now, now.Add(time.Minute)), jwa.HS256},
		"wrong algorithm": {buildToken(t, "toybox", RoleAdmin, now, now.Add(time.Minute)), jwa.RS256},
	}
	for name, tc := range cases {
		require.Error(t, v.Validate(tc.tok, tc.alg, now), name)
	}
	require.Error(t, v.Validate(nil, jwa.HS256, now))
}
