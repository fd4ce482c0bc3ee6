package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"

	"github.com/toybox-bd/storefront-api/internal/common"
)

// RoleAdmin is required on tokens calling the administrative and settlement endpoints.
const RoleAdmin = "admin"

var errNoToken = errors.New("auth: token missing")

// Guard verifies HS256 bearer tokens minted for back-office callers.
type Guard struct {
	secret    []byte
	validator TokenValidator
	now       func() time.Time
}

// NewGuard builds a Guard that accepts tokens signed with secret, issued by issuer
// and carrying the admin role.
func NewGuard(secret, issuer string) (*Guard, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &Guard{
		secret: []byte(secret),
		validator: TokenValidator{
			Issuer:    issuer,
			Role:      RoleAdmin,
			ClockSkew: 30 * time.Second,
			Algorithm: jwa.HS256,
		},
		now: time.Now,
	}, nil
}

// Issue mints a token for subject with the given role.
func (g *Guard) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := g.now()
	tok, err := jwt.NewBuilder().
		Issuer(g.validator.Issuer).
		Subject(subject).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim(RoleClaim, role).
		Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(g.validator.Algorithm, g.secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// Parse verifies token and returns its subject.
func (g *Guard) Parse(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", errNoToken
	}
	algorithm, err := tokenAlgorithm(trimmed)
	if err != nil {
		return "", err
	}
	if algorithm != g.validator.Algorithm {
		return "", fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, g.secret), jwt.WithValidate(false))
	if err != nil {
		return "", err
	}
	if err := g.validator.Validate(parsed, algorithm, g.now()); err != nil {
		return "", err
	}
	return parsed.Subject(), nil
}

// RequireAdmin rejects requests without a valid admin bearer token and stores the
// token subject on the request context.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := g.Parse(bearerToken(r))
		if err != nil {
			if errors.Is(err, errNoToken) {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
			return
		}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("subject", subject)
		})
		next.ServeHTTP(w, r.WithContext(common.WithSubject(r.Context(), subject)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: expected exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}
