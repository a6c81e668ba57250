package flow

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calderaid/caldera-go/pkg/protocol"
)

// DefaultClockSkew is subtracted from the token lifetime when judging
// validity, so a token is treated as expired slightly before the service
// would reject it.
const DefaultClockSkew = 30 * time.Second

// Session holds the single active token set of an authenticated session.
// The set is replaced wholesale on refresh, never merged field by field.
type Session struct {
	tokens   protocol.Tokens
	issuedAt time.Time
}

// NewSession records a freshly issued token set.
func NewSession(tokens protocol.Tokens, issuedAt time.Time) *Session {
	return &Session{tokens: tokens, issuedAt: issuedAt}
}

// Tokens returns the active token set.
func (s *Session) Tokens() protocol.Tokens {
	return s.tokens
}

// IssuedAt returns when the active token set was received.
func (s *Session) IssuedAt() time.Time {
	return s.issuedAt
}

// Replace swaps in a refreshed token set. A refresh response that omits the
// refresh token keeps the previous one; everything else is taken from the
// new set.
func (s *Session) Replace(tokens protocol.Tokens, issuedAt time.Time) {
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = s.tokens.RefreshToken
	}
	s.tokens = tokens
	s.issuedAt = issuedAt
}

// ExpiresAt returns the end of the token set's service-reported lifetime.
func (s *Session) ExpiresAt() time.Time {
	return s.issuedAt.Add(time.Duration(s.tokens.ExpiresIn) * time.Second)
}

// Valid reports whether the token set is still usable at the given time,
// with the clock-skew allowance applied.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt().Add(-DefaultClockSkew))
}

// TimeUntilExpiry returns the remaining lifetime, or 0 if already expired.
func (s *Session) TimeUntilExpiry(now time.Time) time.Duration {
	d := s.ExpiresAt().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// AccessTokenExpiry recovers the exp claim from the access token. The token
// is parsed without signature verification: the engine does expiry
// bookkeeping only, validation is the service's job.
func (s *Session) AccessTokenExpiry() (time.Time, error) {
	return tokenExpiry(s.tokens.AccessToken)
}

// IDTokenExpiry recovers the exp claim from the identity token.
func (s *Session) IDTokenExpiry() (time.Time, error) {
	return tokenExpiry(s.tokens.IDToken)
}

func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token carries no exp claim")
	}
	return exp.Time, nil
}
