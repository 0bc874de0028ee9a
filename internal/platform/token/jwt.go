// Package token issues and validates the bearer tokens that carry a caller
// address. The token proves possession of an identity; every privilege check
// happens later, in the services, against stored state.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

// CallerClaims is the claim set for caller tokens. Subject is the caller address.
type CallerClaims struct {
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

func NewService(signingKey, issuer string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// Generate creates a signed caller token for the given address.
func (s *Service) Generate(caller id.Address) (string, error) {
	now := time.Now()
	claims := CallerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// ValidateToken verifies the signature and expiry and returns the caller address.
func (s *Service) ValidateToken(tokenString string) (id.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &CallerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}
	claims, ok := parsed.Claims.(*CallerClaims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	caller, err := id.ParseAddress(claims.Subject)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "token subject is not an address")
	}
	return caller, nil
}
