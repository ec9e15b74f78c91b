// Package jwttoken issues and validates issuer session tokens.
package jwttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// IssuerSessionClaims represents the JWT claims for issuer session tokens.
type IssuerSessionClaims struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	jwt.RegisteredClaims
}

// Service handles issuer session token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewService(signingKey, issuer, audience string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// GenerateSessionToken mints a session token for an issuing authority.
// The token carries the issuer's ledger address; revocation authority checks
// downstream compare this address against the on-ledger issuer field.
func (s *Service) GenerateSessionToken(address id.AccountAddress, label string) (string, error) {
	if address.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "issuer address is required")
	}

	now := time.Now()
	claims := IssuerSessionClaims{
		Address: address.String(),
		Label:   label,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   address.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// ValidateToken parses and validates a session token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*IssuerSessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &IssuerSessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*IssuerSessionClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	if claims.Address == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session token missing issuer address")
	}
	return claims, nil
}
