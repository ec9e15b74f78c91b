package jwttoken

import (
	"vellum/pkg/platform/middleware/auth"
)

// MiddlewareAdapter adapts the token service to the auth middleware's
// TokenValidator interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

var _ auth.TokenValidator = (*MiddlewareAdapter)(nil)

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*auth.IssuerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.IssuerClaims{
		Address: claims.Address,
		Label:   claims.Label,
		JTI:     claims.ID,
	}, nil
}
