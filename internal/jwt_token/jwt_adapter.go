package jwttoken

import (
	authmw "certgen/pkg/platform/middleware/auth"
)

// JWTServiceAdapter satisfies auth.JWTValidator so the middleware package
// stays free of the jwt library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(token string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{OwnerID: claims.OwnerID, JTI: claims.ID}, nil
}
