package jwttoken

import (
	"assetgate/internal/platform/middleware"
)

// JWTServiceAdapter bridges JWTService to the middleware validator interface
// so the middleware package stays free of JWT specifics.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		SubmitterID:   claims.SubmitterID,
		WalletAddress: claims.WalletAddress,
	}, nil
}
