package token

import (
	"heirloom/internal/platform/middleware"
)

// MiddlewareAdapter bridges the token service to the access gate's
// TokenValidator interface without the middleware importing this package.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Decode(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}
