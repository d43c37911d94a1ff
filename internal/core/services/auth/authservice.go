package auth

import (
	"context"

	"gitlab.com/codearena.net/internal/domain"
)

type IAuthService interface {
	ProviderName() domain.Provider
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
}
