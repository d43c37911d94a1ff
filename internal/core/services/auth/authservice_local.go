package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

var _ IAuthService = &localAuthService{}

const minPasswordLength = 6

type localAuthService struct {
	userPort    secondary.UserPort
	jwtProvider primary.JWTService
	logger      primary.Logger
}

func NewLocalAuthService(
	userPort secondary.UserPort,
	jwtProvider primary.JWTService,
	logger primary.Logger,
) IAuthService {
	return &localAuthService{
		userPort:    userPort,
		jwtProvider: jwtProvider,
		logger:      logger,
	}
}

func (g localAuthService) ProviderName() domain.Provider {
	return domain.ProviderLocal
}

func (g localAuthService) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	userName := strings.TrimSpace(req.Username)
	if userName == "" || len(req.Password) < minPasswordLength {
		return "", errs.InvalidCredentials
	}

	existing, err := g.userPort.GetByUserName(ctx, userName)
	if err != nil {
		g.logger.Error("Failed to look up user", "userName", userName, "error", err)
		return "", errs.InternalError
	}
	if existing != nil {
		return "", errs.UserNameTaken
	}

	hash, err := g.jwtProvider.EncryptPassword(ctx, req.Password)
	if err != nil {
		return "", errs.InternalError
	}

	user := &domain.Users{
		ID:           uuid.New(),
		UserName:     userName,
		PasswordHash: &hash,
		Email:        req.Email,
		AuthProvider: string(domain.ProviderLocal),
	}
	if err := g.userPort.Create(ctx, user); err != nil {
		if errors.Is(err, errs.UserNameTaken) {
			return "", err
		}
		g.logger.Error("Failed to create user", "userName", userName, "error", err)
		return "", errs.FailedToCreateUser
	}

	g.logger.Info("User registered", "userId", user.ID, "userName", userName)
	return g.generateToken(ctx, user)
}

func (g localAuthService) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	usr, err := g.userPort.GetByUserName(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		g.logger.Error("Failed to look up user", "userName", req.Username, "error", err)
		return "", errs.InternalError
	}
	if usr == nil || usr.PasswordHash == nil {
		return "", errs.InvalidCredentials
	}
	valid, err := g.jwtProvider.VerifyPassword(ctx, *usr.PasswordHash, req.Password)
	if err != nil || !valid {
		return "", errs.InvalidCredentials
	}

	return g.generateToken(ctx, usr)
}

func (g localAuthService) generateToken(ctx context.Context, user *domain.Users) (string, error) {
	claims := map[string]interface{}{
		"sub":      user.ID.String(),
		"username": user.UserName,
	}
	token, err := g.jwtProvider.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, claims)
	if err != nil {
		return "", errs.GeneratingToken
	}
	return token, nil
}
