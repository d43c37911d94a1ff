package handlers

import (
	"net/http"
	"strings"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/services/auth"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/handlers/response"
)

type MiddlewareProvider struct {
	jwtService primary.JWTService
	logger     primary.Logger
}

func NewMiddlewareProvider(jwtService primary.JWTService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		jwtService: jwtService,
		logger:     logger,
	}
}

// JWTMiddleware attaches the actor of a valid bearer token to the request context.
// Requests without a token pass through anonymous; an invalid token is rejected.
func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			response.WriteError(w, response.ErrorMessage{Message: "malformed authorization header", StatusCode: http.StatusUnauthorized})
			return
		}

		payload, err := m.jwtService.ParseTokenHMAC(r.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			m.logger.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
			response.WriteError(w, response.ErrorMessage{Message: "invalid token", StatusCode: http.StatusUnauthorized})
			return
		}

		ctx := auth.WithActor(r.Context(), &domain.Actor{UserID: payload.Subject, Username: payload.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
