package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/services/auth"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/handlers/response"
)

type Handler struct {
	providerHandler map[domain.Provider]auth.IAuthService
	logger          primary.Logger
}

func NewHandler(logger primary.Logger, services ...auth.IAuthService) *Handler {
	h := &Handler{
		providerHandler: make(map[domain.Provider]auth.IAuthService, len(services)),
		logger:          logger,
	}
	for _, svc := range services {
		h.providerHandler[svc.ProviderName()] = svc
	}
	return h
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

func (h *Handler) local(w http.ResponseWriter) (auth.IAuthService, bool) {
	svc, ok := h.providerHandler[domain.ProviderLocal]
	if !ok {
		response.WriteError(w, response.ErrorMessage{Message: "login provider not available", StatusCode: http.StatusNotFound})
	}
	return svc, ok
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.local(w)
	if !ok {
		return
	}

	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	token, err := svc.Register(r.Context(), req)
	if err != nil {
		h.logger.Debug("Registration rejected", "userName", req.Username, "error", err)
		response.WriteError(w, response.FromError(err))
		return
	}
	response.WriteJSON(w, http.StatusCreated, domain.LoginResponse{Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.local(w)
	if !ok {
		return
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	token, err := svc.Login(r.Context(), req)
	if err != nil {
		response.WriteError(w, response.FromError(err))
		return
	}
	response.WriteSuccess(w, domain.LoginResponse{Token: token})
}
