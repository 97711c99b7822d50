package handler

import (
	"net/http"

	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"

	"github.com/go-chi/chi/v5"
)

// Environment is what GET /api/auth/test reports about the running process.
type Environment struct {
	AppEnv       string `json:"appEnv"`
	HasJWTSecret bool   `json:"hasJwtSecret"`
	HasDatabase  bool   `json:"hasDatabase"`
}

type AuthHandler struct {
	authService *service.AuthService
	responder   common.Responder
	env         Environment
}

func NewAuthHandler(authService *service.AuthService, responder common.Responder, env Environment) *AuthHandler {
	return &AuthHandler{authService: authService, responder: responder, env: env}
}

// RegisterRoutes mounts the auth routes. limit wraps the credential
// endpoints and may be nil.
func (h *AuthHandler) RegisterRoutes(r chi.Router, gate *middleware.AuthGate, limit func(http.Handler) http.Handler) {
	r.Group(func(public chi.Router) {
		if limit != nil {
			public.Use(limit)
		}
		public.Post("/register", h.register)
		public.Post("/login", h.login)
	})
	r.Get("/test", h.test)

	r.Group(func(private chi.Router) {
		private.Use(gate.Authenticator)
		private.Get("/me", h.me)
		private.Post("/logout", h.logout)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.responder.Error(w, r, err, "Server error during registration")
		return
	}
	common.RespondWithSuccess(w, http.StatusCreated, "User registered successfully", common.Envelope{
		"token": resp.Token,
		"user":  resp.User,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.responder.Error(w, r, err, "Server error during login")
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Login successful", common.Envelope{
		"token": resp.Token,
		"user":  resp.User,
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"user": user})
}

// Tokens are stateless; the client discards its copy.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	common.RespondWithSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) test(w http.ResponseWriter, r *http.Request) {
	common.RespondWithSuccess(w, http.StatusOK, "Auth route is working", common.Envelope{"environment": h.env})
}
