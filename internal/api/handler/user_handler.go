package handler

import (
	"net/http"

	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"

	"github.com/go-chi/chi/v5"
)

// UserHandler serves self-service profile routes plus the admin user
// operations exposed under /api/users.
type UserHandler struct {
	userService  *service.UserService
	adminService *service.AdminService
	responder    common.Responder
}

func NewUserHandler(us *service.UserService, as *service.AdminService, responder common.Responder) *UserHandler {
	return &UserHandler{userService: us, adminService: as, responder: responder}
}

func (h *UserHandler) RegisterRoutes(r chi.Router, gate *middleware.AuthGate) {
	r.Group(func(private chi.Router) {
		private.Use(gate.Authenticator)
		private.Get("/profile", h.getProfile)
		private.Put("/profile", h.updateProfile)

		private.Group(func(admin chi.Router) {
			admin.Use(gate.AdminOnly)
			admin.Get("/", h.listUsers)
			admin.Put("/{id}/role", h.changeRole)
			admin.Delete("/{id}", h.deleteUser)
		})
	})
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"user": user})
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Profile updated successfully", common.Envelope{"user": user})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, pagination, err := h.adminService.ListUsers(r.Context(), queryInt(r, "page"), queryInt(r, "limit"), "")
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{
		"users":      users,
		"pagination": pagination,
	})
}

func (h *UserHandler) changeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req service.ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.adminService.ChangeRole(r.Context(), actorID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "User role updated to "+string(user.Role), common.Envelope{"user": user})
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "User deleted successfully", nil)
}
