package handler

import (
	"net/http"
	"strings"

	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	adminService *service.AdminService
	responder    common.Responder
}

func NewAdminHandler(as *service.AdminService, responder common.Responder) *AdminHandler {
	return &AdminHandler{adminService: as, responder: responder}
}

// RegisterRoutes mounts every back-office route behind both gates.
func (h *AdminHandler) RegisterRoutes(r chi.Router, gate *middleware.AuthGate) {
	r.Use(gate.Authenticator)
	r.Use(gate.AdminOnly)

	r.Get("/dashboard", h.dashboard)
	r.Get("/users", h.listUsers)
	r.Put("/users/{id}/toggle-status", h.toggleStatus)
	r.Delete("/users/{id}", h.deleteUser)
	r.Get("/portfolios", h.listPortfolios)
	r.Get("/recent-activity", h.recentActivity)
	r.Get("/system-info", h.systemInfo)
	r.Get("/audit", h.audit)
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"stats": stats})
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	users, pagination, err := h.adminService.ListUsers(r.Context(), queryInt(r, "page"), queryInt(r, "limit"), search)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{
		"users":      users,
		"pagination": pagination,
	})
}

func (h *AdminHandler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	user, err := h.adminService.ToggleUserStatus(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	msg := "User deactivated successfully"
	if user.IsActive {
		msg = "User activated successfully"
	}
	common.RespondWithSuccess(w, http.StatusOK, msg, common.Envelope{"user": user})
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "User and associated portfolio deleted successfully", nil)
}

func (h *AdminHandler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, pagination, err := h.adminService.ListPortfolios(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{
		"portfolios": portfolios,
		"pagination": pagination,
	})
}

func (h *AdminHandler) recentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.adminService.RecentActivity(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"activity": feed})
}

func (h *AdminHandler) systemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.adminService.SystemInfo(r.Context())
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"system": info})
}

func (h *AdminHandler) audit(w http.ResponseWriter, r *http.Request) {
	events, err := h.adminService.ListAudit(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"events": events})
}
