package handler

import (
	"context"
	"net/http"

	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	responder        common.Responder
}

func NewPortfolioHandler(ps *service.PortfolioService, responder common.Responder) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: ps, responder: responder}
}

func (h *PortfolioHandler) RegisterRoutes(r chi.Router, gate *middleware.AuthGate) {
	r.Get("/slug/{slug}", h.getBySlug)
	r.Get("/{userId}", h.getPublic)

	r.Route("/my", func(my chi.Router) {
		my.Use(gate.Authenticator)
		my.Get("/data", h.getMine)
		my.Put("/personal-info", h.updatePersonalInfo)
		my.Post("/skills", h.addSkill)
		my.Post("/experience", h.addExperience)
		my.Post("/education", h.addEducation)
		my.Post("/projects", h.addProject)
		my.Post("/certifications", h.addCertification)
		my.Put("/visibility", h.toggleVisibility)
	})
}

func (h *PortfolioHandler) getPublic(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolioService.GetPublic(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"portfolio": p})
}

func (h *PortfolioHandler) getBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolioService.GetPublicBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"portfolio": p})
}

func (h *PortfolioHandler) getMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.portfolioService.GetOrCreateMine(r.Context(), userID)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "", common.Envelope{"portfolio": p})
}

func (h *PortfolioHandler) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.portfolioService.ToggleVisibility(r.Context(), userID)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	msg := "Portfolio is now private"
	if p.IsPublic {
		msg = "Portfolio is now public"
	}
	common.RespondWithSuccess(w, http.StatusOK, msg, common.Envelope{"portfolio": p})
}

func (h *PortfolioHandler) updatePersonalInfo(w http.ResponseWriter, r *http.Request) {
	var req service.PersonalInfoRequest
	mutate(h, w, r, &req, "Personal info updated successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.UpdatePersonalInfo(ctx, userID, req)
	})
}

func (h *PortfolioHandler) addSkill(w http.ResponseWriter, r *http.Request) {
	var req service.SkillRequest
	mutate(h, w, r, &req, "Skill added successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.AddSkill(ctx, userID, req)
	})
}

func (h *PortfolioHandler) addExperience(w http.ResponseWriter, r *http.Request) {
	var req service.ExperienceRequest
	mutate(h, w, r, &req, "Experience added successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.AddExperience(ctx, userID, req)
	})
}

func (h *PortfolioHandler) addEducation(w http.ResponseWriter, r *http.Request) {
	var req service.EducationRequest
	mutate(h, w, r, &req, "Education added successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.AddEducation(ctx, userID, req)
	})
}

func (h *PortfolioHandler) addProject(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectRequest
	mutate(h, w, r, &req, "Project added successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.AddProject(ctx, userID, req)
	})
}

func (h *PortfolioHandler) addCertification(w http.ResponseWriter, r *http.Request) {
	var req service.CertificationRequest
	mutate(h, w, r, &req, "Certification added successfully", func(ctx context.Context, userID string) (*model.Portfolio, error) {
		return h.portfolioService.AddCertification(ctx, userID, req)
	})
}

// mutate decodes req, runs apply for the caller and writes the updated
// portfolio under msg.
func mutate[T any](h *PortfolioHandler, w http.ResponseWriter, r *http.Request, req *T, msg string,
	apply func(ctx context.Context, userID string) (*model.Portfolio, error)) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if !decodeJSON(w, r, req) {
		return
	}
	p, err := apply(r.Context(), userID)
	if err != nil {
		h.responder.Error(w, r, err, serverError)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, msg, common.Envelope{"portfolio": p})
}
