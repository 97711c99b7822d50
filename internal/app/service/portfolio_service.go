package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrPortfolioNotPublic = common.NewError(common.ErrNotFound, "Portfolio not found or not public")
	ErrPortfolioNotFound  = common.NewError(common.ErrNotFound, "Portfolio not found")
)

const (
	defaultTitle       = "Software Engineer"
	defaultSubtitle    = "Full Stack Developer"
	defaultDescription = "Passionate about creating innovative solutions"
)

type PortfolioService struct {
	portfolioRepo repository.PortfolioRepository
	userRepo      repository.UserRepository
	now           func() time.Time
}

func NewPortfolioService(portfolioRepo repository.PortfolioRepository, userRepo repository.UserRepository) *PortfolioService {
	return &PortfolioService{portfolioRepo: portfolioRepo, userRepo: userRepo, now: time.Now}
}

type PersonalInfoRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Subtitle    string `json:"subtitle" validate:"max=150"`
	Description string `json:"description" validate:"required,max=1000"`
	Location    string `json:"location" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=30"`
	ResumeURL   string `json:"resumeUrl" validate:"omitempty,url"`
}

type SkillRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Level    string `json:"level" validate:"required,oneof=Beginner Intermediate Advanced Expert"`
	Category string `json:"category" validate:"required,oneof=Frontend Backend Database DevOps Mobile Other"`
}

type ExperienceRequest struct {
	Company      string   `json:"company" validate:"required,max=100"`
	Position     string   `json:"position" validate:"required,max=100"`
	StartDate    string   `json:"startDate" validate:"required,isodate"`
	EndDate      string   `json:"endDate" validate:"omitempty,isodate"`
	Current      bool     `json:"current"`
	Description  string   `json:"description" validate:"max=1000"`
	Technologies []string `json:"technologies"`
	Achievements []string `json:"achievements"`
}

type EducationRequest struct {
	Institution string `json:"institution" validate:"required,max=150"`
	Degree      string `json:"degree" validate:"required,max=100"`
	Field       string `json:"field" validate:"max=100"`
	StartDate   string `json:"startDate" validate:"omitempty,isodate"`
	EndDate     string `json:"endDate" validate:"omitempty,isodate"`
	GPA         string `json:"gpa" validate:"max=10"`
	Description string `json:"description" validate:"max=1000"`
}

type ProjectRequest struct {
	Title        string   `json:"title" validate:"required,max=100"`
	Description  string   `json:"description" validate:"required,max=1000"`
	Technologies []string `json:"technologies"`
	GithubURL    string   `json:"githubUrl" validate:"omitempty,url"`
	LiveURL      string   `json:"liveUrl" validate:"omitempty,url"`
	ImageURL     string   `json:"imageUrl" validate:"omitempty,url"`
	Featured     bool     `json:"featured"`
	StartDate    string   `json:"startDate" validate:"omitempty,isodate"`
	EndDate      string   `json:"endDate" validate:"omitempty,isodate"`
}

type CertificationRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Issuer        string `json:"issuer" validate:"required,max=100"`
	Date          string `json:"date" validate:"omitempty,isodate"`
	ExpiryDate    string `json:"expiryDate" validate:"omitempty,isodate"`
	CredentialID  string `json:"credentialId" validate:"max=100"`
	CredentialURL string `json:"credentialUrl" validate:"omitempty,url"`
}

func (s *PortfolioService) GetPublic(ctx context.Context, userID string) (*model.Portfolio, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrPortfolioNotPublic
	}
	p, err := s.portfolioRepo.FindPublicByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrPortfolioNotPublic, "failed to get portfolio")
	}
	return p, nil
}

func (s *PortfolioService) GetPublicBySlug(ctx context.Context, handle string) (*model.Portfolio, error) {
	p, err := s.portfolioRepo.FindPublicBySlug(ctx, strings.ToLower(strings.TrimSpace(handle)))
	if err != nil {
		return nil, notFoundAs(err, ErrPortfolioNotPublic, "failed to get portfolio")
	}
	return p, nil
}

// GetOrCreateMine returns the caller's portfolio, creating the default one
// on first access.
func (s *PortfolioService) GetOrCreateMine(ctx context.Context, userID string) (*model.Portfolio, error) {
	p, err := s.portfolioRepo.FindByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to find portfolio owner")
	}

	now := s.now().UTC()
	p = &model.Portfolio{
		ID:     uuid.NewString(),
		UserID: userID,
		Slug:   handleFor(owner),
		PersonalInfo: model.PersonalInfo{
			Title:       defaultTitle,
			Subtitle:    defaultSubtitle,
			Description: defaultDescription,
		},
		Skills:         []model.Skill{},
		Experience:     []model.Experience{},
		Education:      []model.Education{},
		Projects:       []model.Project{},
		Certifications: []model.Certification{},
		IsPublic:       true,
		Theme:          model.DefaultTheme(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.portfolioRepo.Create(ctx, p); err != nil {
		// a concurrent first access created it
		if errors.Is(err, common.ErrConflict) {
			return s.portfolioRepo.FindByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	p.Owner = &model.PortfolioOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	return p, nil
}

// handleFor derives the public slug. The id suffix keeps namesakes apart.
func handleFor(owner *model.User) string {
	base := slug.Make(owner.Name)
	if base == "" {
		base = "portfolio"
	}
	return base + "-" + strings.ReplaceAll(owner.ID, "-", "")[:8]
}

func (s *PortfolioService) mutate(ctx context.Context, userID string, fn func(p *model.Portfolio) error) (*model.Portfolio, error) {
	p, err := s.GetOrCreateMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.portfolioRepo.Update(ctx, p); err != nil {
		return nil, notFoundAs(err, ErrPortfolioNotFound, "failed to update portfolio")
	}
	return p, nil
}

func (s *PortfolioService) UpdatePersonalInfo(ctx context.Context, userID string, req PersonalInfoRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		info := &p.PersonalInfo
		info.Title = req.Title
		info.Description = req.Description
		if req.Subtitle != "" {
			info.Subtitle = req.Subtitle
		}
		if req.Location != "" {
			info.Location = req.Location
		}
		if req.Phone != "" {
			info.Phone = req.Phone
		}
		if req.ResumeURL != "" {
			info.ResumeURL = req.ResumeURL
		}
		return nil
	})
}

func (s *PortfolioService) AddSkill(ctx context.Context, userID string, req SkillRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		p.Skills = append(p.Skills, model.Skill{
			ID:       uuid.NewString(),
			Name:     strings.TrimSpace(req.Name),
			Level:    model.SkillLevel(req.Level),
			Category: model.SkillCategory(req.Category),
		})
		return nil
	})
}

func (s *PortfolioService) AddExperience(ctx context.Context, userID string, req ExperienceRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	start, _ := common.ParseISODate(req.StartDate)
	end, _ := common.ParseOptionalISODate(req.EndDate)
	if end != nil && end.Before(start) {
		return nil, common.NewValidationError([]common.FieldError{{Field: "endDate", Message: "endDate must not be before startDate"}})
	}
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		p.Experience = append(p.Experience, model.Experience{
			ID:           uuid.NewString(),
			Company:      req.Company,
			Position:     req.Position,
			StartDate:    start,
			EndDate:      end,
			Current:      req.Current,
			Description:  req.Description,
			Technologies: req.Technologies,
			Achievements: req.Achievements,
		})
		return nil
	})
}

func (s *PortfolioService) AddEducation(ctx context.Context, userID string, req EducationRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	start, _ := common.ParseOptionalISODate(req.StartDate)
	end, _ := common.ParseOptionalISODate(req.EndDate)
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		p.Education = append(p.Education, model.Education{
			ID:          uuid.NewString(),
			Institution: req.Institution,
			Degree:      req.Degree,
			Field:       req.Field,
			StartDate:   start,
			EndDate:     end,
			GPA:         req.GPA,
			Description: req.Description,
		})
		return nil
	})
}

func (s *PortfolioService) AddProject(ctx context.Context, userID string, req ProjectRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	start, _ := common.ParseOptionalISODate(req.StartDate)
	end, _ := common.ParseOptionalISODate(req.EndDate)
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		p.Projects = append(p.Projects, model.Project{
			ID:           uuid.NewString(),
			Title:        req.Title,
			Description:  req.Description,
			Technologies: req.Technologies,
			GithubURL:    req.GithubURL,
			LiveURL:      req.LiveURL,
			ImageURL:     req.ImageURL,
			Featured:     req.Featured,
			StartDate:    start,
			EndDate:      end,
		})
		return nil
	})
}

func (s *PortfolioService) AddCertification(ctx context.Context, userID string, req CertificationRequest) (*model.Portfolio, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	issued, _ := common.ParseOptionalISODate(req.Date)
	expires, _ := common.ParseOptionalISODate(req.ExpiryDate)
	return s.mutate(ctx, userID, func(p *model.Portfolio) error {
		p.Certifications = append(p.Certifications, model.Certification{
			ID:            uuid.NewString(),
			Name:          req.Name,
			Issuer:        req.Issuer,
			Date:          issued,
			ExpiryDate:    expires,
			CredentialID:  req.CredentialID,
			CredentialURL: req.CredentialURL,
		})
		return nil
	})
}

// ToggleVisibility flips is_public. Unlike the other mutations it never
// creates a portfolio.
func (s *PortfolioService) ToggleVisibility(ctx context.Context, userID string) (*model.Portfolio, error) {
	p, err := s.portfolioRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrPortfolioNotFound, "failed to get portfolio")
	}
	p.IsPublic = !p.IsPublic
	p.UpdatedAt = s.now().UTC()
	if err := s.portfolioRepo.Update(ctx, p); err != nil {
		return nil, notFoundAs(err, ErrPortfolioNotFound, "failed to update portfolio")
	}
	return p, nil
}
