package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

// UpdateProfileRequest carries optional fields; nil leaves a field as is.
type UpdateProfileRequest struct {
	Name        *string            `json:"name" validate:"omitempty,min=2,max=50"`
	Bio         *string            `json:"bio" validate:"omitempty,max=500"`
	Website     *string            `json:"website" validate:"omitempty,url"`
	SocialLinks *model.SocialLinks `json:"socialLinks"`
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to find user")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to find user")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if links := req.SocialLinks; links != nil {
		if links.GitHub != "" {
			user.SocialLinks.GitHub = links.GitHub
		}
		if links.LinkedIn != "" {
			user.SocialLinks.LinkedIn = links.LinkedIn
		}
		if links.Twitter != "" {
			user.SocialLinks.Twitter = links.Twitter
		}
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to update profile")
	}
	return user, nil
}

// notFoundAs maps a repository miss to notFound and wraps anything else.
func notFoundAs(err error, notFound *common.AppError, op string) error {
	if isNotFound(err) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
