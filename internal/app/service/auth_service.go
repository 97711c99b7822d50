package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = common.NewError(common.ErrBadRequest, "Invalid credentials")
	ErrAccountDeactivated = common.NewError(common.ErrBadRequest, "Account is deactivated")
	ErrDuplicateEmail     = common.NewError(common.ErrBadRequest, "User already exists with this email")
	ErrUserNotFound       = common.NewError(common.ErrNotFound, "User not found")

	// Access Gate rejections.
	ErrNoToken         = common.NewError(common.ErrUnauthorized, "No token provided, authorization denied")
	ErrInvalidToken    = common.NewError(common.ErrUnauthorized, "Invalid token")
	ErrTokenExpired    = common.NewError(common.ErrUnauthorized, "Token has expired")
	ErrUserGone        = common.NewError(common.ErrUnauthorized, "Token is valid but user no longer exists")
	ErrUserDeactivated = common.NewError(common.ErrUnauthorized, "User account is deactivated")
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenManager
	log      *slog.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenManager, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, log: log, now: time.Now}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      model.UserSummary `json:"user"`
}

// Register creates a standard, active account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = model.NormalizeEmail(req.Email)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.issue(user)
}

// VerifyCredentials resolves email and password to an account. Unknown
// emails and wrong passwords are indistinguishable to the caller; an
// inactive account is only reported once the password has matched.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.InfoContext(ctx, "login attempt on deactivated account", "user_id", user.ID)
		return nil, ErrAccountDeactivated
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user.Summary()}, nil
}

// Authorize resolves a raw bearer token to the account it names. The
// account is re-read on every call so status and role changes apply to
// already-issued tokens.
func (s *AuthService) Authorize(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUserGone
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserDeactivated
	}
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator unless an account with
// that email already exists. The boolean reports whether one was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	email = model.NormalizeEmail(email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	req := RegisterRequest{Name: strings.TrimSpace(name), Email: email, Password: password}
	if err := common.Validate(req); err != nil {
		return nil, false, err
	}
	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	admin := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, true, nil
}
