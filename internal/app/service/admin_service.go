package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"
	"portfolio_api/internal/platform/database"

	"github.com/google/uuid"
)

var (
	ErrSelfStatus = common.NewError(common.ErrBadRequest, "Cannot change your own status")
	ErrSelfDelete = common.NewError(common.ErrBadRequest, "Cannot delete your own account")
	ErrSelfRole   = common.NewError(common.ErrBadRequest, "Cannot change your own role")
)

const (
	recentSignupWindow = 7 * 24 * time.Hour
	recentLoginWindow  = 24 * time.Hour
	defaultFeedSize    = 20
)

// AuditPublisher hands privileged-mutation events to the audit pipeline.
type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

type AdminService struct {
	db            *sql.DB
	userRepo      repository.UserRepository
	portfolioRepo repository.PortfolioRepository
	auditRepo     repository.AuditRepository
	systemRepo    repository.SystemRepository
	publisher     AuditPublisher
	log           *slog.Logger
	env           string
	startedAt     time.Time
	now           func() time.Time
}

func NewAdminService(
	db *sql.DB,
	userRepo repository.UserRepository,
	portfolioRepo repository.PortfolioRepository,
	auditRepo repository.AuditRepository,
	systemRepo repository.SystemRepository,
	publisher AuditPublisher,
	log *slog.Logger,
	env string,
) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminService{
		db:            db,
		userRepo:      userRepo,
		portfolioRepo: portfolioRepo,
		auditRepo:     auditRepo,
		systemRepo:    systemRepo,
		publisher:     publisher,
		log:           log,
		env:           env,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// ActivityFeed is the recent-activity view of the back office.
type ActivityFeed struct {
	RecentUsers      []model.User              `json:"recentUsers"`
	RecentPortfolios []model.PortfolioActivity `json:"recentPortfolios"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	now := s.now()
	users, err := s.userRepo.Stats(ctx, now.Add(-recentSignupWindow), now.Add(-recentLoginWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	portfolios, err := s.portfolioRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count portfolios: %w", err)
	}
	return &model.DashboardStats{
		TotalUsers:       users.Total,
		TotalPortfolios:  portfolios.Total,
		ActiveUsers:      users.Active,
		PublicPortfolios: portfolios.Public,
		RecentUsers:      users.RecentSignup,
		RecentLogins:     users.RecentLogin,
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) ([]model.User, model.Pagination, error) {
	page, limit, offset := pageBounds(page, limit)
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{Search: search, Limit: limit, Offset: offset})
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}
	return users, model.NewPagination(page, limit, total), nil
}

func (s *AdminService) ListPortfolios(ctx context.Context, page, limit int) ([]model.Portfolio, model.Pagination, error) {
	page, limit, offset := pageBounds(page, limit)
	portfolios, total, err := s.portfolioRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, model.NewPagination(page, limit, total), nil
}

func (s *AdminService) RecentActivity(ctx context.Context, limit int) (*ActivityFeed, error) {
	if limit < 1 {
		limit = defaultFeedSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	users, err := s.userRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	portfolios, err := s.portfolioRepo.RecentlyUpdated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent portfolios: %w", err)
	}
	return &ActivityFeed{RecentUsers: users, RecentPortfolios: portfolios}, nil
}

func (s *AdminService) SystemInfo(ctx context.Context) (*model.SystemInfo, error) {
	dbInfo, err := s.systemRepo.DatabaseInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read database info: %w", err)
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return &model.SystemInfo{
		GoVersion:     runtime.Version(),
		Environment:   s.env,
		UptimeSeconds: s.now().Sub(s.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Memory: model.MemoryInfo{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapInUse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
		},
		Database: dbInfo,
	}, nil
}

func (s *AdminService) ListAudit(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if limit < 1 {
		limit = defaultFeedSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	events, err := s.auditRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

func (s *AdminService) findTarget(ctx context.Context, targetID string) (*model.User, error) {
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to find user")
	}
	return user, nil
}

// ToggleUserStatus flips the target's active flag. Tokens already issued to
// a deactivated account stop working on their next request.
func (s *AdminService) ToggleUserStatus(ctx context.Context, actorID, targetID string) (*model.User, error) {
	user, err := s.findTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID {
		return nil, ErrSelfStatus
	}

	user.IsActive = !user.IsActive
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.UpdateStatus(ctx, user.ID, user.IsActive, user.UpdatedAt); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to update user status")
	}

	detail := "deactivated"
	if user.IsActive {
		detail = "activated"
	}
	s.audit(ctx, actorID, model.AuditStatusToggled, user.ID, detail)
	return user, nil
}

// ChangeRole assigns a role. An administrator may not demote itself.
func (s *AdminService) ChangeRole(ctx context.Context, actorID, targetID string, req ChangeRoleRequest) (*model.User, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, common.NewValidationError([]common.FieldError{{Field: "role", Message: "Role must be either user or admin"}})
	}

	user, err := s.findTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID && role != model.RoleAdmin {
		return nil, ErrSelfRole
	}

	previous := user.Role
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.UpdateRole(ctx, user.ID, role, user.UpdatedAt); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to update user role")
	}
	s.audit(ctx, actorID, model.AuditRoleChanged, user.ID, string(previous)+"->"+string(role))
	return user, nil
}

// DeleteUser removes the target account and its portfolio in one
// transaction, portfolio first.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	user, err := s.findTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return ErrSelfDelete
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.portfolioRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, tx, user.ID)
	})
	if err != nil {
		return notFoundAs(err, ErrUserNotFound, "failed to delete user")
	}

	s.audit(ctx, actorID, model.AuditUserDeleted, user.ID, user.Email)
	return nil
}

// audit never fails the calling operation; a lost event is only logged.
func (s *AdminService) audit(ctx context.Context, actorID string, action model.AuditAction, targetID, detail string) {
	if s.publisher == nil {
		return
	}
	event := model.AuditEvent{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish audit event", "action", action, "target_id", targetID, "error", err)
	}
}
