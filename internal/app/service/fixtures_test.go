package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository/repotest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AuditEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e model.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Events() []model.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.AuditEvent{}, p.events...)
}

// env wires every service over shared in-memory stores.
type env struct {
	clock      *fakeClock
	users      *repotest.UserStore
	portfolios *repotest.PortfolioStore
	audits     *repotest.AuditStore
	publisher  *recordingPublisher
	db         *sql.DB
	mock       sqlmock.Sqlmock

	auth      *AuthService
	profile   *UserService
	portfolio *PortfolioService
	admin     *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		clock:     newFakeClock(),
		users:     repotest.NewUserStore(),
		audits:    repotest.NewAuditStore(),
		publisher: &recordingPublisher{},
		db:        db,
		mock:      mock,
	}
	e.portfolios = repotest.NewPortfolioStore(e.users)

	tokens := security.NewTokenManager(testSecret, 7*24*time.Hour, security.WithClock(e.clock.Now))
	e.auth = NewAuthService(e.users, tokens, nil)
	e.auth.now = e.clock.Now
	e.profile = NewUserService(e.users)
	e.profile.now = e.clock.Now
	e.portfolio = NewPortfolioService(e.portfolios, e.users)
	e.portfolio.now = e.clock.Now
	e.admin = NewAdminService(db, e.users, e.portfolios, e.audits,
		repotest.SystemStub{Info: model.DatabaseInfo{OpenConnections: 2, SizeBytes: 4096}},
		e.publisher, nil, "test")
	e.admin.now = e.clock.Now
	e.admin.startedAt = e.clock.Now()
	return e
}

func (e *env) register(t *testing.T, name, email, password string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

// registerAdmin registers an account and promotes it directly in storage.
func (e *env) registerAdmin(t *testing.T, email string) *model.User {
	t.Helper()
	resp := e.register(t, "Root Admin", email, "admin-pass")
	u, err := e.users.FindByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	u.Role = model.RoleAdmin
	e.users.Put(*u)
	return u
}

func isAppError(err error) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr)
}
