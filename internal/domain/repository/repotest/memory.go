// Package repotest provides in-memory repository implementations for tests
// that exercise services and HTTP handlers without PostgreSQL.
package repotest

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"
)

// ErrStorage is returned by every call once a store has been broken with Fail.
var ErrStorage = errors.New("storage unavailable")

type failer struct {
	mu  sync.Mutex
	err error
}

// Fail makes every subsequent call return err (ErrStorage when nil).
func (f *failer) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = ErrStorage
	}
	f.err = err
}

func (f *failer) failure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

type UserStore struct {
	failer
	mu    sync.RWMutex
	users map[string]model.User
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]model.User{}}
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return common.ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	cur.Name, cur.Bio, cur.Website, cur.SocialLinks = user.Name, user.Bio, user.Website, user.SocialLinks
	cur.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = cur
	return nil
}

func (s *UserStore) UpdateStatus(ctx context.Context, id string, active bool, at time.Time) error {
	return s.modify(id, func(u *model.User) {
		u.IsActive = active
		u.UpdatedAt = at
	})
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role model.Role, at time.Time) error {
	return s.modify(id, func(u *model.User) {
		u.Role = role
		u.UpdatedAt = at
	})
}

func (s *UserStore) modify(id string, fn func(*model.User)) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	s.users[id] = u
	return nil
}

func (s *UserStore) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) List(ctx context.Context, filter repository.UserFilter) ([]model.User, int, error) {
	if err := s.failure(); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []model.User
	for _, u := range s.sorted() {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) || strings.Contains(strings.ToLower(u.Email), search) {
			matched = append(matched, u)
		}
	}
	return page(matched, filter.Offset, filter.Limit), len(matched), nil
}

func (s *UserStore) Recent(ctx context.Context, limit int) ([]model.User, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	return page(s.sorted(), 0, limit), nil
}

func (s *UserStore) Stats(ctx context.Context, signupSince, loginSince time.Time) (model.UserStats, error) {
	if err := s.failure(); err != nil {
		return model.UserStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st model.UserStats
	for _, u := range s.users {
		st.Total++
		if u.IsActive {
			st.Active++
		}
		if !u.CreatedAt.Before(signupSince) {
			st.RecentSignup++
		}
		if u.LastLogin != nil && !u.LastLogin.Before(loginSince) {
			st.RecentLogin++
		}
	}
	return st, nil
}

// Put stores user as is, bypassing uniqueness checks.
func (s *UserStore) Put(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// sorted returns users newest first.
func (s *UserStore) sorted() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type PortfolioStore struct {
	failer
	mu    sync.RWMutex
	users *UserStore
	byID  map[string]model.Portfolio
}

var _ repository.PortfolioRepository = (*PortfolioStore)(nil)

// NewPortfolioStore resolves portfolio owners through users, mirroring the
// join the SQL repository performs.
func NewPortfolioStore(users *UserStore) *PortfolioStore {
	return &PortfolioStore{users: users, byID: map[string]model.Portfolio{}}
}

func (s *PortfolioStore) Create(ctx context.Context, p *model.Portfolio) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.byID {
		if cur.UserID == p.UserID || cur.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	s.byID[p.ID] = *p
	return nil
}

func (s *PortfolioStore) Update(ctx context.Context, p *model.Portfolio) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	cp.Owner = nil
	s.byID[p.ID] = cp
	return nil
}

func (s *PortfolioStore) find(match func(model.Portfolio) bool) (*model.Portfolio, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if match(p) {
			return s.withOwner(p)
		}
	}
	return nil, common.ErrNotFound
}

func (s *PortfolioStore) withOwner(p model.Portfolio) (*model.Portfolio, error) {
	u, err := s.users.FindByID(context.Background(), p.UserID)
	if err != nil {
		// the join drops portfolios whose owner is gone
		return nil, common.ErrNotFound
	}
	p.Owner = &model.PortfolioOwner{ID: u.ID, Name: u.Name, Email: u.Email}
	return &p, nil
}

func (s *PortfolioStore) FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	return s.find(func(p model.Portfolio) bool { return p.UserID == userID })
}

func (s *PortfolioStore) FindPublicByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	return s.find(func(p model.Portfolio) bool { return p.UserID == userID && p.IsPublic })
}

func (s *PortfolioStore) FindPublicBySlug(ctx context.Context, slug string) (*model.Portfolio, error) {
	return s.find(func(p model.Portfolio) bool { return p.Slug == slug && p.IsPublic })
}

func (s *PortfolioStore) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.byID {
		if p.UserID == userID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *PortfolioStore) List(ctx context.Context, limit, offset int) ([]model.Portfolio, int, error) {
	if err := s.failure(); err != nil {
		return nil, 0, err
	}
	all := s.sorted()
	return page(all, offset, limit), len(all), nil
}

func (s *PortfolioStore) RecentlyUpdated(ctx context.Context, limit int) ([]model.PortfolioActivity, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	out := []model.PortfolioActivity{}
	for _, p := range page(s.sorted(), 0, limit) {
		out = append(out, model.PortfolioActivity{ID: p.ID, Owner: *p.Owner, Title: p.PersonalInfo.Title, UpdatedAt: p.UpdatedAt})
	}
	return out, nil
}

func (s *PortfolioStore) Stats(ctx context.Context) (model.PortfolioStats, error) {
	if err := s.failure(); err != nil {
		return model.PortfolioStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st model.PortfolioStats
	for _, p := range s.byID {
		st.Total++
		if p.IsPublic {
			st.Public++
		}
	}
	return st, nil
}

func (s *PortfolioStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// sorted returns portfolios with a live owner, most recently updated first.
func (s *PortfolioStore) sorted() []model.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Portfolio, 0, len(s.byID))
	for _, p := range s.byID {
		if withOwner, err := s.withOwner(p); err == nil {
			out = append(out, *withOwner)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

type AuditStore struct {
	failer
	mu     sync.Mutex
	events []model.AuditEvent
}

var _ repository.AuditRepository = (*AuditStore)(nil)

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Create(ctx context.Context, e *model.AuditEvent) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.events {
		if cur.ID == e.ID {
			return nil
		}
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		out = append(out, s.events[i])
	}
	return page(out, 0, limit), nil
}

// SystemStub is a fixed-answer SystemRepository.
type SystemStub struct {
	Info    model.DatabaseInfo
	Err     error
	PingErr error
}

var _ repository.SystemRepository = SystemStub{}

func (s SystemStub) DatabaseInfo(ctx context.Context) (model.DatabaseInfo, error) {
	return s.Info, s.Err
}

func (s SystemStub) Ping(ctx context.Context) error {
	return s.PingErr
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([]T{}, items...)
}
