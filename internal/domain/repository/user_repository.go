package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/platform/database"
)

type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateStatus(ctx context.Context, id string, active bool, at time.Time) error
	UpdateRole(ctx context.Context, id string, role model.Role, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	List(ctx context.Context, filter UserFilter) ([]model.User, int, error)
	Recent(ctx context.Context, limit int) ([]model.User, error)
	Stats(ctx context.Context, signupSince, loginSince time.Time) (model.UserStats, error)
}

const userColumns = `id, name, email, password_hash, role, is_active, bio, website, social_links, last_login, created_at, updated_at`

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) conn(tx *sql.Tx) database.DBTX {
	if tx != nil {
		return tx
	}
	return r.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var (
		role      string
		social    []byte
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.IsActive,
		&user.Bio, &user.Website, &social, &lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	if len(social) > 0 {
		if err := json.Unmarshal(social, &user.SocialLinks); err != nil {
			return nil, fmt.Errorf("decode social_links: %w", err)
		}
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	social, err := json.Marshal(user.SocialLinks)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	query := `INSERT INTO users (id, name, email, password_hash, role, is_active, bio, website, social_links, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.IsActive,
		user.Bio, user.Website, social, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	social, err := json.Marshal(user.SocialLinks)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	// Profile columns only; role and is_active belong to the admin setters.
	query := `UPDATE users SET name = $1, bio = $2, website = $3, social_links = $4, updated_at = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		user.Name, user.Bio, user.Website, social, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	return expectAffected(res, "pgUserRepository.Update")
}

func (r *pgUserRepository) UpdateStatus(ctx context.Context, id string, active bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`, active, at, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateStatus: %w", err)
	}
	return expectAffected(res, "pgUserRepository.UpdateStatus")
}

func (r *pgUserRepository) UpdateRole(ctx context.Context, id string, role model.Role, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, string(role), at, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateRole: %w", err)
	}
	return expectAffected(res, "pgUserRepository.UpdateRole")
}

func (r *pgUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateLastLogin: %w", err)
	}
	return expectAffected(res, "pgUserRepository.UpdateLastLogin")
}

func (r *pgUserRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.conn(tx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	return expectAffected(res, "pgUserRepository.Delete")
}

func (r *pgUserRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int, error) {
	pattern := ""
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern = "%" + escapeLike(s) + "%"
	}
	where := `WHERE ($1 = '' OR name ILIKE $1 OR email ILIKE $1)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List count: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ` + where + ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	return users, total, nil
}

func (r *pgUserRepository) Recent(ctx context.Context, limit int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Recent: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Recent: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Stats(ctx context.Context, signupSince, loginSince time.Time) (model.UserStats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE is_active),
	                 COUNT(*) FILTER (WHERE created_at >= $1),
	                 COUNT(*) FILTER (WHERE last_login >= $2)
	          FROM users`
	var s model.UserStats
	if err := r.db.QueryRowContext(ctx, query, signupSince, loginSince).Scan(&s.Total, &s.Active, &s.RecentSignup, &s.RecentLogin); err != nil {
		return model.UserStats{}, fmt.Errorf("pgUserRepository.Stats: %w", err)
	}
	return s, nil
}

func collectUsers(rows *sql.Rows) ([]model.User, error) {
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
