package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/platform/database"
)

type PortfolioRepository interface {
	Create(ctx context.Context, p *model.Portfolio) error
	Update(ctx context.Context, p *model.Portfolio) error
	FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error)
	FindPublicByUserID(ctx context.Context, userID string) (*model.Portfolio, error)
	FindPublicBySlug(ctx context.Context, slug string) (*model.Portfolio, error)
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) error
	List(ctx context.Context, limit, offset int) ([]model.Portfolio, int, error)
	RecentlyUpdated(ctx context.Context, limit int) ([]model.PortfolioActivity, error)
	Stats(ctx context.Context) (model.PortfolioStats, error)
}

const portfolioSelect = `SELECT p.id, p.user_id, u.name, u.email, p.slug, p.personal_info, p.skills, p.experience,
       p.education, p.projects, p.certifications, p.is_public, p.theme, p.created_at, p.updated_at
FROM portfolios p
JOIN users u ON u.id = p.user_id`

type pgPortfolioRepository struct {
	db *sql.DB
}

func NewPgPortfolioRepository(db *sql.DB) PortfolioRepository {
	return &pgPortfolioRepository{db: db}
}

func (r *pgPortfolioRepository) conn(tx *sql.Tx) database.DBTX {
	if tx != nil {
		return tx
	}
	return r.db
}

// portfolioDocs holds the JSONB-encoded columns of a portfolio row.
type portfolioDocs struct {
	personalInfo, skills, experience, education, projects, certifications, theme []byte
}

func encodePortfolio(p *model.Portfolio) (portfolioDocs, error) {
	var d portfolioDocs
	var err error
	encode := func(dst *[]byte, v any) {
		if err != nil {
			return
		}
		*dst, err = json.Marshal(v)
	}
	encode(&d.personalInfo, p.PersonalInfo)
	encode(&d.skills, nonNil(p.Skills))
	encode(&d.experience, nonNil(p.Experience))
	encode(&d.education, nonNil(p.Education))
	encode(&d.projects, nonNil(p.Projects))
	encode(&d.certifications, nonNil(p.Certifications))
	encode(&d.theme, p.Theme)
	return d, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanPortfolio(row rowScanner) (*model.Portfolio, error) {
	p := &model.Portfolio{Owner: &model.PortfolioOwner{}}
	var d portfolioDocs
	err := row.Scan(
		&p.ID, &p.UserID, &p.Owner.Name, &p.Owner.Email, &p.Slug, &d.personalInfo, &d.skills, &d.experience,
		&d.education, &d.projects, &d.certifications, &p.IsPublic, &d.theme, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Owner.ID = p.UserID

	decode := func(src []byte, v any) {
		if err != nil || len(src) == 0 {
			return
		}
		err = json.Unmarshal(src, v)
	}
	decode(d.personalInfo, &p.PersonalInfo)
	decode(d.skills, &p.Skills)
	decode(d.experience, &p.Experience)
	decode(d.education, &p.Education)
	decode(d.projects, &p.Projects)
	decode(d.certifications, &p.Certifications)
	decode(d.theme, &p.Theme)
	if err != nil {
		return nil, fmt.Errorf("decode portfolio %s: %w", p.ID, err)
	}
	p.Skills = nonNil(p.Skills)
	p.Experience = nonNil(p.Experience)
	p.Education = nonNil(p.Education)
	p.Projects = nonNil(p.Projects)
	p.Certifications = nonNil(p.Certifications)
	return p, nil
}

func (r *pgPortfolioRepository) Create(ctx context.Context, p *model.Portfolio) error {
	d, err := encodePortfolio(p)
	if err != nil {
		return fmt.Errorf("pgPortfolioRepository.Create: %w", err)
	}
	query := `INSERT INTO portfolios (id, user_id, slug, personal_info, skills, experience, education, projects,
	                                  certifications, is_public, theme, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Slug, d.personalInfo, d.skills, d.experience, d.education, d.projects,
		d.certifications, p.IsPublic, d.theme, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("portfolio already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPortfolioRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPortfolioRepository) Update(ctx context.Context, p *model.Portfolio) error {
	d, err := encodePortfolio(p)
	if err != nil {
		return fmt.Errorf("pgPortfolioRepository.Update: %w", err)
	}
	query := `UPDATE portfolios SET
	              slug = $1, personal_info = $2, skills = $3, experience = $4, education = $5,
	              projects = $6, certifications = $7, is_public = $8, theme = $9, updated_at = $10
	          WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query,
		p.Slug, d.personalInfo, d.skills, d.experience, d.education,
		d.projects, d.certifications, p.IsPublic, d.theme, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("pgPortfolioRepository.Update: %w", err)
	}
	return expectAffected(res, "pgPortfolioRepository.Update")
}

func (r *pgPortfolioRepository) findOne(ctx context.Context, op, where string, arg any) (*model.Portfolio, error) {
	p, err := scanPortfolio(r.db.QueryRowContext(ctx, portfolioSelect+" "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPortfolioRepository.%s: %w", op, err)
	}
	return p, nil
}

func (r *pgPortfolioRepository) FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	return r.findOne(ctx, "FindByUserID", `WHERE p.user_id = $1`, userID)
}

func (r *pgPortfolioRepository) FindPublicByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	return r.findOne(ctx, "FindPublicByUserID", `WHERE p.user_id = $1 AND p.is_public`, userID)
}

func (r *pgPortfolioRepository) FindPublicBySlug(ctx context.Context, slug string) (*model.Portfolio, error) {
	return r.findOne(ctx, "FindPublicBySlug", `WHERE p.slug = $1 AND p.is_public`, slug)
}

// DeleteByUserID is a no-op when the user never created a portfolio.
func (r *pgPortfolioRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) error {
	if _, err := r.conn(tx).ExecContext(ctx, `DELETE FROM portfolios WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("pgPortfolioRepository.DeleteByUserID: %w", err)
	}
	return nil
}

func (r *pgPortfolioRepository) List(ctx context.Context, limit, offset int) ([]model.Portfolio, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolios`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgPortfolioRepository.List count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, portfolioSelect+` ORDER BY p.updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgPortfolioRepository.List: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgPortfolioRepository.List: %w", err)
		}
		portfolios = append(portfolios, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgPortfolioRepository.List: %w", err)
	}
	return portfolios, total, nil
}

func (r *pgPortfolioRepository) RecentlyUpdated(ctx context.Context, limit int) ([]model.PortfolioActivity, error) {
	query := `SELECT p.id, p.user_id, u.name, u.email, COALESCE(p.personal_info->>'title', ''), p.updated_at
	          FROM portfolios p
	          JOIN users u ON u.id = p.user_id
	          ORDER BY p.updated_at DESC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgPortfolioRepository.RecentlyUpdated: %w", err)
	}
	defer rows.Close()

	out := []model.PortfolioActivity{}
	for rows.Next() {
		var a model.PortfolioActivity
		if err := rows.Scan(&a.ID, &a.Owner.ID, &a.Owner.Name, &a.Owner.Email, &a.Title, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgPortfolioRepository.RecentlyUpdated: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgPortfolioRepository) Stats(ctx context.Context) (model.PortfolioStats, error) {
	var s model.PortfolioStats
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_public) FROM portfolios`
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Public); err != nil {
		return model.PortfolioStats{}, fmt.Errorf("pgPortfolioRepository.Stats: %w", err)
	}
	return s, nil
}
