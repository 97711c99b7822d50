package repository

import (
	"context"
	"database/sql"
	"fmt"

	"portfolio_api/internal/domain/model"
)

// SystemRepository reports connection-pool and storage figures for the
// admin system-info view.
type SystemRepository interface {
	DatabaseInfo(ctx context.Context) (model.DatabaseInfo, error)
	Ping(ctx context.Context) error
}

type pgSystemRepository struct {
	db *sql.DB
}

func NewPgSystemRepository(db *sql.DB) SystemRepository {
	return &pgSystemRepository{db: db}
}

func (r *pgSystemRepository) DatabaseInfo(ctx context.Context) (model.DatabaseInfo, error) {
	stats := r.db.Stats()
	info := model.DatabaseInfo{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
	}
	if err := r.db.QueryRowContext(ctx, `SELECT pg_database_size(current_database())`).Scan(&info.SizeBytes); err != nil {
		return model.DatabaseInfo{}, fmt.Errorf("pgSystemRepository.DatabaseInfo: %w", err)
	}
	return info, nil
}

func (r *pgSystemRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
