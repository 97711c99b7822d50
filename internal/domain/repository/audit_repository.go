package repository

import (
	"context"
	"database/sql"
	"fmt"

	"portfolio_api/internal/domain/model"
)

type AuditRepository interface {
	Create(ctx context.Context, e *model.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

type pgAuditRepository struct {
	db *sql.DB
}

func NewPgAuditRepository(db *sql.DB) AuditRepository {
	return &pgAuditRepository{db: db}
}

// Create ignores replays of an event id so redelivered queue entries are harmless.
func (r *pgAuditRepository) Create(ctx context.Context, e *model.AuditEvent) error {
	query := `INSERT INTO admin_audit_events (id, actor_id, action, target_id, detail, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.ActorID, string(e.Action), e.TargetID, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgAuditRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAuditRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	query := `SELECT id, actor_id, action, target_id, detail, created_at
	          FROM admin_audit_events
	          ORDER BY created_at DESC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgAuditRepository.ListRecent: %w", err)
	}
	defer rows.Close()

	events := []model.AuditEvent{}
	for rows.Next() {
		var (
			e      model.AuditEvent
			action string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &e.TargetID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgAuditRepository.ListRecent: %w", err)
		}
		e.Action = model.AuditAction(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
