package repository

import (
	"context"
	"testing"
	"time"

	"portfolio_api/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPgAuditRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO admin_audit_events .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("e-1", "a-1", "user.deleted", "u-1", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM admin_audit_events`).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "target_id", "detail", "created_at"}).
			AddRow("e-1", "a-1", "user.deleted", "u-1", "", now))

	require.NoError(t, repo.Create(context.Background(), &model.AuditEvent{
		ID: "e-1", ActorID: "a-1", Action: model.AuditUserDeleted, TargetID: "u-1", CreatedAt: now,
	}))

	events, err := repo.ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.AuditUserDeleted, events[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSystemDatabaseInfo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPgSystemRepository(db)

	mock.ExpectQuery(`pg_database_size`).WillReturnRows(sqlmock.NewRows([]string{"size"}).AddRow(int64(8192)))

	info, err := repo.DatabaseInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8192), info.SizeBytes)
}
