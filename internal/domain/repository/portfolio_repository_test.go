package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"portfolio_api/internal/common"
	"portfolio_api/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var portfolioCols = []string{"id", "user_id", "name", "email", "slug", "personal_info", "skills", "experience",
	"education", "projects", "certifications", "is_public", "theme", "created_at", "updated_at"}

func newPortfolioRepoWithMock(t *testing.T) (PortfolioRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPgPortfolioRepository(db), mock, db
}

func TestPortfolioCreate_EncodesEmptyListsAsArrays(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO portfolios`).
		WithArgs("p-1", "u-1", "ada-u1", []byte(`{"title":"Engineer","description":"d"}`),
			[]byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), true,
			[]byte(`{"primaryColor":"#396A85","secondaryColor":"#8CBDD6","accentColor":"#72A4BD"}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Portfolio{
		ID: "p-1", UserID: "u-1", Slug: "ada-u1",
		PersonalInfo: model.PersonalInfo{Title: "Engineer", Description: "d"},
		IsPublic:     true, Theme: model.DefaultTheme(), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioFindPublicByUserID(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(portfolioCols).AddRow(
		"p-1", "u-1", "Ada", "ada@x.com", "ada-u1",
		[]byte(`{"title":"Engineer","description":"d"}`),
		[]byte(`[{"id":"s1","name":"Go","level":"Expert","category":"Backend"}]`),
		[]byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), true,
		[]byte(`{"primaryColor":"#000"}`), now, now,
	)
	mock.ExpectQuery(`WHERE p.user_id = \$1 AND p.is_public`).WithArgs("u-1").WillReturnRows(rows)

	p, err := repo.FindPublicByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", p.PersonalInfo.Title)
	require.Len(t, p.Skills, 1)
	assert.Equal(t, model.LevelExpert, p.Skills[0].Level)
	assert.Equal(t, &model.PortfolioOwner{ID: "u-1", Name: "Ada", Email: "ada@x.com"}, p.Owner)
	assert.NotNil(t, p.Projects)
}

func TestPortfolioFindPublicBySlug_NotFound(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)

	mock.ExpectQuery(`WHERE p.slug = \$1 AND p.is_public`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPublicBySlug(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPortfolioFind_CorruptDocument(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(portfolioCols).AddRow(
		"p-1", "u-1", "Ada", "ada@x.com", "ada-u1",
		[]byte(`{}`), []byte(`{not json`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), true,
		[]byte(`{}`), now, now,
	)
	mock.ExpectQuery(`WHERE p.user_id = \$1`).WithArgs("u-1").WillReturnRows(rows)

	_, err := repo.FindByUserID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestPortfolioDeleteByUserID_MissingIsNotAnError(t *testing.T) {
	repo, mock, db := newPortfolioRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM portfolios WHERE user_id = \$1`).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByUserID(context.Background(), tx, "u-1"))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioUpdate_NotFound(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)

	mock.ExpectExec(`UPDATE portfolios SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Portfolio{ID: "p-404"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPortfolioStatsAndRecent(t *testing.T) {
	repo, mock, _ := newPortfolioRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FILTER \(WHERE is_public\)`).WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(4, 3))
	mock.ExpectQuery(`personal_info->>'title'`).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "email", "title", "updated_at"}).
			AddRow("p-1", "u-1", "Ada", "ada@x.com", "Engineer", now))

	s, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PortfolioStats{Total: 4, Public: 3}, s)

	recent, err := repo.RecentlyUpdated(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Engineer", recent[0].Title)
	assert.Equal(t, "Ada", recent[0].Owner.Name)
}
