package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

func TestTagRepository_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO tags \(name, created_at\)`).
					WithArgs("jazz", created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-uuid-1"))
			},
			wantID: "tag-uuid-1",
		},
		{
			name: "duplicate name is a conflict",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO tags`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "tags_name_key"})
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO tags`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			tag := &domain.Tag{Name: "jazz", CreatedAt: created}
			err = NewTagRepository(db).Create(ctx, tag)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tag.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTagRepository_UsageStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM tags t\s+LEFT JOIN event_tags et`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}).
			AddRow("tag-1", "jazz", 5).
			AddRow("tag-2", "unused", 0))

	got, err := NewTagRepository(db).UsageStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.UsageCount{
		{ID: "tag-1", Name: "jazz", Count: 5},
		{ID: "tag-2", Name: "unused", Count: 0},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM categories WHERE id = \$1`).
			WithArgs("cat-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
				AddRow("cat-1", "Music", "Live music", created, created))

		c, err := NewCategoryRepository(db).GetByID(ctx, "cat-1")
		require.NoError(t, err)
		require.Equal(t, "Music", c.Name)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM categories WHERE id = \$1`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err = NewCategoryRepository(db).GetByID(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCategoryRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories SET name = \$2, description = \$3, updated_at = \$4 WHERE id = \$1`).
					WithArgs("cat-1", "Music", "", now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "name taken",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories`).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicateCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			err = NewCategoryRepository(db).Update(ctx, &domain.Category{ID: "cat-1", Name: "Music", UpdatedAt: now})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
