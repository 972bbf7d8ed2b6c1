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

func TestRSVPRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-24 * time.Hour)

	tests := []struct {
		name          string
		mock          func(mock sqlmock.Sqlmock)
		wantCreated   bool
		wantCreatedAt time.Time
		wantErr       error
	}{
		{
			name: "fresh insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps .* ON CONFLICT \(user_id, event_id\) DO UPDATE`).
					WithArgs("user-1", "ev-1", domain.RSVPGoing, "see you", now).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "inserted"}).
						AddRow("rsvp-1", now, now, true))
			},
			wantCreated:   true,
			wantCreatedAt: now,
		},
		{
			name: "existing row updated",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "inserted"}).
						AddRow("rsvp-1", earlier, now, false))
			},
			wantCreated:   false,
			wantCreatedAt: earlier,
		},
		{
			name: "missing event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps`).
					WillReturnError(&pq.Error{Code: "23503"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			v := &domain.RSVP{UserID: "user-1", EventID: "ev-1", Status: domain.RSVPGoing, Note: "see you", UpdatedAt: now}
			created, err := NewRSVPRepository(db).Upsert(ctx, v)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCreated, created)
			require.Equal(t, "rsvp-1", v.ID)
			require.True(t, v.CreatedAt.Equal(tt.wantCreatedAt))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRSVPRepository_CountGoingExcluding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps WHERE event_id = \$1 AND status = 'going' AND user_id <> \$2`).
		WithArgs("ev-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewRSVPRepository(db).CountGoingExcluding(context.Background(), "ev-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestRSVPRepository_GetByUserAndEvent_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM rsvps WHERE user_id = \$1 AND event_id = \$2`).
		WithArgs("user-1", "ev-1").
		WillReturnError(sql.ErrNoRows)

	_, err = NewRSVPRepository(db).GetByUserAndEvent(context.Background(), "user-1", "ev-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRSVPRepository_ListAttendees(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	going := domain.RSVPGoing
	mock.ExpectQuery(`FROM rsvps r\s+JOIN users u ON u.id = r.user_id\s+WHERE r.event_id = \$1 AND r.status = \$2 ORDER BY r.created_at`).
		WithArgs("ev-1", going).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "first_name", "last_name", "email", "status", "note", "email_verified", "created_at"}).
			AddRow("user-1", "alice", "Alice", "L", "alice@example.com", "going", "", true, at))

	got, err := NewRSVPRepository(db).ListAttendees(context.Background(), "ev-1", &going)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].Username)
	require.True(t, *got[0].IsVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRSVPRepository_StatusCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM rsvps WHERE event_id = \$1 GROUP BY status`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("going", 3).
			AddRow("interested", 1))

	got, err := NewRSVPRepository(db).StatusCounts(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Equal(t, map[domain.RSVPStatus]int{
		domain.RSVPGoing:      3,
		domain.RSVPInterested: 1,
		domain.RSVPCancelled:  0,
	}, got)
}
