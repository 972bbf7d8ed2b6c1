package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

var externalColumnNames = []string{
	"id", "external_id", "provider", "title", "description", "location", "start_time", "end_time",
	"venue_name", "venue_address", "image_url", "ticket_url", "price_range", "category", "tags", "raw_data",
	"fetched_at", "is_imported", "imported_event_id",
}

func TestExternalEventRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC)
	fetched := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO external_events .* ON CONFLICT \(provider, external_id\) DO UPDATE SET`).
		WithArgs("tm-1", domain.ProviderTicketmaster, "Fireworks", "", "Boston", start, nil,
			"", "", "", "", "", "Music", sqlmock.AnyArg(), []byte("{}"), fetched).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_imported", "imported_event_id"}).
			AddRow("ext-1", true, "ev-9"))

	e := &domain.ExternalEvent{
		ExternalID: "tm-1", Provider: domain.ProviderTicketmaster, Title: "Fireworks",
		Location: "Boston", StartTime: start, Category: "Music", FetchedAt: fetched,
	}
	require.NoError(t, NewExternalEventRepository(db).Upsert(context.Background(), e))
	require.Equal(t, "ext-1", e.ID)
	require.True(t, e.IsImported)
	require.Equal(t, "ev-9", *e.ImportedEventID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExternalEventRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM external_events WHERE id = \$1`).
		WithArgs("ext-1").
		WillReturnRows(sqlmock.NewRows(externalColumnNames).AddRow(
			"ext-1", "sg-7", "seatgeek", "Game", "", "Denver", start, nil,
			"Ball Arena", "", "", "https://seatgeek.com/e/7", "$20 - $90", "sports", "{nba,basketball}", []byte(`{"id":7}`),
			start, false, nil,
		))

	e, err := NewExternalEventRepository(db).GetByID(context.Background(), "ext-1")
	require.NoError(t, err)
	require.Equal(t, domain.ProviderSeatGeek, e.Provider)
	require.Equal(t, []string{"nba", "basketball"}, e.Tags)
	require.Nil(t, e.EndTime)
	require.JSONEq(t, `{"id":7}`, string(e.RawData))
	require.Nil(t, e.ImportedEventID)
}

func TestExternalEventRepository_PurgeStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM external_events WHERE is_imported = FALSE AND fetched_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := NewExternalEventRepository(db).PurgeStale(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 12, n)
}

func TestExternalEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	imported := false
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM external_events WHERE provider = \$1 AND is_imported = \$2`).
		WithArgs(domain.ProviderTicketmaster, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	got, total, err := NewExternalEventRepository(db).List(context.Background(),
		domain.ExternalEventFilter{Provider: domain.ProviderTicketmaster, IsImported: &imported},
		domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
