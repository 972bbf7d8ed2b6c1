package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"eventbooking/internal/domain"
)

const externalColumns = `id, external_id, provider, title, description, location, start_time, end_time,
	venue_name, venue_address, image_url, ticket_url, price_range, category, tags, raw_data,
	fetched_at, is_imported, imported_event_id`

type externalEventRepository struct {
	DB *sql.DB
}

func NewExternalEventRepository(db *sql.DB) domain.ExternalEventRepository {
	return &externalEventRepository{DB: db}
}

// Upsert refreshes the cached copy of a provider record. Import state is never overwritten.
func (r *externalEventRepository) Upsert(ctx context.Context, e *domain.ExternalEvent) error {
	query := `
		INSERT INTO external_events (external_id, provider, title, description, location, start_time, end_time,
			venue_name, venue_address, image_url, ticket_url, price_range, category, tags, raw_data, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, location = EXCLUDED.location,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			venue_name = EXCLUDED.venue_name, venue_address = EXCLUDED.venue_address,
			image_url = EXCLUDED.image_url, ticket_url = EXCLUDED.ticket_url, price_range = EXCLUDED.price_range,
			category = EXCLUDED.category, tags = EXCLUDED.tags, raw_data = EXCLUDED.raw_data,
			fetched_at = EXCLUDED.fetched_at
		RETURNING id, is_imported, imported_event_id
	`
	raw := []byte(e.RawData)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	var imported sql.NullString
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.ExternalID, e.Provider, e.Title, e.Description, e.Location, e.StartTime, nullableTime(e.EndTime),
		e.VenueName, e.VenueAddress, e.ImageURL, e.TicketURL, e.PriceRange, e.Category, pq.Array(tags), raw, e.FetchedAt,
	).Scan(&e.ID, &e.IsImported, &imported)
	if err != nil {
		return fmt.Errorf("upsert external event %s/%s: %w", e.Provider, e.ExternalID, err)
	}
	e.ImportedEventID = stringPtr(imported)
	return nil
}

func (r *externalEventRepository) GetByID(ctx context.Context, id string) (*domain.ExternalEvent, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT `+externalColumns+` FROM external_events WHERE id = $1`, id)
	return scanExternal(row)
}

func (r *externalEventRepository) GetForUpdate(ctx context.Context, id string) (*domain.ExternalEvent, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT `+externalColumns+` FROM external_events WHERE id = $1 FOR UPDATE`, id)
	return scanExternal(row)
}

func (r *externalEventRepository) List(ctx context.Context, filter domain.ExternalEventFilter, params domain.PaginationParams) ([]*domain.ExternalEvent, int, error) {
	var clauses []string
	var args []any
	if filter.Provider != "" {
		args = append(args, filter.Provider)
		clauses = append(clauses, fmt.Sprintf("provider = $%d", len(args)))
	}
	if filter.IsImported != nil {
		args = append(args, *filter.IsImported)
		clauses = append(clauses, fmt.Sprintf("is_imported = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	q := conn(ctx, r.DB)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM external_events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.ExternalEvent{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM external_events%s ORDER BY start_time, id LIMIT $%d OFFSET $%d",
		externalColumns, where, n+1, n+2)
	args = append(args, params.PageSize, params.Offset())
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]*domain.ExternalEvent, 0)
	for rows.Next() {
		e, err := scanExternal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *externalEventRepository) MarkImported(ctx context.Context, id, eventID string) error {
	query := `UPDATE external_events SET is_imported = TRUE, imported_event_id = $2 WHERE id = $1`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, eventID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// PurgeStale deletes never-imported records last fetched before the cutoff.
func (r *externalEventRepository) PurgeStale(ctx context.Context, fetchedBefore time.Time) (int64, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM external_events WHERE is_imported = FALSE AND fetched_at < $1`, fetchedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExternal(row rowScanner) (*domain.ExternalEvent, error) {
	e := &domain.ExternalEvent{}
	var end sql.NullTime
	var imported sql.NullString
	var raw []byte
	err := row.Scan(
		&e.ID, &e.ExternalID, &e.Provider, &e.Title, &e.Description, &e.Location, &e.StartTime, &end,
		&e.VenueName, &e.VenueAddress, &e.ImageURL, &e.TicketURL, &e.PriceRange, &e.Category,
		pq.Array(&e.Tags), &raw, &e.FetchedAt, &e.IsImported, &imported,
	)
	if err != nil {
		return nil, notFound(err)
	}
	e.EndTime = timePtr(end)
	e.ImportedEventID = stringPtr(imported)
	if len(raw) > 0 {
		e.RawData = raw
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}
