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

// eventSelect loads an event with its category and the aggregates Derive needs.
const eventSelect = `
	SELECT e.id, e.title, e.description, e.location, e.start_time, e.end_time, e.created_by,
		e.max_attendees, e.category_id, c.name, c.description, c.created_at, c.updated_at,
		e.is_recurring, e.recurrence_pattern, e.created_at, e.updated_at,
		COALESCE(g.going, 0), rv.avg_rating, COALESCE(rv.review_count, 0)
	FROM events e
	LEFT JOIN categories c ON c.id = e.category_id
	LEFT JOIN LATERAL (
		SELECT COUNT(*) AS going FROM rsvps r WHERE r.event_id = e.id AND r.status = 'going'
	) g ON TRUE
	LEFT JOIN LATERAL (
		SELECT AVG(v.rating)::float8 AS avg_rating, COUNT(*) AS review_count FROM reviews v WHERE v.event_id = e.id
	) rv ON TRUE
`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, location, start_time, end_time, created_by, max_attendees,
			category_id, is_recurring, recurrence_pattern, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.CreatedBy, nullableInt(e.MaxAttendees),
		nullableString(e.CategoryID), e.IsRecurring, e.RecurrencePattern, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidReference
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	q := conn(ctx, r.DB)
	rows, err := q.QueryContext(ctx, eventSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrNotFound
	}
	if err := r.attachTags(ctx, q, events); err != nil {
		return nil, err
	}
	return events[0], nil
}

// GetForUpdate locks the event row for the rest of the current transaction and
// loads the going count under that lock.
func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, description, location, start_time, end_time, created_by, max_attendees,
			category_id, is_recurring, recurrence_pattern, created_at, updated_at
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	q := conn(ctx, r.DB)
	e := &domain.Event{}
	var maxAttendees sql.NullInt64
	var categoryID sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedBy, &maxAttendees,
		&categoryID, &e.IsRecurring, &e.RecurrencePattern, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	e.MaxAttendees = intPtr(maxAttendees)
	e.CategoryID = stringPtr(categoryID)

	countQuery := `SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = 'going'`
	if err := q.QueryRowContext(ctx, countQuery, id).Scan(&e.CurrentAttendeeCount); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $2, description = $3, location = $4, start_time = $5, end_time = $6,
			max_attendees = $7, category_id = $8, is_recurring = $9, recurrence_pattern = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.StartTime, e.EndTime,
		nullableInt(e.MaxAttendees), nullableString(e.CategoryID), e.IsRecurring, e.RecurrencePattern, e.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidReference
		}
		return err
	}
	return requireAffected(res)
}

// SetTags replaces the tag set of an event.
func (r *eventRepository) SetTags(ctx context.Context, eventID string, tagIDs []string) error {
	q := conn(ctx, r.DB)
	if _, err := q.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO event_tags (event_id, tag_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT (event_id, tag_id) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, eventID, pq.Array(tagIDs)); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidReference
		}
		return err
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where, args := eventWhere(filter, time.Now())
	q := conn(ctx, r.DB)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Event{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		eventSelect, where, eventOrder(filter), n+1, n+2)
	args = append(args, params.PageSize, params.Offset())
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, q, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// RepairEndTimes sets end_time = start_time + fallback on rows where end is not after start.
func (r *eventRepository) RepairEndTimes(ctx context.Context, fallback time.Duration) (int64, error) {
	query := `
		UPDATE events
		SET end_time = start_time + make_interval(secs => $1), updated_at = now()
		WHERE end_time <= start_time
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, fallback.Seconds())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func eventWhere(f domain.EventFilter, now time.Time) (string, []any) {
	var clauses []string
	var args []any
	add := func(format string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if len(f.IDs) > 0 {
		add("e.id = ANY($%d)", pq.Array(f.IDs))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("(e.title ILIKE $%[1]d OR e.description ILIKE $%[1]d OR e.location ILIKE $%[1]d)", likePattern(q))
	}
	if f.CategoryID != "" {
		add("e.category_id = $%d", f.CategoryID)
	}
	if len(f.TagIDs) > 0 {
		add("EXISTS (SELECT 1 FROM event_tags et WHERE et.event_id = e.id AND et.tag_id = ANY($%d))", pq.Array(f.TagIDs))
	}
	if f.DateFrom != nil {
		add("e.start_time >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("e.start_time <= $%d", *f.DateTo)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		add("e.location ILIKE $%d", likePattern(loc))
	}
	if f.OrganizerID != "" {
		add("e.created_by = $%d", f.OrganizerID)
	}
	if f.IsRecurring != nil {
		add("e.is_recurring = $%d", *f.IsRecurring)
	}
	switch f.Timing {
	case domain.TimingUpcoming:
		add("e.end_time >= $%d", now)
	case domain.TimingPast:
		add("e.end_time < $%d", now)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func eventOrder(f domain.EventFilter) string {
	col := "e.start_time"
	switch f.SortBy {
	case domain.SortByTitle:
		col = "e.title"
	case domain.SortByPopularity:
		col = "COALESCE(g.going, 0)"
	case domain.SortByCreatedAt:
		col = "e.created_at"
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	return col + " " + dir + ", e.id ASC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{Tags: []*domain.Tag{}}
		var maxAttendees sql.NullInt64
		var categoryID, categoryName, categoryDesc sql.NullString
		var categoryCreated, categoryUpdated sql.NullTime
		var avgRating sql.NullFloat64
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedBy,
			&maxAttendees, &categoryID, &categoryName, &categoryDesc, &categoryCreated, &categoryUpdated,
			&e.IsRecurring, &e.RecurrencePattern, &e.CreatedAt, &e.UpdatedAt,
			&e.CurrentAttendeeCount, &avgRating, &e.ReviewCount,
		); err != nil {
			return nil, err
		}
		e.MaxAttendees = intPtr(maxAttendees)
		e.CategoryID = stringPtr(categoryID)
		if categoryID.Valid {
			e.Category = &domain.Category{
				ID:          categoryID.String,
				Name:        categoryName.String,
				Description: categoryDesc.String,
				CreatedAt:   categoryCreated.Time,
				UpdatedAt:   categoryUpdated.Time,
			}
		}
		e.AverageRating = floatPtr(avgRating)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) attachTags(ctx context.Context, q querier, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*domain.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
	}
	query := `
		SELECT et.event_id, t.id, t.name, t.created_at
		FROM event_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.event_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID string
		t := &domain.Tag{}
		if err := rows.Scan(&eventID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			return err
		}
		if e, ok := byID[eventID]; ok {
			e.Tags = append(e.Tags, t)
		}
	}
	return rows.Err()
}
