package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventbooking/internal/domain"
)

const rsvpColumns = `id, user_id, event_id, status, note, created_at, updated_at`

type rsvpRepository struct {
	DB *sql.DB
}

func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{DB: db}
}

func (r *rsvpRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + ` FROM rsvps WHERE user_id = $1 AND event_id = $2`
	v := &domain.RSVP{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, userID, eventID).
		Scan(&v.ID, &v.UserID, &v.EventID, &v.Status, &v.Note, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// CountGoingExcluding counts going RSVPs for the event other than userID's own.
func (r *rsvpRepository) CountGoingExcluding(ctx context.Context, eventID, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = 'going' AND user_id <> $2`
	var n int
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).Scan(&n)
	return n, err
}

// Upsert writes the single row for (user_id, event_id). xmax = 0 only on a fresh insert.
func (r *rsvpRepository) Upsert(ctx context.Context, v *domain.RSVP) (bool, error) {
	query := `
		INSERT INTO rsvps (user_id, event_id, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, event_id) DO UPDATE
			SET status = EXCLUDED.status, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`
	var inserted bool
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, v.UserID, v.EventID, v.Status, v.Note, v.UpdatedAt).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt, &inserted)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return inserted, nil
}

func (r *rsvpRepository) ListByUser(ctx context.Context, userID string, status *domain.RSVPStatus) ([]*domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + ` FROM rsvps WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRSVPs(rows)
}

func (r *rsvpRepository) ListAttendees(ctx context.Context, eventID string, status *domain.RSVPStatus) ([]*domain.Attendee, error) {
	query := `
		SELECT r.user_id, u.username, u.first_name, u.last_name, u.email, r.status, r.note, u.email_verified, r.created_at
		FROM rsvps r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1`
	args := []any{eventID}
	if status != nil {
		query += ` AND r.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY r.created_at`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Attendee, 0)
	for rows.Next() {
		a := &domain.Attendee{}
		var verified bool
		if err := rows.Scan(&a.UserID, &a.Username, &a.FirstName, &a.LastName, &a.Email, &a.Status, &a.Note, &verified, &a.RSVPDate); err != nil {
			return nil, err
		}
		a.IsVerified = &verified
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *rsvpRepository) StatusCounts(ctx context.Context, eventID string) (map[domain.RSVPStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM rsvps WHERE event_id = $1 GROUP BY status`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[domain.RSVPStatus]int{
		domain.RSVPGoing:      0,
		domain.RSVPInterested: 0,
		domain.RSVPCancelled:  0,
	}
	for rows.Next() {
		var s domain.RSVPStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

func (r *rsvpRepository) DailyCounts(ctx context.Context, eventID string, since time.Time) ([]domain.DailyCount, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*)
		FROM rsvps
		WHERE event_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.DailyCount, 0)
	for rows.Next() {
		var d domain.DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanRSVPs(rows *sql.Rows) ([]*domain.RSVP, error) {
	defer rows.Close()
	out := make([]*domain.RSVP, 0)
	for rows.Next() {
		v := &domain.RSVP{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.EventID, &v.Status, &v.Note, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
