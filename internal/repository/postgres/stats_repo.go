package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventbooking/internal/domain"
)

type statsRepository struct {
	DB *sql.DB
}

func NewStatsRepository(db *sql.DB) domain.StatsRepository {
	return &statsRepository{DB: db}
}

// OrganizerOverview fills the headline counts; events are upcoming until they end.
func (r *statsRepository) OrganizerOverview(ctx context.Context, organizerID string, now, since time.Time) (*domain.OrganizerDashboard, error) {
	q := conn(ctx, r.DB)
	d := &domain.OrganizerDashboard{}
	eventsQuery := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE end_time >= $2),
			COUNT(*) FILTER (WHERE end_time < $2),
			COUNT(*) FILTER (WHERE created_at >= $3)
		FROM events
		WHERE created_by = $1
	`
	if err := q.QueryRowContext(ctx, eventsQuery, organizerID, now, since).
		Scan(&d.TotalEvents, &d.UpcomingEvents, &d.PastEvents, &d.EventsThisMonth); err != nil {
		return nil, err
	}
	rsvpQuery := `
		SELECT COUNT(r.id), COUNT(r.id) FILTER (WHERE r.created_at >= $2)
		FROM rsvps r
		JOIN events e ON e.id = r.event_id
		WHERE e.created_by = $1
	`
	if err := q.QueryRowContext(ctx, rsvpQuery, organizerID, since).Scan(&d.TotalRSVPs, &d.RSVPsThisMonth); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *statsRepository) TopEvents(ctx context.Context, organizerID string, limit int) ([]domain.EventPerformance, error) {
	query := `
		SELECT e.id, e.title, e.start_time,
			COUNT(r.id),
			COUNT(r.id) FILTER (WHERE r.status = 'going'),
			COUNT(r.id) FILTER (WHERE r.status = 'interested'),
			(SELECT COUNT(*) FROM reviews v WHERE v.event_id = e.id),
			(SELECT AVG(v.rating)::float8 FROM reviews v WHERE v.event_id = e.id)
		FROM events e
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.created_by = $1
		GROUP BY e.id
		ORDER BY COUNT(r.id) DESC, e.start_time DESC
		LIMIT $2
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, organizerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.EventPerformance, 0)
	for rows.Next() {
		var p domain.EventPerformance
		var avg sql.NullFloat64
		if err := rows.Scan(&p.EventID, &p.Title, &p.StartTime, &p.RSVPCount, &p.GoingCount, &p.InterestedCount, &p.ReviewCount, &avg); err != nil {
			return nil, err
		}
		p.AverageRating = floatPtr(avg)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *statsRepository) CategoryPerformance(ctx context.Context, organizerID string) ([]domain.CategoryPerformance, error) {
	query := `
		SELECT c.id, COALESCE(c.name, 'Uncategorized'), COUNT(DISTINCT e.id), COUNT(r.id)
		FROM events e
		LEFT JOIN categories c ON c.id = e.category_id
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.created_by = $1
		GROUP BY c.id, c.name
		ORDER BY COUNT(r.id) DESC, COALESCE(c.name, 'Uncategorized')
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.CategoryPerformance, 0)
	for rows.Next() {
		var p domain.CategoryPerformance
		var id sql.NullString
		if err := rows.Scan(&id, &p.CategoryName, &p.EventCount, &p.RSVPCount); err != nil {
			return nil, err
		}
		p.CategoryID = stringPtr(id)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *statsRepository) PlatformTotals(ctx context.Context) (*domain.PlatformTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM rsvps),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(DISTINCT created_by) FROM events)
	`
	t := &domain.PlatformTotals{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query).Scan(
		&t.TotalUsers, &t.TotalEvents, &t.TotalRSVPs, &t.TotalReviews, &t.TotalCategories, &t.TotalTags, &t.ActiveOrganizers,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *statsRepository) RecentRSVPs(ctx context.Context, limit int) ([]*domain.RSVP, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		`SELECT `+rsvpColumns+` FROM rsvps ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanRSVPs(rows)
}

func (r *statsRepository) UserAnalytics(ctx context.Context) (*domain.UserAnalytics, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_organizer),
			COUNT(*) FILTER (WHERE email_verified),
			COUNT(*) FILTER (WHERE is_active)
		FROM users
	`
	a := &domain.UserAnalytics{}
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query).Scan(&a.TotalUsers, &a.Organizers, &a.VerifiedUsers, &a.ActiveUsers); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *statsRepository) TopOrganizers(ctx context.Context, limit int) ([]domain.OrganizerSummary, error) {
	query := `
		SELECT u.id, u.username, COUNT(e.id)
		FROM users u
		JOIN events e ON e.created_by = u.id
		GROUP BY u.id, u.username
		ORDER BY COUNT(e.id) DESC, u.username
		LIMIT $1
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.OrganizerSummary, 0)
	for rows.Next() {
		var s domain.OrganizerSummary
		if err := rows.Scan(&s.UserID, &s.Username, &s.EventCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
