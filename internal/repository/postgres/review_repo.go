package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventbooking/internal/domain"
)

const reviewSelect = `
	SELECT v.id, v.user_id, u.username, v.event_id, v.rating, v.comment, v.created_at, v.updated_at
	FROM reviews v
	JOIN users u ON u.id = v.user_id
`

type reviewRepository struct {
	DB *sql.DB
}

func NewReviewRepository(db *sql.DB) domain.ReviewRepository {
	return &reviewRepository{DB: db}
}

func (r *reviewRepository) Create(ctx context.Context, v *domain.Review) error {
	query := `
		INSERT INTO reviews (user_id, event_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, v.UserID, v.EventID, v.Rating, v.Comment, v.CreatedAt, v.UpdatedAt).
		Scan(&v.ID)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicateReview
	case isForeignKeyViolation(err):
		return domain.ErrNotFound
	}
	return err
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	return r.getOne(ctx, reviewSelect+` WHERE v.id = $1`, id)
}

func (r *reviewRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Review, error) {
	return r.getOne(ctx, reviewSelect+` WHERE v.user_id = $1 AND v.event_id = $2`, userID, eventID)
}

func (r *reviewRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Review, error) {
	v := &domain.Review{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, args...).
		Scan(&v.ID, &v.UserID, &v.Username, &v.EventID, &v.Rating, &v.Comment, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

func (r *reviewRepository) Update(ctx context.Context, v *domain.Review) error {
	query := `UPDATE reviews SET rating = $2, comment = $3, updated_at = $4 WHERE id = $1`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, v.ID, v.Rating, v.Comment, v.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *reviewRepository) ListByEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Review, int, error) {
	q := conn(ctx, r.DB)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Review{}, 0, nil
	}
	query := fmt.Sprintf("%s WHERE v.event_id = $1 ORDER BY v.created_at DESC, v.id LIMIT $2 OFFSET $3", reviewSelect)
	rows, err := q.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	reviews, err := scanReviews(rows)
	return reviews, total, err
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, reviewSelect+` WHERE v.user_id = $1 ORDER BY v.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

func (r *reviewRepository) Summary(ctx context.Context, eventID string) (*domain.ReviewSummary, error) {
	query := `SELECT COUNT(*), AVG(rating)::float8, MIN(rating), MAX(rating) FROM reviews WHERE event_id = $1`
	s := &domain.ReviewSummary{}
	var avg sql.NullFloat64
	var lo, hi sql.NullInt64
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID).Scan(&s.Count, &avg, &lo, &hi); err != nil {
		return nil, err
	}
	s.Average = floatPtr(avg)
	s.Min = intPtr(lo)
	s.Max = intPtr(hi)
	return s, nil
}

func scanReviews(rows *sql.Rows) ([]*domain.Review, error) {
	defer rows.Close()
	out := make([]*domain.Review, 0)
	for rows.Next() {
		v := &domain.Review{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Username, &v.EventID, &v.Rating, &v.Comment, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
