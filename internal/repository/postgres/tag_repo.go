package postgres

import (
	"context"
	"database/sql"

	"eventbooking/internal/domain"
)

type tagRepository struct {
	DB *sql.DB
}

func NewTagRepository(db *sql.DB) domain.TagRepository {
	return &tagRepository{DB: db}
}

func (r *tagRepository) Create(ctx context.Context, t *domain.Tag) error {
	query := `INSERT INTO tags (name, created_at) VALUES ($1, $2) RETURNING id`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, t.Name, t.CreatedAt).Scan(&t.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateTag
	}
	return err
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	t := &domain.Tag{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT id, name, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `SELECT id, name, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Tag, 0)
	for rows.Next() {
		t := &domain.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tagRepository) Update(ctx context.Context, t *domain.Tag) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `UPDATE tags SET name = $2 WHERE id = $1`, t.ID, t.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTag
		}
		return err
	}
	return requireAffected(res)
}

func (r *tagRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tagRepository) UsageStats(ctx context.Context) ([]domain.UsageCount, error) {
	query := `
		SELECT t.id, t.name, COUNT(et.event_id)
		FROM tags t
		LEFT JOIN event_tags et ON et.tag_id = t.id
		GROUP BY t.id, t.name
		ORDER BY COUNT(et.event_id) DESC, t.name
	`
	return scanUsage(ctx, conn(ctx, r.DB), query)
}
