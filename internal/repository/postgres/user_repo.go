package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventbooking/internal/domain"
)

const userColumns = `id, username, email, password_hash, password_salt, first_name, last_name, bio, phone_number,
	is_organizer, is_staff, is_superuser, is_active, email_verified, email_verified_at, last_login_at,
	created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, password_salt, first_name, last_name, bio, phone_number,
			is_organizer, is_staff, is_superuser, is_active, email_verified, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.PasswordSalt, u.FirstName, u.LastName, u.Bio, u.PhoneNumber,
		u.IsOrganizer, u.IsStaff, u.IsSuperuser, u.IsActive, u.EmailVerified, nullableTime(u.EmailVerifiedAt),
		u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return userConstraintError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx, query, username))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET
			username = $2, email = $3, password_hash = $4, password_salt = $5,
			first_name = $6, last_name = $7, bio = $8, phone_number = $9,
			is_organizer = $10, is_active = $11, email_verified = $12, email_verified_at = $13,
			last_login_at = $14, updated_at = $15
		WHERE id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.PasswordSalt,
		u.FirstName, u.LastName, u.Bio, u.PhoneNumber,
		u.IsOrganizer, u.IsActive, u.EmailVerified, nullableTime(u.EmailVerifiedAt),
		nullableTime(u.LastLoginAt), u.UpdatedAt,
	)
	if err != nil {
		return userConstraintError(err)
	}
	return requireAffected(res)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	var verifiedAt, lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PasswordSalt,
		&u.FirstName, &u.LastName, &u.Bio, &u.PhoneNumber,
		&u.IsOrganizer, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.EmailVerified,
		&verifiedAt, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	u.EmailVerifiedAt = timePtr(verifiedAt)
	u.LastLoginAt = timePtr(lastLogin)
	return u, nil
}

func userConstraintError(err error) error {
	perr, ok := pqError(err)
	if !ok || perr.Code != codeUniqueViolation {
		return err
	}
	switch perr.Constraint {
	case "users_username_key":
		return domain.ErrDuplicateUsername
	default:
		return domain.ErrDuplicateEmail
	}
}
