package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrDuplicateEmail     = Invalid("a user with that email already exists")
	ErrDuplicateUsername  = Invalid("a user with that username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active, please verify your email")
)

// Role codes carried in access token claims.
const (
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// User represents a registered account.
// swagger:model User
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	PasswordSalt    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Bio             string     `json:"bio"`
	PhoneNumber     string     `json:"phone_number"`
	IsOrganizer     bool       `json:"is_organizer"`
	IsStaff         bool       `json:"is_staff"`
	IsSuperuser     bool       `json:"is_superuser"`
	IsActive        bool       `json:"is_active"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewUser returns an inactive, unverified User. ID is set by the repository on create.
func NewUser(username, email string, isOrganizer bool, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:    username,
		Email:       email,
		IsOrganizer: isOrganizer,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// IsAdmin reports whether the user holds staff or superuser rights.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// Roles returns the role codes for token claims.
func (u *User) Roles() []string {
	roles := []string{}
	if u.IsOrganizer {
		roles = append(roles, RoleOrganizer)
	}
	if u.IsAdmin() {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// ProfilePatch holds optional profile changes. Nil fields are left unchanged.
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	PhoneNumber *string
	Email       *string
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues signed access and refresh tokens.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
	IssueRefresh(userID string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
	VerifyRefresh(token string) (userID string, err error)
}

// TokenPair is returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

// RegisterInput holds the fields accepted on sign up.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Bio         string
	PhoneNumber string
	IsOrganizer bool
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Tokens TokenPair `json:"tokens"`
	User   *User     `json:"user"`
}

// AuthService covers registration, login and the action-token flows.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (access string, err error)
	VerifyEmail(ctx context.Context, uid, token, expires string) (*User, error)
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	CheckPasswordReset(ctx context.Context, uid, token, expires string) (*User, error)
	ConfirmPasswordReset(ctx context.Context, uid, token, expires, newPassword string) error
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// UserService defines profile operations for the authenticated user.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*User, error)
	Delete(ctx context.Context, id string) error
}
