package domain

import (
	"context"
	"time"
)

var (
	ErrReviewNotEligible = Invalid("you can only review past events you attended")
	ErrDuplicateReview   = Conflict("you have already reviewed this event")
	ErrInvalidRating     = Invalid("rating must be between 1 and 5")
)

// Review is a post-event rating. At most one per (user, event).
// swagger:model Review
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	EventID   string    `json:"event_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRating reports whether r is in [1,5].
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}

// ReviewSummary aggregates the ratings of one event.
type ReviewSummary struct {
	Count   int      `json:"count"`
	Average *float64 `json:"average"`
	Min     *int     `json:"min"`
	Max     *int     `json:"max"`
}

// ReviewRepository defines storage for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string, params PaginationParams) ([]*Review, int, error)
	ListByUser(ctx context.Context, userID string) ([]*Review, error)
	Summary(ctx context.Context, eventID string) (*ReviewSummary, error)
}

// ReviewService defines review operations.
type ReviewService interface {
	Create(ctx context.Context, actor *User, eventID string, rating int, comment string) (*Review, error)
	Update(ctx context.Context, actor *User, reviewID string, rating *int, comment *string) (*Review, error)
	Delete(ctx context.Context, actor *User, reviewID string) error
	ListForEvent(ctx context.Context, eventID string, params PaginationParams) ([]*Review, int, error)
	ListMine(ctx context.Context, actor *User) ([]*Review, error)
}
