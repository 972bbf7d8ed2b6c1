package domain

import (
	"context"
	"time"
)

var (
	ErrEventFull = Invalid("event is full")
	ErrEventPast = Invalid("cannot RSVP to a past event")
)

// RSVPStatus is the attendance state of a user for an event.
type RSVPStatus string

const (
	RSVPGoing      RSVPStatus = "going"
	RSVPInterested RSVPStatus = "interested"
	RSVPCancelled  RSVPStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPInterested, RSVPCancelled:
		return true
	}
	return false
}

// RSVP is the single attendance row for a (user, event) pair.
// swagger:model RSVP
type RSVP struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	EventID   string     `json:"event_id"`
	Status    RSVPStatus `json:"status"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Event     *Event     `json:"event,omitempty"`
}

// Attendee is one row of an event's attendee list. Email, Note and IsVerified are
// only filled for callers with full visibility.
// swagger:model Attendee
type Attendee struct {
	UserID     string     `json:"user_id"`
	Username   string     `json:"username"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email,omitempty"`
	Status     RSVPStatus `json:"status"`
	Note       string     `json:"note,omitempty"`
	IsVerified *bool      `json:"is_verified,omitempty"`
	RSVPDate   time.Time  `json:"rsvp_date"`
}

// DailyCount is a per-day aggregate.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// RSVPRepository defines storage for RSVPs.
type RSVPRepository interface {
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (*RSVP, error)
	CountGoingExcluding(ctx context.Context, eventID, userID string) (int, error)
	Upsert(ctx context.Context, r *RSVP) (created bool, err error)
	ListByUser(ctx context.Context, userID string, status *RSVPStatus) ([]*RSVP, error)
	ListAttendees(ctx context.Context, eventID string, status *RSVPStatus) ([]*Attendee, error)
	StatusCounts(ctx context.Context, eventID string) (map[RSVPStatus]int, error)
	DailyCounts(ctx context.Context, eventID string, since time.Time) ([]DailyCount, error)
}

// RSVPService defines attendance operations. All of them act on the caller's own RSVP.
type RSVPService interface {
	// Respond creates or updates the caller's RSVP. created is true when a new row was written.
	Respond(ctx context.Context, actor *User, eventID string, status RSVPStatus, note string) (rsvp *RSVP, created bool, err error)
	Cancel(ctx context.Context, actor *User, eventID string) (*RSVP, error)
	StatusFor(ctx context.Context, actor *User, eventID string) (*RSVP, error)
	MyEvents(ctx context.Context, actor *User) ([]*RSVP, error)
	MyRSVPs(ctx context.Context, actor *User) ([]*RSVP, error)
}
