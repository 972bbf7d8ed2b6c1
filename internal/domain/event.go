package domain

import (
	"context"
	"strings"
	"time"
)

// MaxEventTitleLength bounds Event.Title.
const MaxEventTitleLength = 200

var (
	ErrInvalidSchedule  = Invalid("end_time must be after start_time")
	ErrInvalidCapacity  = Invalid("max_attendees must be at least 1")
	ErrCapacityTooLow   = Invalid("max_attendees cannot be below the current attendee count")
	ErrInvalidReference = Invalid("unknown category_id or tag_ids")

	ErrDuplicateCategory = Conflict("a category with that name already exists")
	ErrDuplicateTag      = Conflict("a tag with that name already exists")
)

// Event is a scheduled gathering owned by its creator.
// Fields after UpdatedAt are derived on every read and never stored.
// swagger:model Event
type Event struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	CreatedBy         string    `json:"created_by"`
	MaxAttendees      *int      `json:"max_attendees"`
	CategoryID        *string   `json:"category_id"`
	Category          *Category `json:"category,omitempty"`
	Tags              []*Tag    `json:"tags"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern string    `json:"recurrence_pattern"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	IsPast               bool     `json:"is_past"`
	CurrentAttendeeCount int      `json:"current_attendee_count"`
	IsFull               bool     `json:"is_full"`
	AvailableSpots       *int     `json:"available_spots"`
	AverageRating        *float64 `json:"average_rating"`
	ReviewCount          int      `json:"review_count"`
}

// Derive recomputes is_past, is_full and available_spots from the loaded going count.
func (e *Event) Derive(now time.Time) {
	e.IsPast = e.EndTime.Before(now)
	e.IsFull = false
	e.AvailableSpots = nil
	if e.MaxAttendees != nil {
		left := *e.MaxAttendees - e.CurrentAttendeeCount
		if left < 0 {
			left = 0
		}
		e.AvailableSpots = &left
		e.IsFull = e.CurrentAttendeeCount >= *e.MaxAttendees
	}
}

// OwnedBy reports whether userID created the event.
func (e *Event) OwnedBy(userID string) bool {
	return userID != "" && e.CreatedBy == userID
}

// ValidateSchedule rejects an end time that is not strictly after the start time.
func ValidateSchedule(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidSchedule
	}
	return nil
}

// Category groups events. Deleting one detaches its events.
// swagger:model Category
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag is a free label attached to many events.
// swagger:model Tag
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// EventInput holds the fields for a new event.
type EventInput struct {
	Title             string
	Description       string
	Location          string
	StartTime         time.Time
	EndTime           time.Time
	MaxAttendees      *int
	CategoryID        *string
	TagIDs            []string
	IsRecurring       bool
	RecurrencePattern string
}

// EventPatch holds a partial event update. Nil fields are left unchanged.
// CategoryID pointing at "" clears the category; TagIDs replaces the tag set wholesale.
// MaxAttendees pointing at 0 removes the capacity limit.
type EventPatch struct {
	Title             *string
	Description       *string
	Location          *string
	StartTime         *time.Time
	EndTime           *time.Time
	MaxAttendees      *int
	CategoryID        *string
	TagIDs            *[]string
	IsRecurring       *bool
	RecurrencePattern *string
}

// EventSortField is an accepted value of sort_by.
type EventSortField string

const (
	SortByStartTime  EventSortField = "start_time"
	SortByTitle      EventSortField = "title"
	SortByPopularity EventSortField = "popularity"
	SortByCreatedAt  EventSortField = "created_at"
)

// ParseEventSortField returns the sort field for s, defaulting to start_time.
func ParseEventSortField(s string) (EventSortField, bool) {
	switch EventSortField(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByStartTime:
		return SortByStartTime, true
	case SortByTitle:
		return SortByTitle, true
	case SortByPopularity:
		return SortByPopularity, true
	case SortByCreatedAt:
		return SortByCreatedAt, true
	}
	return "", false
}

// EventTiming restricts listings to upcoming or past events.
type EventTiming string

const (
	TimingAny      EventTiming = ""
	TimingUpcoming EventTiming = "upcoming"
	TimingPast     EventTiming = "past"
)

// EventFilter narrows event listings. Zero values mean no restriction.
type EventFilter struct {
	IDs         []string
	Query       string
	CategoryID  string
	TagIDs      []string
	DateFrom    *time.Time
	DateTo      *time.Time
	Location    string
	OrganizerID string
	IsRecurring *bool
	Timing      EventTiming
	SortBy      EventSortField
	Descending  bool
}

// EventRepository defines storage for events and their tag links.
// GetByID and List load going count, rating and review count; callers run Derive.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, e *Event) error
	SetTags(ctx context.Context, eventID string, tagIDs []string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	RepairEndTimes(ctx context.Context, fallback time.Duration) (int64, error)
}

// CategoryRepository defines storage for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	UsageStats(ctx context.Context) ([]UsageCount, error)
}

// TagRepository defines storage for tags.
type TagRepository interface {
	Create(ctx context.Context, t *Tag) error
	GetByID(ctx context.Context, id string) (*Tag, error)
	List(ctx context.Context) ([]*Tag, error)
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, id string) error
	UsageStats(ctx context.Context) ([]UsageCount, error)
}

// EventService defines catalog operations. actor is nil for anonymous callers.
type EventService interface {
	Create(ctx context.Context, actor *User, in EventInput) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, actor *User, id string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, actor *User, id string) error
	Attendees(ctx context.Context, actor *User, id string) ([]*Attendee, error)
	Stats(ctx context.Context, actor *User, id string) (*EventStats, error)
	Insights(ctx context.Context, actor *User, id string) (*EventInsights, error)
}

// TaxonomyService manages categories and tags. Reads are public; writes need an admin.
type TaxonomyService interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	CreateCategory(ctx context.Context, actor *User, name, description string) (*Category, error)
	UpdateCategory(ctx context.Context, actor *User, id string, name, description *string) (*Category, error)
	DeleteCategory(ctx context.Context, actor *User, id string) error
	CategoryUsage(ctx context.Context, actor *User) ([]UsageCount, error)

	ListTags(ctx context.Context) ([]*Tag, error)
	GetTag(ctx context.Context, id string) (*Tag, error)
	CreateTag(ctx context.Context, actor *User, name string) (*Tag, error)
	UpdateTag(ctx context.Context, actor *User, id, name string) (*Tag, error)
	DeleteTag(ctx context.Context, actor *User, id string) error
	TagUsage(ctx context.Context, actor *User) ([]UsageCount, error)
}
