package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Provider names a third-party event source.
type Provider string

const (
	ProviderTicketmaster Provider = "ticketmaster"
	ProviderSeatGeek     Provider = "seatgeek"
	ProviderEventbrite   Provider = "eventbrite"
)

var (
	ErrUnsupportedProvider = Invalid("unsupported provider")
	ErrAlreadyImported     = Invalid("event already imported")
)

// ParseProvider returns the known provider named by s.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderTicketmaster, ProviderSeatGeek, ProviderEventbrite:
		return p, nil
	}
	return "", ErrUnsupportedProvider
}

// ExternalEvent is a read-only record cached from a provider search.
// swagger:model ExternalEvent
type ExternalEvent struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"external_id"`
	Provider        Provider        `json:"provider"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time"`
	VenueName       string          `json:"venue_name"`
	VenueAddress    string          `json:"venue_address"`
	ImageURL        string          `json:"image_url"`
	TicketURL       string          `json:"ticket_url"`
	PriceRange      string          `json:"price_range"`
	Category        string          `json:"category"`
	Tags            []string        `json:"tags"`
	RawData         json.RawMessage `json:"raw_data,omitempty" swaggertype:"object"`
	FetchedAt       time.Time       `json:"fetched_at"`
	IsImported      bool            `json:"is_imported"`
	ImportedEventID *string         `json:"imported_event_id"`
}

// ExternalSearchQuery is the input of a provider search.
type ExternalSearchQuery struct {
	Provider Provider
	Query    string
	Location string
	Category string
	DateFrom *time.Time
	DateTo   *time.Time
}

// CacheKey identifies the query for result caching.
func (q ExternalSearchQuery) CacheKey() string {
	var b strings.Builder
	b.WriteString("external:")
	b.WriteString(string(q.Provider))
	for _, part := range []string{q.Query, q.Location, q.Category} {
		b.WriteByte('|')
		b.WriteString(strings.ToLower(strings.TrimSpace(part)))
	}
	for _, t := range []*time.Time{q.DateFrom, q.DateTo} {
		b.WriteByte('|')
		if t != nil {
			b.WriteString(t.UTC().Format(time.RFC3339))
		}
	}
	return b.String()
}

// ExternalEventFetcher searches one provider and normalizes its records.
type ExternalEventFetcher interface {
	Provider() Provider
	Search(ctx context.Context, q ExternalSearchQuery) ([]*ExternalEvent, error)
}

// ImportOptions are caller-supplied overrides applied to an imported event.
type ImportOptions struct {
	CategoryID        *string
	TagIDs            []string
	MaxAttendees      *int
	IsRecurring       bool
	RecurrencePattern string
}

// ExternalEventFilter narrows cached record listings.
type ExternalEventFilter struct {
	Provider   Provider
	IsImported *bool
}

// ExternalEventRepository defines storage for cached provider records.
type ExternalEventRepository interface {
	// Upsert inserts or refreshes by (provider, external_id), keeping import state, and sets ID.
	Upsert(ctx context.Context, e *ExternalEvent) error
	GetByID(ctx context.Context, id string) (*ExternalEvent, error)
	GetForUpdate(ctx context.Context, id string) (*ExternalEvent, error)
	List(ctx context.Context, filter ExternalEventFilter, params PaginationParams) ([]*ExternalEvent, int, error)
	MarkImported(ctx context.Context, id, eventID string) error
	PurgeStale(ctx context.Context, fetchedBefore time.Time) (int64, error)
}

// ExternalEventService searches providers and imports records as local events.
type ExternalEventService interface {
	Search(ctx context.Context, actor *User, q ExternalSearchQuery) ([]*ExternalEvent, error)
	List(ctx context.Context, actor *User, filter ExternalEventFilter, params PaginationParams) ([]*ExternalEvent, int, error)
	Get(ctx context.Context, actor *User, id string) (*ExternalEvent, error)
	Import(ctx context.Context, actor *User, id string, opts ImportOptions) (*Event, error)
}
