package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

// DefaultSeatGeekBaseURL is the SeatGeek platform API root.
const DefaultSeatGeekBaseURL = "https://api.seatgeek.com"

type seatGeekFetcher struct {
	client   *http.Client
	baseURL  string
	clientID string
}

// NewSeatGeekFetcher returns a fetcher for the SeatGeek events API.
func NewSeatGeekFetcher(client *http.Client, baseURL, clientID string) domain.ExternalEventFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultSeatGeekBaseURL
	}
	return &seatGeekFetcher{client: client, baseURL: strings.TrimRight(baseURL, "/"), clientID: clientID}
}

func (f *seatGeekFetcher) Provider() domain.Provider { return domain.ProviderSeatGeek }

type sgResponse struct {
	Events []json.RawMessage `json:"events"`
}

type sgEvent struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	DatetimeUTC    string `json:"datetime_utc"`
	EndDatetimeUTC string `json:"enddatetime_utc"`
	URL            string `json:"url"`
	Type           string `json:"type"`
	Taxonomies     []struct {
		Name string `json:"name"`
	} `json:"taxonomies"`
	Performers []struct {
		Image string `json:"image"`
	} `json:"performers"`
	Venue struct {
		Name            string `json:"name"`
		Address         string `json:"address"`
		ExtendedAddress string `json:"extended_address"`
		City            string `json:"city"`
		State           string `json:"state"`
	} `json:"venue"`
	Stats struct {
		LowestPrice  *float64 `json:"lowest_price"`
		HighestPrice *float64 `json:"highest_price"`
	} `json:"stats"`
}

func (f *seatGeekFetcher) Search(ctx context.Context, q domain.ExternalSearchQuery) ([]*domain.ExternalEvent, error) {
	params := url.Values{}
	setIf(params, "client_id", f.clientID)
	params.Set("per_page", pageSize)
	setIf(params, "q", q.Query)
	setIf(params, "venue.city", q.Location)
	setIf(params, "type", q.Category)
	if q.DateFrom != nil {
		params.Set("datetime_utc.gte", q.DateFrom.UTC().Format("2006-01-02T15:04:05"))
	}
	if q.DateTo != nil {
		params.Set("datetime_utc.lte", q.DateTo.UTC().Format("2006-01-02T15:04:05"))
	}

	var resp sgResponse
	if err := getJSON(ctx, f.client, domain.ProviderSeatGeek, f.baseURL+"/2/events?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*domain.ExternalEvent, 0, len(resp.Events))
	for _, raw := range resp.Events {
		var ev sgEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, &domain.UpstreamError{Provider: domain.ProviderSeatGeek, Reason: "malformed event record"}
		}
		rec, ok := normalizeSeatGeek(ev, raw, now)
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func normalizeSeatGeek(ev sgEvent, raw json.RawMessage, fetchedAt time.Time) (*domain.ExternalEvent, bool) {
	if ev.ID == 0 {
		return nil, false
	}
	start, ok := parseTime(ev.DatetimeUTC)
	if !ok {
		return nil, false
	}
	rec := &domain.ExternalEvent{
		ExternalID:   strconv.FormatInt(ev.ID, 10),
		Provider:     domain.ProviderSeatGeek,
		Title:        ev.Title,
		Description:  ev.Description,
		StartTime:    start,
		TicketURL:    ev.URL,
		Category:     ev.Type,
		VenueName:    ev.Venue.Name,
		VenueAddress: joinNonEmpty(", ", ev.Venue.Address, ev.Venue.ExtendedAddress),
		Location:     joinNonEmpty(", ", ev.Venue.City, ev.Venue.State),
		RawData:      raw,
		FetchedAt:    fetchedAt,
		Tags:         []string{},
	}
	if end, ok := parseTime(ev.EndDatetimeUTC); ok {
		rec.EndTime = &end
	}
	for _, tx := range ev.Taxonomies {
		if tx.Name != "" {
			rec.Tags = append(rec.Tags, tx.Name)
		}
	}
	if len(ev.Performers) > 0 {
		rec.ImageURL = ev.Performers[0].Image
	}
	if ev.Stats.LowestPrice != nil && ev.Stats.HighestPrice != nil {
		rec.PriceRange = formatPriceRange(*ev.Stats.LowestPrice, *ev.Stats.HighestPrice, "USD")
	}
	return rec, true
}
