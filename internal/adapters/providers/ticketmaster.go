package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

// DefaultTicketmasterBaseURL is the Discovery API root.
const DefaultTicketmasterBaseURL = "https://app.ticketmaster.com"

type ticketmasterFetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewTicketmasterFetcher returns a fetcher for the Ticketmaster Discovery API.
func NewTicketmasterFetcher(client *http.Client, baseURL, apiKey string) domain.ExternalEventFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultTicketmasterBaseURL
	}
	return &ticketmasterFetcher{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (f *ticketmasterFetcher) Provider() domain.Provider { return domain.ProviderTicketmaster }

type tmResponse struct {
	Embedded struct {
		Events []json.RawMessage `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Info   string `json:"info"`
	URL    string `json:"url"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`
			LocalDate string `json:"localDate"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
		} `json:"end"`
	} `json:"dates"`
	PriceRanges []struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
	} `json:"priceRanges"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
	} `json:"classifications"`
	Embedded struct {
		Venues []struct {
			Name    string `json:"name"`
			Address struct {
				Line1 string `json:"line1"`
			} `json:"address"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				Name string `json:"name"`
			} `json:"state"`
		} `json:"venues"`
	} `json:"_embedded"`
}

func (f *ticketmasterFetcher) Search(ctx context.Context, q domain.ExternalSearchQuery) ([]*domain.ExternalEvent, error) {
	if f.apiKey == "" {
		return nil, &domain.UpstreamError{Provider: domain.ProviderTicketmaster, Reason: "api key not configured"}
	}
	params := url.Values{}
	params.Set("apikey", f.apiKey)
	params.Set("size", pageSize)
	setIf(params, "keyword", q.Query)
	setIf(params, "city", q.Location)
	setIf(params, "classificationName", q.Category)
	if q.DateFrom != nil {
		params.Set("startDateTime", q.DateFrom.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if q.DateTo != nil {
		params.Set("endDateTime", q.DateTo.UTC().Format("2006-01-02T15:04:05Z"))
	}

	var resp tmResponse
	if err := getJSON(ctx, f.client, domain.ProviderTicketmaster, f.baseURL+"/discovery/v2/events.json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*domain.ExternalEvent, 0, len(resp.Embedded.Events))
	for _, raw := range resp.Embedded.Events {
		var ev tmEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, &domain.UpstreamError{Provider: domain.ProviderTicketmaster, Reason: "malformed event record"}
		}
		rec, ok := normalizeTicketmaster(ev, raw, now)
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// normalizeTicketmaster maps one record; records without an id or a parseable start are skipped.
func normalizeTicketmaster(ev tmEvent, raw json.RawMessage, fetchedAt time.Time) (*domain.ExternalEvent, bool) {
	if ev.ID == "" {
		return nil, false
	}
	start, ok := parseTime(ev.Dates.Start.DateTime)
	if !ok {
		if start, ok = parseTime(ev.Dates.Start.LocalDate); !ok {
			return nil, false
		}
	}
	rec := &domain.ExternalEvent{
		ExternalID:  ev.ID,
		Provider:    domain.ProviderTicketmaster,
		Title:       ev.Name,
		Description: ev.Info,
		StartTime:   start,
		TicketURL:   ev.URL,
		RawData:     raw,
		FetchedAt:   fetchedAt,
		Tags:        []string{},
	}
	if end, ok := parseTime(ev.Dates.End.DateTime); ok {
		rec.EndTime = &end
	}
	if len(ev.Images) > 0 {
		rec.ImageURL = ev.Images[0].URL
	}
	if len(ev.PriceRanges) > 0 {
		p := ev.PriceRanges[0]
		rec.PriceRange = formatPriceRange(p.Min, p.Max, p.Currency)
	}
	if len(ev.Classifications) > 0 {
		c := ev.Classifications[0]
		rec.Category = c.Segment.Name
		if c.Genre.Name != "" && c.Genre.Name != "Undefined" {
			rec.Tags = append(rec.Tags, c.Genre.Name)
		}
	}
	if len(ev.Embedded.Venues) > 0 {
		v := ev.Embedded.Venues[0]
		rec.VenueName = v.Name
		rec.VenueAddress = v.Address.Line1
		rec.Location = joinNonEmpty(", ", v.City.Name, v.State.Name)
	}
	return rec, true
}

func formatPriceRange(lo, hi float64, currency string) string {
	if lo == 0 && hi == 0 {
		return ""
	}
	s := fmt.Sprintf("%.2f - %.2f", lo, hi)
	if currency != "" {
		s += " " + currency
	}
	return s
}
