package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ticketmasterBody = `{
  "_embedded": {
    "events": [
      {
        "id": "tm-1",
        "name": "Jazz Night",
        "info": "Live quartet",
        "url": "https://tickets.example.com/tm-1",
        "images": [{"url": "https://img.example.com/1.jpg"}],
        "dates": {"start": {"dateTime": "2025-07-01T19:00:00Z", "localDate": "2025-07-01"}},
        "priceRanges": [{"min": 25, "max": 80.5, "currency": "USD"}],
        "classifications": [{"segment": {"name": "Music"}, "genre": {"name": "Jazz"}}],
        "_embedded": {"venues": [{"name": "Blue Room", "address": {"line1": "1 Main St"}, "city": {"name": "Austin"}, "state": {"name": "Texas"}}]}
      },
      {
        "id": "tm-2",
        "name": "Date only",
        "dates": {"start": {"localDate": "2025-08-02"}}
      },
      {
        "id": "",
        "name": "No id is skipped",
        "dates": {"start": {"dateTime": "2025-07-01T19:00:00Z"}}
      }
    ]
  }
}`

func TestTicketmasterFetcher_Search(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discovery/v2/events.json", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ticketmasterBody))
	}))
	defer srv.Close()

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	f := NewTicketmasterFetcher(srv.Client(), srv.URL, "tm-key")
	assert.Equal(t, domain.ProviderTicketmaster, f.Provider())

	events, err := f.Search(context.Background(), domain.ExternalSearchQuery{
		Provider: domain.ProviderTicketmaster, Query: "jazz", Location: "Austin", Category: "music", DateFrom: &from,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"tm-key"}, gotQuery["apikey"])
	assert.Equal(t, []string{"20"}, gotQuery["size"])
	assert.Equal(t, []string{"jazz"}, gotQuery["keyword"])
	assert.Equal(t, []string{"Austin"}, gotQuery["city"])
	assert.Equal(t, []string{"music"}, gotQuery["classificationName"])
	assert.Equal(t, []string{"2025-07-01T00:00:00Z"}, gotQuery["startDateTime"])
	assert.NotContains(t, gotQuery, "endDateTime")

	require.Len(t, events, 2)
	ev := events[0]
	assert.Equal(t, "tm-1", ev.ExternalID)
	assert.Equal(t, "Jazz Night", ev.Title)
	assert.Equal(t, "Live quartet", ev.Description)
	assert.Equal(t, time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC), ev.StartTime)
	assert.Nil(t, ev.EndTime)
	assert.Equal(t, "Blue Room", ev.VenueName)
	assert.Equal(t, "1 Main St", ev.VenueAddress)
	assert.Equal(t, "Austin, Texas", ev.Location)
	assert.Equal(t, "25.00 - 80.50 USD", ev.PriceRange)
	assert.Equal(t, "Music", ev.Category)
	assert.Equal(t, []string{"Jazz"}, ev.Tags)
	assert.Equal(t, "https://img.example.com/1.jpg", ev.ImageURL)
	assert.NotEmpty(t, ev.RawData)

	assert.Equal(t, time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), events[1].StartTime)
}

func TestTicketmasterFetcher_NoAPIKey(t *testing.T) {
	f := NewTicketmasterFetcher(nil, "", "")
	_, err := f.Search(context.Background(), domain.ExternalSearchQuery{})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

const seatGeekBody = `{
  "events": [
    {
      "id": 4242,
      "title": "Rangers vs Stars",
      "datetime_utc": "2025-09-10T00:30:00",
      "enddatetime_utc": "2025-09-10T03:00:00",
      "url": "https://seatgeek.example.com/4242",
      "type": "nhl",
      "taxonomies": [{"name": "sports"}, {"name": "hockey"}],
      "performers": [{"image": "https://img.example.com/p.jpg"}],
      "venue": {"name": "Arena", "address": "100 Ice Way", "extended_address": "Dallas, TX 75201", "city": "Dallas", "state": "TX"},
      "stats": {"lowest_price": 40, "highest_price": 300}
    },
    {"id": 7, "title": "Bad date", "datetime_utc": "soon"}
  ]
}`

func TestSeatGeekFetcher_Search(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/events", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(seatGeekBody))
	}))
	defer srv.Close()

	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	f := NewSeatGeekFetcher(srv.Client(), srv.URL, "sg-client")
	events, err := f.Search(context.Background(), domain.ExternalSearchQuery{
		Provider: domain.ProviderSeatGeek, Query: "rangers", Location: "Dallas", DateTo: &to,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sg-client"}, gotQuery["client_id"])
	assert.Equal(t, []string{"20"}, gotQuery["per_page"])
	assert.Equal(t, []string{"rangers"}, gotQuery["q"])
	assert.Equal(t, []string{"Dallas"}, gotQuery["venue.city"])
	assert.Equal(t, []string{"2025-09-30T00:00:00"}, gotQuery["datetime_utc.lte"])

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "4242", ev.ExternalID)
	assert.Equal(t, domain.ProviderSeatGeek, ev.Provider)
	assert.Equal(t, time.Date(2025, 9, 10, 0, 30, 0, 0, time.UTC), ev.StartTime)
	require.NotNil(t, ev.EndTime)
	assert.Equal(t, time.Date(2025, 9, 10, 3, 0, 0, 0, time.UTC), *ev.EndTime)
	assert.Equal(t, "100 Ice Way, Dallas, TX 75201", ev.VenueAddress)
	assert.Equal(t, "Dallas, TX", ev.Location)
	assert.Equal(t, []string{"sports", "hockey"}, ev.Tags)
	assert.Equal(t, "40.00 - 300.00 USD", ev.PriceRange)
	assert.Equal(t, "nhl", ev.Category)
}

func TestFetchers_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason string
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal secret stack trace", http.StatusBadGateway)
			},
			wantReason: "provider returned status 502",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantReason: "malformed provider response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			for _, f := range []domain.ExternalEventFetcher{
				NewTicketmasterFetcher(srv.Client(), srv.URL, "k"),
				NewSeatGeekFetcher(srv.Client(), srv.URL, "c"),
			} {
				_, err := f.Search(context.Background(), domain.ExternalSearchQuery{})
				require.ErrorIs(t, err, domain.ErrUpstream)
				var up *domain.UpstreamError
				require.ErrorAs(t, err, &up)
				assert.Equal(t, tt.wantReason, up.Reason)
				assert.NotContains(t, err.Error(), "stack trace")
			}
		})
	}
}

func TestFetchers_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewSeatGeekFetcher(nil, url, "").Search(context.Background(), domain.ExternalSearchQuery{})
	var up *domain.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "provider unreachable", up.Reason)
}
