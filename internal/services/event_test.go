package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

type catalogFixture struct {
	events  *fakeEventRepo
	rsvps   *fakeRSVPRepo
	reviews *fakeReviewRepo
	tx      *fakeTx
}

func newCatalogFixture() *catalogFixture {
	rsvps := newFakeRSVPRepo()
	reviews := newFakeReviewRepo()
	return &catalogFixture{
		events:  newFakeEventRepo(rsvps, reviews),
		rsvps:   rsvps,
		reviews: reviews,
		tx:      &fakeTx{},
	}
}

func (f *catalogFixture) eventService() *eventService {
	return NewEventService(f.events, f.rsvps, f.reviews, f.tx, testTimeout).(*eventService)
}

func futureEvent(owner string, capacity *int) *domain.Event {
	start := time.Now().Add(24 * time.Hour)
	return &domain.Event{Title: "Meetup", StartTime: start, EndTime: start.Add(2 * time.Hour), CreatedBy: owner, MaxAttendees: capacity}
}

func pastEvent(owner string) *domain.Event {
	start := time.Now().Add(-48 * time.Hour)
	return &domain.Event{Title: "Last week", StartTime: start, EndTime: start.Add(2 * time.Hour), CreatedBy: owner}
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour)
	valid := domain.EventInput{
		Title:        "  Go meetup ",
		Description:  "<b>bold</b><script>alert(1)</script>",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		MaxAttendees: intPtr(10),
		TagIDs:       []string{"t1", "t2", "t1", " "},
	}

	tests := []struct {
		name    string
		actor   *domain.User
		mutate  func(in *domain.EventInput)
		wantErr error
	}{
		{name: "organizer creates", actor: organizer("org-1")},
		{name: "admin creates", actor: admin("adm-1")},
		{name: "anonymous", actor: nil, wantErr: domain.ErrUnauthenticated},
		{name: "plain member", actor: member("u-1"), wantErr: domain.ErrForbidden},
		{
			name:    "end equals start",
			actor:   organizer("org-1"),
			mutate:  func(in *domain.EventInput) { in.EndTime = in.StartTime },
			wantErr: domain.ErrInvalidSchedule,
		},
		{
			name:    "zero capacity",
			actor:   organizer("org-1"),
			mutate:  func(in *domain.EventInput) { in.MaxAttendees = intPtr(0) },
			wantErr: domain.ErrInvalidCapacity,
		},
		{
			name:    "missing title",
			actor:   organizer("org-1"),
			mutate:  func(in *domain.EventInput) { in.Title = "   " },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown category",
			actor:   organizer("org-1"),
			mutate:  func(in *domain.EventInput) { in.CategoryID = strPtr("missing") },
			wantErr: domain.ErrInvalidReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture()
			svc := f.eventService()
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			ev, err := svc.Create(ctx, tt.actor, in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Go meetup", ev.Title)
			assert.Equal(t, "<b>bold</b>", ev.Description)
			assert.Equal(t, tt.actor.ID, ev.CreatedBy)
			assert.Len(t, ev.Tags, 2)
			require.NotNil(t, ev.AvailableSpots)
			assert.Equal(t, 10, *ev.AvailableSpots)
			assert.False(t, ev.IsFull)
			assert.False(t, ev.IsPast)
		})
	}
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("owner patches fields", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := futureEvent("org-1", intPtr(5))
		ev.CategoryID = strPtr("cat-1")
		f.events.add(ev)

		title := "Renamed"
		got, err := svc.Update(ctx, organizer("org-1"), ev.ID, domain.EventPatch{
			Title:        &title,
			MaxAttendees: intPtr(0),
			CategoryID:   strPtr(""),
			TagIDs:       &[]string{"t9"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Nil(t, got.MaxAttendees)
		assert.Nil(t, got.AvailableSpots)
		assert.Nil(t, got.CategoryID)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "t9", got.Tags[0].ID)
	})

	t.Run("tags untouched when omitted", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := f.events.add(futureEvent("org-1", nil))
		require.NoError(t, f.events.SetTags(ctx, ev.ID, []string{"a", "b"}))

		loc := "Berlin"
		got, err := svc.Update(ctx, organizer("org-1"), ev.ID, domain.EventPatch{Location: &loc})
		require.NoError(t, err)
		assert.Equal(t, "Berlin", got.Location)
		assert.Len(t, got.Tags, 2)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := f.events.add(futureEvent("org-1", nil))
		end := ev.StartTime.Add(-time.Minute)

		_, err := svc.Update(ctx, organizer("org-1"), ev.ID, domain.EventPatch{EndTime: &end})
		assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("capacity below going count is rejected", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := f.events.add(futureEvent("org-1", intPtr(5)))
		f.rsvps.put("u-1", ev.ID, domain.RSVPGoing)
		f.rsvps.put("u-2", ev.ID, domain.RSVPGoing)
		f.rsvps.put("u-3", ev.ID, domain.RSVPGoing)
		f.rsvps.put("u-4", ev.ID, domain.RSVPInterested)

		_, err := svc.Update(ctx, organizer("org-1"), ev.ID, domain.EventPatch{MaxAttendees: intPtr(1)})
		assert.ErrorIs(t, err, domain.ErrCapacityTooLow)

		got, err := svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		require.NotNil(t, got.MaxAttendees)
		assert.Equal(t, 5, *got.MaxAttendees)

		got, err = svc.Update(ctx, organizer("org-1"), ev.ID, domain.EventPatch{MaxAttendees: intPtr(3)})
		require.NoError(t, err)
		assert.Equal(t, 3, *got.MaxAttendees)
		assert.True(t, got.IsFull)
	})

	t.Run("other organizer is forbidden", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := f.events.add(futureEvent("org-1", nil))
		title := "Hijack"

		_, err := svc.Update(ctx, organizer("org-2"), ev.ID, domain.EventPatch{Title: &title})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin may edit any event", func(t *testing.T) {
		f := newCatalogFixture()
		svc := f.eventService()
		ev := f.events.add(futureEvent("org-1", nil))
		title := "Moderated"

		got, err := svc.Update(ctx, admin("adm"), ev.ID, domain.EventPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Moderated", got.Title)
	})

	t.Run("missing event", func(t *testing.T) {
		f := newCatalogFixture()
		_, err := f.eventService().Update(ctx, organizer("org-1"), "nope", domain.EventPatch{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := f.eventService()
	ev := f.events.add(futureEvent("org-1", nil))

	assert.ErrorIs(t, svc.Delete(ctx, nil, ev.ID), domain.ErrUnauthenticated)
	assert.ErrorIs(t, svc.Delete(ctx, member("u-1"), ev.ID), domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, organizer("org-2"), ev.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, organizer("org-1"), ev.ID))
	assert.ErrorIs(t, svc.Delete(ctx, organizer("org-1"), ev.ID), domain.ErrNotFound)
}

func TestEventService_Attendees(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := f.eventService()
	ev := f.events.add(futureEvent("org-1", nil))
	f.rsvps.put("u-1", ev.ID, domain.RSVPGoing)
	f.rsvps.put("u-2", ev.ID, domain.RSVPInterested)

	_, err := svc.Attendees(ctx, nil, ev.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	got, err := svc.Attendees(ctx, member("u-3"), ev.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u-1", got[0].UserID)
	assert.Empty(t, got[0].Email)
	assert.Nil(t, got[0].IsVerified)

	// a non-owning organizer gets the member view
	got, err = svc.Attendees(ctx, organizer("org-2"), ev.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Attendees(ctx, organizer("org-1"), ev.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-1@example.com", got[0].Email)
	assert.NotNil(t, got[0].IsVerified)

	_, err = svc.Attendees(ctx, member("u-3"), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := f.eventService()
	ev := f.events.add(futureEvent("org-1", intPtr(4)))
	f.rsvps.put("u-1", ev.ID, domain.RSVPGoing)
	f.rsvps.put("u-2", ev.ID, domain.RSVPInterested)
	f.rsvps.put("u-3", ev.ID, domain.RSVPCancelled)

	_, err := svc.Stats(ctx, nil, ev.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	basic, err := svc.Stats(ctx, member("u-9"), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, basic.TotalRSVPs)
	assert.Equal(t, 1, basic.GoingCount)
	assert.Equal(t, 1, basic.InterestedCount)
	assert.Equal(t, 1, basic.CancelledCount)
	require.NotNil(t, basic.AvailableSpots)
	assert.Equal(t, 3, *basic.AvailableSpots)
	assert.Nil(t, basic.Analytics)

	full, err := svc.Stats(ctx, organizer("org-1"), ev.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Analytics)
	require.NotNil(t, full.Analytics.CapacityUtilization)
	assert.InDelta(t, 25.0, *full.Analytics.CapacityUtilization, 0.001)
	assert.Equal(t, 3, full.Analytics.RSVPsLast7Days)
}

func TestEventService_Insights(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := f.eventService()
	ev := f.events.add(futureEvent("org-1", intPtr(1)))
	f.rsvps.put("u-1", ev.ID, domain.RSVPGoing)
	f.rsvps.put("u-2", ev.ID, domain.RSVPInterested)

	_, err := svc.Insights(ctx, member("u-1"), ev.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Insights(ctx, organizer("org-2"), ev.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.Insights(ctx, organizer("org-1"), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalRSVPs)
	assert.Equal(t, 1, got.RSVPBreakdown[domain.RSVPGoing])
	assert.Equal(t, 0, got.RSVPBreakdown[domain.RSVPCancelled])
	assert.True(t, got.IsFull)
	assert.Equal(t, 0, got.ReviewAnalysis.Count)
}

func TestEventService_ListDerivesFields(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	svc := f.eventService()
	up := f.events.add(futureEvent("org-1", intPtr(1)))
	f.events.add(pastEvent("org-1"))
	f.rsvps.put("u-1", up.ID, domain.RSVPGoing)

	events, total, err := svc.List(ctx, domain.EventFilter{}, domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	byID := map[string]*domain.Event{}
	for _, e := range events {
		byID[e.ID] = e
	}
	assert.True(t, byID[up.ID].IsFull)
	assert.False(t, byID[up.ID].IsPast)
	for id, e := range byID {
		if id != up.ID {
			assert.True(t, e.IsPast)
		}
	}
}
