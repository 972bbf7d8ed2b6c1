package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"eventbooking/internal/access"
	"eventbooking/internal/domain"
)

// DefaultEventDuration is the end-time fallback for imported or repaired events.
const DefaultEventDuration = 2 * time.Hour

const statsWindowDays = 7

type eventService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	reviewRepo     domain.ReviewRepository
	tx             domain.Transactor
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	reviewRepo domain.ReviewRepository,
	tx domain.Transactor,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		reviewRepo:     reviewRepo,
		tx:             tx,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, actor *domain.User, in domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageEvent); err != nil {
		return nil, err
	}
	now := s.now()
	ev := &domain.Event{
		Title:             strings.TrimSpace(in.Title),
		Description:       sanitize(in.Description),
		Location:          strings.TrimSpace(in.Location),
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		CreatedBy:         actor.ID,
		MaxAttendees:      in.MaxAttendees,
		CategoryID:        emptyToNil(in.CategoryID),
		IsRecurring:       in.IsRecurring,
		RecurrencePattern: strings.TrimSpace(in.RecurrencePattern),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.Create(ctx, ev); err != nil {
			return err
		}
		if len(in.TagIDs) > 0 {
			return s.eventRepo.SetTags(ctx, ev.ID, dedupe(in.TagIDs))
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("create event", err)
	}
	return s.load(ctx, ev.ID)
}

func (s *eventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.load(ctx, id)
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	now := s.now()
	for _, ev := range events {
		ev.Derive(now)
	}
	return events, total, nil
}

func (s *eventService) Update(ctx context.Context, actor *domain.User, id string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ev, err := s.eventRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ForEvent(actor, ev), access.ManageEvent); err != nil {
			return err
		}
		applyEventPatch(ev, patch)
		if err := validateEvent(ev); err != nil {
			return err
		}
		if ev.MaxAttendees != nil && *ev.MaxAttendees < ev.CurrentAttendeeCount {
			return domain.ErrCapacityTooLow
		}
		ev.UpdatedAt = s.now()
		if err := s.eventRepo.Update(ctx, ev); err != nil {
			return err
		}
		if patch.TagIDs != nil {
			return s.eventRepo.SetTags(ctx, ev.ID, dedupe(*patch.TagIDs))
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("update event", err)
	}
	return s.load(ctx, id)
}

func (s *eventService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return wrapStore("get event", err)
	}
	if err := access.Authorize(access.ForEvent(actor, ev), access.ManageEvent); err != nil {
		return err
	}
	return wrapStore("delete event", s.eventRepo.Delete(ctx, id))
}

func (s *eventService) Attendees(ctx context.Context, actor *domain.User, id string) ([]*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get event", err)
	}
	tier := access.ForEvent(actor, ev)
	if err := access.Authorize(tier, access.ViewAttendees); err != nil {
		return nil, err
	}

	var status *domain.RSVPStatus
	view := access.AttendeeVisibility(tier)
	if view == access.AttendeesGoingOnly {
		going := domain.RSVPGoing
		status = &going
	}
	attendees, err := s.rsvpRepo.ListAttendees(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if view != access.AttendeesFull {
		for _, a := range attendees {
			a.Email = ""
			a.Note = ""
			a.IsVerified = nil
		}
	}
	return attendees, nil
}

func (s *eventService) Stats(ctx context.Context, actor *domain.User, id string) (*domain.EventStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tier := access.ForEvent(actor, ev)
	if err := access.Authorize(tier, access.ViewEventStats); err != nil {
		return nil, err
	}
	counts, err := s.rsvpRepo.StatusCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rsvp counts: %w", err)
	}
	stats := &domain.EventStats{
		EventID:         ev.ID,
		GoingCount:      counts[domain.RSVPGoing],
		InterestedCount: counts[domain.RSVPInterested],
		CancelledCount:  counts[domain.RSVPCancelled],
		AvailableSpots:  ev.AvailableSpots,
		IsFull:          ev.IsFull,
		AverageRating:   ev.AverageRating,
		ReviewCount:     ev.ReviewCount,
	}
	stats.TotalRSVPs = stats.GoingCount + stats.InterestedCount + stats.CancelledCount

	if access.StatsDetail(tier) != access.StatsAnalytics {
		return stats, nil
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(statsWindowDays - 1))
	daily, err := s.rsvpRepo.DailyCounts(ctx, id, since)
	if err != nil {
		return nil, fmt.Errorf("daily rsvp counts: %w", err)
	}
	analytics := &domain.EventAnalytics{DailyRSVPs: daily}
	for _, d := range daily {
		analytics.RSVPsLast7Days += d.Count
	}
	if ev.MaxAttendees != nil && *ev.MaxAttendees > 0 {
		pct := math.Round(float64(stats.GoingCount)/float64(*ev.MaxAttendees)*10000) / 100
		analytics.CapacityUtilization = &pct
	}
	stats.Analytics = analytics
	return stats, nil
}

func (s *eventService) Insights(ctx context.Context, actor *domain.User, id string) (*domain.EventInsights, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(access.ForEvent(actor, ev), access.ViewEventInsights); err != nil {
		return nil, err
	}
	counts, err := s.rsvpRepo.StatusCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rsvp counts: %w", err)
	}
	summary, err := s.reviewRepo.Summary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &domain.EventInsights{
		EventID:        ev.ID,
		Title:          ev.Title,
		RSVPBreakdown:  counts,
		ReviewAnalysis: *summary,
		TotalRSVPs:     total,
		AvailableSpots: ev.AvailableSpots,
		IsFull:         ev.IsFull,
	}, nil
}

func (s *eventService) load(ctx context.Context, id string) (*domain.Event, error) {
	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get event", err)
	}
	ev.Derive(s.now())
	return ev, nil
}

func applyEventPatch(ev *domain.Event, p domain.EventPatch) {
	if p.Title != nil {
		ev.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		ev.Description = sanitize(*p.Description)
	}
	if p.Location != nil {
		ev.Location = strings.TrimSpace(*p.Location)
	}
	if p.StartTime != nil {
		ev.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		ev.EndTime = *p.EndTime
	}
	if p.MaxAttendees != nil {
		if *p.MaxAttendees == 0 {
			ev.MaxAttendees = nil
		} else {
			v := *p.MaxAttendees
			ev.MaxAttendees = &v
		}
	}
	if p.CategoryID != nil {
		ev.CategoryID = emptyToNil(p.CategoryID)
	}
	if p.IsRecurring != nil {
		ev.IsRecurring = *p.IsRecurring
	}
	if p.RecurrencePattern != nil {
		ev.RecurrencePattern = strings.TrimSpace(*p.RecurrencePattern)
	}
}

func validateEvent(ev *domain.Event) error {
	switch {
	case ev.Title == "":
		return domain.Invalid("title is required")
	case utf8.RuneCountInString(ev.Title) > domain.MaxEventTitleLength:
		return domain.Invalid(fmt.Sprintf("title must be at most %d characters", domain.MaxEventTitleLength))
	case ev.StartTime.IsZero() || ev.EndTime.IsZero():
		return domain.Invalid("start_time and end_time are required")
	case ev.MaxAttendees != nil && *ev.MaxAttendees < 1:
		return domain.ErrInvalidCapacity
	}
	return domain.ValidateSchedule(ev.StartTime, ev.EndTime)
}

// wrapStore passes domain errors through unchanged and wraps everything else.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthenticated) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func emptyToNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
