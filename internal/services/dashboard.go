package services

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/access"
	"eventbooking/internal/domain"
)

const (
	dashboardWindowDays = 30
	topEventsLimit      = 10
	topOrganizersLimit  = 10
	recentItemsLimit    = 5
)

type dashboardService struct {
	statsRepo      domain.StatsRepository
	eventRepo      domain.EventRepository
	categoryRepo   domain.CategoryRepository
	rsvpRepo       domain.RSVPRepository
	contextTimeout time.Duration
	now            func() time.Time
}

func NewDashboardService(
	statsRepo domain.StatsRepository,
	eventRepo domain.EventRepository,
	categoryRepo domain.CategoryRepository,
	rsvpRepo domain.RSVPRepository,
	timeout time.Duration,
) domain.DashboardService {
	return &dashboardService{
		statsRepo:      statsRepo,
		eventRepo:      eventRepo,
		categoryRepo:   categoryRepo,
		rsvpRepo:       rsvpRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *dashboardService) Organizer(ctx context.Context, actor *domain.User) (*domain.OrganizerDashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewOrganizerDashboard); err != nil {
		return nil, err
	}
	now := s.now()
	d, err := s.statsRepo.OrganizerOverview(ctx, actor.ID, now, now.AddDate(0, 0, -dashboardWindowDays))
	if err != nil {
		return nil, fmt.Errorf("organizer overview: %w", err)
	}
	if d.TopEvents, err = s.statsRepo.TopEvents(ctx, actor.ID, topEventsLimit); err != nil {
		return nil, fmt.Errorf("top events: %w", err)
	}
	if d.CategoryPerformance, err = s.statsRepo.CategoryPerformance(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("category performance: %w", err)
	}
	return d, nil
}

func (s *dashboardService) OrganizerEvents(ctx context.Context, actor *domain.User, timing domain.EventTiming, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewOrganizerDashboard); err != nil {
		return nil, 0, err
	}
	filter := domain.EventFilter{
		OrganizerID: actor.ID,
		Timing:      timing,
		SortBy:      domain.SortByStartTime,
		Descending:  timing == domain.TimingPast,
	}
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list organizer events: %w", err)
	}
	now := s.now()
	for _, ev := range events {
		ev.Derive(now)
	}
	return events, total, nil
}

func (s *dashboardService) EventAttendees(ctx context.Context, actor *domain.User, eventID string) ([]*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewOrganizerDashboard); err != nil {
		return nil, err
	}
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrapStore("get event", err)
	}
	if err := access.Authorize(access.ForEvent(actor, ev), access.ViewEventInsights); err != nil {
		return nil, err
	}
	attendees, err := s.rsvpRepo.ListAttendees(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

func (s *dashboardService) Admin(ctx context.Context, actor *domain.User) (*domain.AdminDashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewAdminDashboard); err != nil {
		return nil, err
	}
	totals, err := s.statsRepo.PlatformTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform totals: %w", err)
	}
	d := &domain.AdminDashboard{PlatformTotals: *totals}
	if d.CategoryDistribution, err = s.categoryRepo.UsageStats(ctx); err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}
	recent, _, err := s.eventRepo.List(ctx,
		domain.EventFilter{SortBy: domain.SortByCreatedAt, Descending: true},
		domain.PaginationParams{Page: 1, PageSize: recentItemsLimit})
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	now := s.now()
	for _, ev := range recent {
		ev.Derive(now)
	}
	d.RecentEvents = recent
	if d.RecentRSVPs, err = s.statsRepo.RecentRSVPs(ctx, recentItemsLimit); err != nil {
		return nil, fmt.Errorf("recent rsvps: %w", err)
	}
	return d, nil
}

func (s *dashboardService) UserAnalytics(ctx context.Context, actor *domain.User) (*domain.UserAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ViewAdminDashboard); err != nil {
		return nil, err
	}
	a, err := s.statsRepo.UserAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("user analytics: %w", err)
	}
	if a.TopOrganizers, err = s.statsRepo.TopOrganizers(ctx, topOrganizersLimit); err != nil {
		return nil, fmt.Errorf("top organizers: %w", err)
	}
	return a, nil
}
