package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"eventbooking/internal/access"
	"eventbooking/internal/domain"
)

var errInvalidStatus = domain.Invalid("status must be one of going, interested, cancelled")

type rsvpService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	tx             domain.Transactor
	contextTimeout time.Duration
	now            func() time.Time
}

func NewRSVPService(eventRepo domain.EventRepository, rsvpRepo domain.RSVPRepository, tx domain.Transactor, timeout time.Duration) domain.RSVPService {
	return &rsvpService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		tx:             tx,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// Respond locks the event row, checks capacity against the other callers' going
// RSVPs and upserts the caller's row, all in one transaction.
func (s *rsvpService) Respond(ctx context.Context, actor *domain.User, eventID string, status domain.RSVPStatus, note string) (*domain.RSVP, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageRSVP); err != nil {
		return nil, false, err
	}
	if !status.Valid() {
		return nil, false, errInvalidStatus
	}

	var (
		rsvp    *domain.RSVP
		created bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		ev, err := s.eventRepo.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		ev.Derive(now)
		if status == domain.RSVPGoing && ev.MaxAttendees != nil {
			others, err := s.rsvpRepo.CountGoingExcluding(ctx, eventID, actor.ID)
			if err != nil {
				return err
			}
			if others >= *ev.MaxAttendees {
				return domain.ErrEventFull
			}
		}
		if status != domain.RSVPCancelled && ev.IsPast {
			return domain.ErrEventPast
		}
		rsvp = &domain.RSVP{
			UserID:    actor.ID,
			EventID:   eventID,
			Status:    status,
			Note:      sanitize(note),
			UpdatedAt: now,
		}
		created, err = s.rsvpRepo.Upsert(ctx, rsvp)
		return err
	})
	if err != nil {
		return nil, false, wrapStore("rsvp", err)
	}
	return rsvp, created, nil
}

func (s *rsvpService) Cancel(ctx context.Context, actor *domain.User, eventID string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageRSVP); err != nil {
		return nil, err
	}
	var rsvp *domain.RSVP
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.eventRepo.GetForUpdate(ctx, eventID); err != nil {
			return err
		}
		existing, err := s.rsvpRepo.GetByUserAndEvent(ctx, actor.ID, eventID)
		if err != nil {
			return err
		}
		existing.Status = domain.RSVPCancelled
		existing.UpdatedAt = s.now()
		if _, err := s.rsvpRepo.Upsert(ctx, existing); err != nil {
			return err
		}
		rsvp = existing
		return nil
	})
	if err != nil {
		return nil, wrapStore("cancel rsvp", err)
	}
	return rsvp, nil
}

// StatusFor returns the caller's RSVP for the event, or nil when there is none.
func (s *rsvpService) StatusFor(ctx context.Context, actor *domain.User, eventID string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageRSVP); err != nil {
		return nil, err
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, wrapStore("get event", err)
	}
	rsvp, err := s.rsvpRepo.GetByUserAndEvent(ctx, actor.ID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	return rsvp, nil
}

// MyEvents returns the caller's going RSVPs with their events, soonest first.
func (s *rsvpService) MyEvents(ctx context.Context, actor *domain.User) ([]*domain.RSVP, error) {
	going := domain.RSVPGoing
	rsvps, err := s.mine(ctx, actor, &going)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rsvps, func(i, j int) bool {
		a, b := rsvps[i].Event, rsvps[j].Event
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.StartTime.Before(b.StartTime)
	})
	return rsvps, nil
}

func (s *rsvpService) MyRSVPs(ctx context.Context, actor *domain.User) ([]*domain.RSVP, error) {
	return s.mine(ctx, actor, nil)
}

func (s *rsvpService) mine(ctx context.Context, actor *domain.User, status *domain.RSVPStatus) ([]*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ManageRSVP); err != nil {
		return nil, err
	}
	rsvps, err := s.rsvpRepo.ListByUser(ctx, actor.ID, status)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	if len(rsvps) == 0 {
		return rsvps, nil
	}
	ids := make([]string, len(rsvps))
	for i, r := range rsvps {
		ids[i] = r.EventID
	}
	events, _, err := s.eventRepo.List(ctx, domain.EventFilter{IDs: ids}, domain.PaginationParams{Page: 1, PageSize: len(ids)})
	if err != nil {
		return nil, fmt.Errorf("load rsvp events: %w", err)
	}
	byID := make(map[string]*domain.Event, len(events))
	now := s.now()
	for _, ev := range events {
		ev.Derive(now)
		byID[ev.ID] = ev
	}
	for _, r := range rsvps {
		r.Event = byID[r.EventID]
	}
	return rsvps, nil
}
