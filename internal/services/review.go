package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/access"
	"eventbooking/internal/domain"
)

type reviewService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	reviewRepo     domain.ReviewRepository
	tx             domain.Transactor
	contextTimeout time.Duration
	now            func() time.Time
}

func NewReviewService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	reviewRepo domain.ReviewRepository,
	tx domain.Transactor,
	timeout time.Duration,
) domain.ReviewService {
	return &reviewService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		reviewRepo:     reviewRepo,
		tx:             tx,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// Create stores a review for a past event the caller attended. A second review for
// the same event is a conflict.
func (s *reviewService) Create(ctx context.Context, actor *domain.User, eventID string, rating int, comment string) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.CreateReview); err != nil {
		return nil, err
	}
	if !domain.ValidRating(rating) {
		return nil, domain.ErrInvalidRating
	}

	var review *domain.Review
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		ev, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		ev.Derive(now)
		if !ev.IsPast {
			return domain.ErrReviewNotEligible
		}
		rsvp, err := s.rsvpRepo.GetByUserAndEvent(ctx, actor.ID, eventID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && rsvp.Status != domain.RSVPGoing) {
			return domain.ErrReviewNotEligible
		}
		if err != nil {
			return err
		}
		if _, err := s.reviewRepo.GetByUserAndEvent(ctx, actor.ID, eventID); err == nil {
			return domain.ErrDuplicateReview
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		review = &domain.Review{
			UserID:    actor.ID,
			Username:  actor.Username,
			EventID:   eventID,
			Rating:    rating,
			Comment:   sanitize(comment),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.reviewRepo.Create(ctx, review)
	})
	if err != nil {
		return nil, wrapStore("create review", err)
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor *domain.User, reviewID string, rating *int, comment *string) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, wrapStore("get review", err)
	}
	if review.UserID != actor.ID {
		return nil, domain.ErrForbidden
	}
	if rating != nil {
		if !domain.ValidRating(*rating) {
			return nil, domain.ErrInvalidRating
		}
		review.Rating = *rating
	}
	if comment != nil {
		review.Comment = sanitize(*comment)
	}
	review.UpdatedAt = s.now()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, wrapStore("update review", err)
	}
	return review, nil
}

// Delete removes a review. Authors and admins may delete.
func (s *reviewService) Delete(ctx context.Context, actor *domain.User, reviewID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil {
		return domain.ErrUnauthenticated
	}
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return wrapStore("get review", err)
	}
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return wrapStore("delete review", s.reviewRepo.Delete(ctx, reviewID))
}

func (s *reviewService) ListForEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Review, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, 0, wrapStore("get event", err)
	}
	reviews, total, err := s.reviewRepo.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func (s *reviewService) ListMine(ctx context.Context, actor *domain.User) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.CreateReview); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
