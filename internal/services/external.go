package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"eventbooking/internal/access"
	"eventbooking/internal/cache"
	"eventbooking/internal/domain"
)

type externalEventService struct {
	fetchers       map[domain.Provider]domain.ExternalEventFetcher
	externalRepo   domain.ExternalEventRepository
	eventRepo      domain.EventRepository
	tx             domain.Transactor
	cache          cache.Cache
	cacheTTL       time.Duration
	contextTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewExternalEventService wires provider fetchers, the record cache table and the
// search-result cache. Providers without a fetcher are reported as unsupported.
func NewExternalEventService(
	fetchers []domain.ExternalEventFetcher,
	externalRepo domain.ExternalEventRepository,
	eventRepo domain.EventRepository,
	tx domain.Transactor,
	c cache.Cache,
	cacheTTL time.Duration,
	timeout time.Duration,
	logger *slog.Logger,
) domain.ExternalEventService {
	byProvider := make(map[domain.Provider]domain.ExternalEventFetcher, len(fetchers))
	for _, f := range fetchers {
		byProvider[f.Provider()] = f
	}
	return &externalEventService{
		fetchers:       byProvider,
		externalRepo:   externalRepo,
		eventRepo:      eventRepo,
		tx:             tx,
		cache:          c,
		cacheTTL:       cacheTTL,
		contextTimeout: timeout,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *externalEventService) Search(ctx context.Context, actor *domain.User, q domain.ExternalSearchQuery) ([]*domain.ExternalEvent, error) {
	if err := access.Authorize(access.Resolve(actor), access.SearchExternal); err != nil {
		return nil, err
	}
	fetcher, ok := s.fetchers[q.Provider]
	if !ok {
		return nil, domain.ErrUnsupportedProvider
	}

	key := q.CacheKey()
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var out []*domain.ExternalEvent
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
		s.logger.WarnContext(ctx, "discarding unreadable cached search", "key", key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "search cache unavailable", "err", err)
	}

	// The fetcher owns its HTTP timeout; the store writes get the service timeout.
	found, err := fetcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	for _, e := range found {
		if err := s.externalRepo.Upsert(ctx, e); err != nil {
			return nil, fmt.Errorf("store external event: %w", err)
		}
	}

	if payload, err := json.Marshal(found); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "caching search results failed", "err", err)
		}
	}
	return found, nil
}

func (s *externalEventService) List(ctx context.Context, actor *domain.User, filter domain.ExternalEventFilter, params domain.PaginationParams) ([]*domain.ExternalEvent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.SearchExternal); err != nil {
		return nil, 0, err
	}
	out, total, err := s.externalRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list external events: %w", err)
	}
	return out, total, nil
}

func (s *externalEventService) Get(ctx context.Context, actor *domain.User, id string) (*domain.ExternalEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.SearchExternal); err != nil {
		return nil, err
	}
	e, err := s.externalRepo.GetByID(ctx, id)
	return e, wrapStore("get external event", err)
}

// Import turns a cached record into an event owned by the caller and marks the
// record imported, in one transaction.
func (s *externalEventService) Import(ctx context.Context, actor *domain.User, id string, opts domain.ImportOptions) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := access.Authorize(access.Resolve(actor), access.ImportExternal); err != nil {
		return nil, err
	}
	if opts.MaxAttendees != nil && *opts.MaxAttendees < 1 {
		return nil, domain.ErrInvalidCapacity
	}

	var eventID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ext, err := s.externalRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ext.IsImported {
			return domain.ErrAlreadyImported
		}
		ev := eventFromExternal(ext, actor.ID, opts, s.now())
		if err := validateEvent(ev); err != nil {
			return err
		}
		if err := s.eventRepo.Create(ctx, ev); err != nil {
			return err
		}
		if tags := dedupe(opts.TagIDs); len(tags) > 0 {
			if err := s.eventRepo.SetTags(ctx, ev.ID, tags); err != nil {
				return err
			}
		}
		eventID = ev.ID
		return s.externalRepo.MarkImported(ctx, ext.ID, ev.ID)
	})
	if err != nil {
		return nil, wrapStore("import external event", err)
	}

	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrapStore("get event", err)
	}
	ev.Derive(s.now())
	return ev, nil
}

func eventFromExternal(ext *domain.ExternalEvent, ownerID string, opts domain.ImportOptions, now time.Time) *domain.Event {
	end := ext.StartTime.Add(DefaultEventDuration)
	if ext.EndTime != nil && ext.EndTime.After(ext.StartTime) {
		end = *ext.EndTime
	}
	location := ext.Location
	if ext.VenueName != "" {
		location = strings.TrimSuffix(ext.VenueName+", "+ext.Location, ", ")
	}
	return &domain.Event{
		Title:             truncateRunes(strings.TrimSpace(ext.Title), domain.MaxEventTitleLength),
		Description:       sanitize(ext.Description),
		Location:          location,
		StartTime:         ext.StartTime,
		EndTime:           end,
		CreatedBy:         ownerID,
		MaxAttendees:      opts.MaxAttendees,
		CategoryID:        emptyToNil(opts.CategoryID),
		IsRecurring:       opts.IsRecurring,
		RecurrencePattern: strings.TrimSpace(opts.RecurrencePattern),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
