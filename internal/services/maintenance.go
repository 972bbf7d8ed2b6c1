package services

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/domain"
)

type maintenanceService struct {
	eventRepo    domain.EventRepository
	externalRepo domain.ExternalEventRepository
	retention    time.Duration
	now          func() time.Time
}

// NewMaintenanceService returns the periodic repair jobs. retention is how long an
// un-imported external record is kept after its last fetch.
func NewMaintenanceService(eventRepo domain.EventRepository, externalRepo domain.ExternalEventRepository, retention time.Duration) domain.MaintenanceService {
	return &maintenanceService{
		eventRepo:    eventRepo,
		externalRepo: externalRepo,
		retention:    retention,
		now:          time.Now,
	}
}

func (s *maintenanceService) RepairEventTimes(ctx context.Context) (int64, error) {
	n, err := s.eventRepo.RepairEndTimes(ctx, DefaultEventDuration)
	if err != nil {
		return 0, fmt.Errorf("repair event times: %w", err)
	}
	return n, nil
}

func (s *maintenanceService) PurgeStaleExternalEvents(ctx context.Context) (int64, error) {
	n, err := s.externalRepo.PurgeStale(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("purge external events: %w", err)
	}
	return n, nil
}
