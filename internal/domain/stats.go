package domain

import (
	"context"
	"time"
)

// EventStats are the per-event counts. Analytics is set only for the owner and admins.
// swagger:model EventStats
type EventStats struct {
	EventID         string          `json:"event_id"`
	TotalRSVPs      int             `json:"total_rsvps"`
	GoingCount      int             `json:"going_count"`
	InterestedCount int             `json:"interested_count"`
	CancelledCount  int             `json:"cancelled_count"`
	AvailableSpots  *int            `json:"available_spots"`
	IsFull          bool            `json:"is_full"`
	AverageRating   *float64        `json:"average_rating"`
	ReviewCount     int             `json:"review_count"`
	Analytics       *EventAnalytics `json:"analytics,omitempty"`
}

// EventAnalytics holds trend and capacity figures.
type EventAnalytics struct {
	CapacityUtilization *float64     `json:"capacity_utilization"`
	RSVPsLast7Days      int          `json:"rsvps_last_7_days"`
	DailyRSVPs          []DailyCount `json:"daily_rsvps"`
}

// EventInsights is the organizer view of one event.
// swagger:model EventInsights
type EventInsights struct {
	EventID        string             `json:"event_id"`
	Title          string             `json:"title"`
	RSVPBreakdown  map[RSVPStatus]int `json:"rsvp_breakdown"`
	ReviewAnalysis ReviewSummary      `json:"review_analysis"`
	TotalRSVPs     int                `json:"total_rsvps"`
	AvailableSpots *int               `json:"available_spots"`
	IsFull         bool               `json:"is_full"`
}

// EventPerformance ranks an event by RSVP volume.
type EventPerformance struct {
	EventID         string    `json:"event_id"`
	Title           string    `json:"title"`
	StartTime       time.Time `json:"start_time"`
	RSVPCount       int       `json:"rsvp_count"`
	GoingCount      int       `json:"going_count"`
	InterestedCount int       `json:"interested_count"`
	ReviewCount     int       `json:"review_count"`
	AverageRating   *float64  `json:"average_rating"`
}

// CategoryPerformance aggregates an organizer's events per category.
type CategoryPerformance struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	EventCount   int     `json:"event_count"`
	RSVPCount    int     `json:"rsvp_count"`
}

// OrganizerDashboard summarizes an organizer's own events.
// swagger:model OrganizerDashboard
type OrganizerDashboard struct {
	TotalEvents         int                   `json:"total_events"`
	UpcomingEvents      int                   `json:"upcoming_events"`
	PastEvents          int                   `json:"past_events"`
	EventsThisMonth     int                   `json:"events_this_month"`
	TotalRSVPs          int                   `json:"total_rsvps"`
	RSVPsThisMonth      int                   `json:"rsvps_this_month"`
	TopEvents           []EventPerformance    `json:"top_performing_events"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
}

// UsageCount is a name with the number of events using it.
type UsageCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PlatformTotals are the admin headline counts.
type PlatformTotals struct {
	TotalUsers       int `json:"total_users"`
	TotalEvents      int `json:"total_events"`
	TotalRSVPs       int `json:"total_rsvps"`
	TotalReviews     int `json:"total_reviews"`
	TotalCategories  int `json:"total_categories"`
	TotalTags        int `json:"total_tags"`
	ActiveOrganizers int `json:"active_organizers"`
}

// AdminDashboard is the platform-wide overview.
// swagger:model AdminDashboard
type AdminDashboard struct {
	PlatformTotals
	CategoryDistribution []UsageCount `json:"category_distribution"`
	RecentEvents         []*Event     `json:"recent_events"`
	RecentRSVPs          []*RSVP      `json:"recent_rsvps"`
}

// OrganizerSummary ranks organizers by events created.
type OrganizerSummary struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	EventCount int    `json:"event_count"`
}

// UserAnalytics summarizes the user base.
// swagger:model UserAnalytics
type UserAnalytics struct {
	TotalUsers    int                `json:"total_users"`
	Organizers    int                `json:"organizers"`
	VerifiedUsers int                `json:"verified_users"`
	ActiveUsers   int                `json:"active_users"`
	TopOrganizers []OrganizerSummary `json:"top_organizers"`
}

// StatsRepository runs the aggregate queries behind the dashboards.
type StatsRepository interface {
	OrganizerOverview(ctx context.Context, organizerID string, now, since time.Time) (*OrganizerDashboard, error)
	TopEvents(ctx context.Context, organizerID string, limit int) ([]EventPerformance, error)
	CategoryPerformance(ctx context.Context, organizerID string) ([]CategoryPerformance, error)
	PlatformTotals(ctx context.Context) (*PlatformTotals, error)
	RecentRSVPs(ctx context.Context, limit int) ([]*RSVP, error)
	UserAnalytics(ctx context.Context) (*UserAnalytics, error)
	TopOrganizers(ctx context.Context, limit int) ([]OrganizerSummary, error)
}

// DashboardService serves organizer and admin dashboards.
type DashboardService interface {
	Organizer(ctx context.Context, actor *User) (*OrganizerDashboard, error)
	OrganizerEvents(ctx context.Context, actor *User, timing EventTiming, params PaginationParams) ([]*Event, int, error)
	// EventAttendees is the full attendee list of an event the caller owns (or any event for admins).
	EventAttendees(ctx context.Context, actor *User, eventID string) ([]*Attendee, error)
	Admin(ctx context.Context, actor *User) (*AdminDashboard, error)
	UserAnalytics(ctx context.Context, actor *User) (*UserAnalytics, error)
}

// MaintenanceService runs periodic data repairs.
type MaintenanceService interface {
	RepairEventTimes(ctx context.Context) (int64, error)
	PurgeStaleExternalEvents(ctx context.Context) (int64, error)
}
