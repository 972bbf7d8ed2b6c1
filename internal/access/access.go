// Package access resolves the privilege tier of a caller and decides which operations
// that tier may perform. It holds no state and performs no I/O.
package access

import "eventbooking/internal/domain"

// Tier is a privilege level. Higher tiers include every right of lower ones.
type Tier int

const (
	Public Tier = iota
	Authenticated
	Organizer
	Admin
)

func (t Tier) String() string {
	switch t {
	case Authenticated:
		return "authenticated"
	case Organizer:
		return "organizer"
	case Admin:
		return "admin"
	}
	return "public"
}

// Resolve maps a caller to its tier. A nil user is Public.
func Resolve(u *domain.User) Tier {
	switch {
	case u == nil:
		return Public
	case u.IsAdmin():
		return Admin
	case u.IsOrganizer:
		return Organizer
	}
	return Authenticated
}

// ForEvent resolves the tier of u with respect to ev. Organizer rights are object scoped:
// an organizer who did not create ev is treated as Authenticated.
func ForEvent(u *domain.User, ev *domain.Event) Tier {
	t := Resolve(u)
	if t == Organizer && (ev == nil || !ev.OwnedBy(u.ID)) {
		return Authenticated
	}
	return t
}

// Operation is a guarded action.
type Operation string

const (
	ViewCatalog            Operation = "view_catalog"
	ViewAttendees          Operation = "view_attendees"
	ViewEventStats         Operation = "view_event_stats"
	ViewEventInsights      Operation = "view_event_insights"
	ManageEvent            Operation = "manage_event"
	CreateReview           Operation = "create_review"
	ManageRSVP             Operation = "manage_rsvp"
	SearchExternal         Operation = "search_external"
	ImportExternal         Operation = "import_external"
	ViewOrganizerDashboard Operation = "view_organizer_dashboard"
	ViewAdminDashboard     Operation = "view_admin_dashboard"
	ManageTaxonomy         Operation = "manage_taxonomy"
)

// minimum is the lowest tier allowed to perform each operation. For event-scoped
// operations the tier must come from ForEvent.
var minimum = map[Operation]Tier{
	ViewCatalog:            Public,
	ViewAttendees:          Authenticated,
	ViewEventStats:         Authenticated,
	ViewEventInsights:      Organizer,
	ManageEvent:            Organizer,
	CreateReview:           Authenticated,
	ManageRSVP:             Authenticated,
	SearchExternal:         Authenticated,
	ImportExternal:         Organizer,
	ViewOrganizerDashboard: Organizer,
	ViewAdminDashboard:     Admin,
	ManageTaxonomy:         Admin,
}

// Allowed reports whether tier t may perform op. Unknown operations are denied.
func Allowed(t Tier, op Operation) bool {
	need, ok := minimum[op]
	return ok && t >= need
}

// Authorize returns nil when t may perform op. A denied Public caller gets
// domain.ErrUnauthenticated; any other denial is domain.ErrForbidden.
func Authorize(t Tier, op Operation) error {
	if Allowed(t, op) {
		return nil
	}
	if t == Public {
		return domain.ErrUnauthenticated
	}
	return domain.ErrForbidden
}

// AttendeeView is the part of an attendee list a tier may see.
type AttendeeView int

const (
	AttendeesNone AttendeeView = iota
	AttendeesGoingOnly
	AttendeesFull
)

// AttendeeVisibility returns the attendee list view for an event-scoped tier.
func AttendeeVisibility(t Tier) AttendeeView {
	switch {
	case t >= Organizer:
		return AttendeesFull
	case t == Authenticated:
		return AttendeesGoingOnly
	}
	return AttendeesNone
}

// StatsView is the depth of event statistics a tier may see.
type StatsView int

const (
	StatsNone StatsView = iota
	StatsBasic
	StatsAnalytics
)

// StatsDetail returns the statistics view for an event-scoped tier.
func StatsDetail(t Tier) StatsView {
	switch {
	case t >= Organizer:
		return StatsAnalytics
	case t == Authenticated:
		return StatsBasic
	}
	return StatsNone
}
