package access

import (
	"testing"

	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	attendee  = &domain.User{ID: "u-attendee"}
	organizer = &domain.User{ID: "u-org", IsOrganizer: true}
	otherOrg  = &domain.User{ID: "u-org-2", IsOrganizer: true}
	staff     = &domain.User{ID: "u-staff", IsStaff: true}
	superuser = &domain.User{ID: "u-root", IsSuperuser: true, IsOrganizer: true}
	ownEvent  = &domain.Event{ID: "ev-1", CreatedBy: "u-org"}
)

func TestResolve(t *testing.T) {
	assert.Equal(t, Public, Resolve(nil))
	assert.Equal(t, Authenticated, Resolve(attendee))
	assert.Equal(t, Organizer, Resolve(organizer))
	assert.Equal(t, Admin, Resolve(staff))
	assert.Equal(t, Admin, Resolve(superuser))
}

func TestForEvent(t *testing.T) {
	assert.Equal(t, Organizer, ForEvent(organizer, ownEvent))
	assert.Equal(t, Authenticated, ForEvent(otherOrg, ownEvent), "organizer rights are scoped to own events")
	assert.Equal(t, Authenticated, ForEvent(organizer, nil))
	assert.Equal(t, Admin, ForEvent(staff, ownEvent))
	assert.Equal(t, Authenticated, ForEvent(attendee, ownEvent))
	assert.Equal(t, Public, ForEvent(nil, ownEvent))
}

func TestAuthorize_Matrix(t *testing.T) {
	tests := []struct {
		op      Operation
		allowed map[Tier]bool
	}{
		{ViewCatalog, map[Tier]bool{Public: true, Authenticated: true, Organizer: true, Admin: true}},
		{ViewAttendees, map[Tier]bool{Public: false, Authenticated: true, Organizer: true, Admin: true}},
		{ViewEventStats, map[Tier]bool{Public: false, Authenticated: true, Organizer: true, Admin: true}},
		{ManageEvent, map[Tier]bool{Public: false, Authenticated: false, Organizer: true, Admin: true}},
		{CreateReview, map[Tier]bool{Public: false, Authenticated: true, Organizer: true, Admin: true}},
		{ManageRSVP, map[Tier]bool{Public: false, Authenticated: true, Organizer: true, Admin: true}},
		{ImportExternal, map[Tier]bool{Public: false, Authenticated: false, Organizer: true, Admin: true}},
		{ViewAdminDashboard, map[Tier]bool{Public: false, Authenticated: false, Organizer: false, Admin: true}},
		{ManageTaxonomy, map[Tier]bool{Public: false, Authenticated: false, Organizer: false, Admin: true}},
	}
	for _, tt := range tests {
		for tier, want := range tt.allowed {
			t.Run(string(tt.op)+"/"+tier.String(), func(t *testing.T) {
				err := Authorize(tier, tt.op)
				if want {
					require.NoError(t, err)
					return
				}
				if tier == Public {
					assert.ErrorIs(t, err, domain.ErrUnauthenticated)
				} else {
					assert.ErrorIs(t, err, domain.ErrForbidden)
				}
			})
		}
	}
}

func TestAllowed_UnknownOperation(t *testing.T) {
	assert.False(t, Allowed(Admin, Operation("launch_rockets")))
}

func TestVisibility(t *testing.T) {
	assert.Equal(t, AttendeesNone, AttendeeVisibility(Public))
	assert.Equal(t, AttendeesGoingOnly, AttendeeVisibility(Authenticated))
	assert.Equal(t, AttendeesFull, AttendeeVisibility(Organizer))
	assert.Equal(t, AttendeesFull, AttendeeVisibility(Admin))

	assert.Equal(t, StatsNone, StatsDetail(Public))
	assert.Equal(t, StatsBasic, StatsDetail(Authenticated))
	assert.Equal(t, StatsAnalytics, StatsDetail(Organizer))
	assert.Equal(t, StatsAnalytics, StatsDetail(Admin))
}
