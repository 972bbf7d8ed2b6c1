package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID  = "3f1c7a52-9e4b-4c1d-8f2a-6b5e0d9c1a77"
	testReviewID = "8a2d4e6f-1b3c-4d5e-9f70-1a2b3c4d5e6f"
	testTagID    = "c0ffee00-1234-4abc-8def-0123456789ab"
)

var (
	testMember    = &domain.User{ID: "11111111-1111-4111-8111-111111111111", Username: "member", IsActive: true}
	testOrganizer = &domain.User{ID: "22222222-2222-4222-8222-222222222222", Username: "organizer", IsActive: true, IsOrganizer: true}
	testAdmin     = &domain.User{ID: "33333333-3333-4333-8333-333333333333", Username: "admin", IsActive: true, IsStaff: true}
)

// newRequest builds a request with an optional JSON body, path values and authenticated user.
func newRequest(t *testing.T, method, target string, body any, user *domain.User, pathValues map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if user != nil {
		req = req.WithContext(middleware.SetUser(req.Context(), user))
	}
	return req
}

// decodeEnvelope decodes the response envelope, leaving Data as raw JSON for further decoding.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (json.RawMessage, *helpers.APIError) {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env.Data, env.Error
}

func requireErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) *helpers.APIError {
	t.Helper()
	require.Equal(t, status, rr.Code)
	_, apiErr := decodeEnvelope(t, rr)
	require.NotNil(t, apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	registerErr     error
	loginErr        error
	loginResult     *domain.LoginResult
	refreshErr      error
	verifyErr       error
	resendErr       error
	resetErr        error
	checkResetErr   error
	checkResetUser  *domain.User
	confirmErr      error
	available       bool
	availableErr    error
	lastRegister    domain.RegisterInput
	lastIdentifier  string
	lastResendEmail string
	lastResetEmail  string
	lastNewPassword string
}

func (f *fakeAuthService) Register(_ context.Context, in domain.RegisterInput) (*domain.User, error) {
	f.lastRegister = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: testMember.ID, Username: in.Username, Email: in.Email, IsOrganizer: in.IsOrganizer}, nil
}

func (f *fakeAuthService) Login(_ context.Context, identifier, _ string) (*domain.LoginResult, error) {
	f.lastIdentifier = identifier
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAuthService) Refresh(_ context.Context, _ string) (string, error) {
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return "new-access", nil
}

func (f *fakeAuthService) VerifyEmail(_ context.Context, _, _, _ string) (*domain.User, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &domain.User{ID: testMember.ID, IsActive: true, EmailVerified: true}, nil
}

func (f *fakeAuthService) ResendVerification(_ context.Context, email string) error {
	f.lastResendEmail = email
	return f.resendErr
}

func (f *fakeAuthService) RequestPasswordReset(_ context.Context, email string) error {
	f.lastResetEmail = email
	return f.resetErr
}

func (f *fakeAuthService) CheckPasswordReset(_ context.Context, _, _, _ string) (*domain.User, error) {
	if f.checkResetErr != nil {
		return nil, f.checkResetErr
	}
	return f.checkResetUser, nil
}

func (f *fakeAuthService) ConfirmPasswordReset(_ context.Context, _, _, _, newPassword string) error {
	f.lastNewPassword = newPassword
	return f.confirmErr
}

func (f *fakeAuthService) EmailAvailable(_ context.Context, _ string) (bool, error) {
	return f.available, f.availableErr
}

// fakeUserService implements domain.UserService.
type fakeUserService struct {
	updateErr error
	deleteErr error
	lastPatch domain.ProfilePatch
	deletedID string
}

func (f *fakeUserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (f *fakeUserService) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := &domain.User{ID: id}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	return u, nil
}

func (f *fakeUserService) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

// fakeEventService implements domain.EventService.
type fakeEventService struct {
	err         error
	event       *domain.Event
	events      []*domain.Event
	total       int
	attendees   []*domain.Attendee
	stats       *domain.EventStats
	insights    *domain.EventInsights
	lastActor   *domain.User
	lastInput   domain.EventInput
	lastPatch   domain.EventPatch
	lastFilter  domain.EventFilter
	lastParams  domain.PaginationParams
	lastEventID string
}

func (f *fakeEventService) Create(_ context.Context, actor *domain.User, in domain.EventInput) (*domain.Event, error) {
	f.lastActor, f.lastInput = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: testEventID, Title: in.Title, CreatedBy: actor.ID}, nil
}

func (f *fakeEventService) Get(_ context.Context, id string) (*domain.Event, error) {
	f.lastEventID = id
	return f.event, f.err
}

func (f *fakeEventService) List(_ context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastFilter, f.lastParams = filter, params
	return f.events, f.total, f.err
}

func (f *fakeEventService) Update(_ context.Context, actor *domain.User, id string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastActor, f.lastEventID, f.lastPatch = actor, id, patch
	return f.event, f.err
}

func (f *fakeEventService) Delete(_ context.Context, actor *domain.User, id string) error {
	f.lastActor, f.lastEventID = actor, id
	return f.err
}

func (f *fakeEventService) Attendees(_ context.Context, actor *domain.User, id string) ([]*domain.Attendee, error) {
	f.lastActor, f.lastEventID = actor, id
	return f.attendees, f.err
}

func (f *fakeEventService) Stats(_ context.Context, actor *domain.User, id string) (*domain.EventStats, error) {
	f.lastActor, f.lastEventID = actor, id
	return f.stats, f.err
}

func (f *fakeEventService) Insights(_ context.Context, actor *domain.User, id string) (*domain.EventInsights, error) {
	f.lastActor, f.lastEventID = actor, id
	return f.insights, f.err
}

// fakeRSVPService implements domain.RSVPService.
type fakeRSVPService struct {
	err        error
	rsvp       *domain.RSVP
	created    bool
	list       []*domain.RSVP
	lastStatus domain.RSVPStatus
	lastNote   string
	lastActor  *domain.User
}

func (f *fakeRSVPService) Respond(_ context.Context, actor *domain.User, eventID string, status domain.RSVPStatus, note string) (*domain.RSVP, bool, error) {
	f.lastActor, f.lastStatus, f.lastNote = actor, status, note
	if f.err != nil {
		return nil, false, f.err
	}
	return &domain.RSVP{UserID: actor.ID, EventID: eventID, Status: status, Note: note}, f.created, nil
}

func (f *fakeRSVPService) Cancel(_ context.Context, actor *domain.User, eventID string) (*domain.RSVP, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RSVP{UserID: actor.ID, EventID: eventID, Status: domain.RSVPCancelled}, nil
}

func (f *fakeRSVPService) StatusFor(_ context.Context, actor *domain.User, _ string) (*domain.RSVP, error) {
	f.lastActor = actor
	return f.rsvp, f.err
}

func (f *fakeRSVPService) MyEvents(_ context.Context, actor *domain.User) ([]*domain.RSVP, error) {
	f.lastActor = actor
	return f.list, f.err
}

func (f *fakeRSVPService) MyRSVPs(_ context.Context, actor *domain.User) ([]*domain.RSVP, error) {
	f.lastActor = actor
	return f.list, f.err
}

// fakeReviewService implements domain.ReviewService.
type fakeReviewService struct {
	err         error
	reviews     []*domain.Review
	total       int
	lastEventID string
	lastRating  *int
	lastComment *string
	lastParams  domain.PaginationParams
}

func (f *fakeReviewService) Create(_ context.Context, actor *domain.User, eventID string, rating int, comment string) (*domain.Review, error) {
	f.lastEventID = eventID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Review{ID: testReviewID, UserID: actor.ID, EventID: eventID, Rating: rating, Comment: comment}, nil
}

func (f *fakeReviewService) Update(_ context.Context, actor *domain.User, reviewID string, rating *int, comment *string) (*domain.Review, error) {
	f.lastRating, f.lastComment = rating, comment
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Review{ID: reviewID, UserID: actor.ID}, nil
}

func (f *fakeReviewService) Delete(_ context.Context, _ *domain.User, _ string) error {
	return f.err
}

func (f *fakeReviewService) ListForEvent(_ context.Context, eventID string, params domain.PaginationParams) ([]*domain.Review, int, error) {
	f.lastEventID, f.lastParams = eventID, params
	return f.reviews, f.total, f.err
}

func (f *fakeReviewService) ListMine(_ context.Context, _ *domain.User) ([]*domain.Review, error) {
	return f.reviews, f.err
}
