package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventbooking/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTimeout = 5 * time.Second

// fakeTx serializes transactions, which is what the event row lock gives the real store.
type fakeTx struct {
	mu sync.Mutex
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	getErr    error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrDuplicateUsername
		}
	}
	u.ID = uuid.NewString()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return strings.EqualFold(u.Username, username) })
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range f.byID {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeRSVPRepo implements domain.RSVPRepository for tests.
type fakeRSVPRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.RSVP
	seq  int
}

func newFakeRSVPRepo() *fakeRSVPRepo {
	return &fakeRSVPRepo{rows: make(map[string]*domain.RSVP)}
}

func rsvpKey(userID, eventID string) string { return userID + "|" + eventID }

func (f *fakeRSVPRepo) put(userID, eventID string, status domain.RSVPStatus) {
	_, _ = f.Upsert(context.Background(), &domain.RSVP{UserID: userID, EventID: eventID, Status: status, UpdatedAt: time.Now()})
}

func (f *fakeRSVPRepo) going(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventID == eventID && r.Status == domain.RSVPGoing {
			n++
		}
	}
	return n
}

func (f *fakeRSVPRepo) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[rsvpKey(userID, eventID)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) CountGoingExcluding(ctx context.Context, eventID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventID == eventID && r.UserID != userID && r.Status == domain.RSVPGoing {
			n++
		}
	}
	return n, nil
}

func (f *fakeRSVPRepo) Upsert(ctx context.Context, r *domain.RSVP) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rsvpKey(r.UserID, r.EventID)
	if existing, ok := f.rows[key]; ok {
		existing.Status = r.Status
		existing.Note = r.Note
		existing.UpdatedAt = r.UpdatedAt
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
		return false, nil
	}
	f.seq++
	r.ID = fmt.Sprintf("rsvp-%d", f.seq)
	r.CreatedAt = r.UpdatedAt
	cp := *r
	f.rows[key] = &cp
	return true, nil
}

func (f *fakeRSVPRepo) ListByUser(ctx context.Context, userID string, status *domain.RSVPStatus) ([]*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.RSVP{}
	for _, r := range f.rows {
		if r.UserID == userID && (status == nil || r.Status == *status) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRSVPRepo) ListAttendees(ctx context.Context, eventID string, status *domain.RSVPStatus) ([]*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Attendee{}
	for _, r := range f.rows {
		if r.EventID != eventID || (status != nil && r.Status != *status) {
			continue
		}
		verified := true
		out = append(out, &domain.Attendee{
			UserID:     r.UserID,
			Username:   r.UserID,
			Email:      r.UserID + "@example.com",
			Status:     r.Status,
			Note:       r.Note,
			IsVerified: &verified,
			RSVPDate:   r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeRSVPRepo) StatusCounts(ctx context.Context, eventID string) (map[domain.RSVPStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.RSVPStatus]int{domain.RSVPGoing: 0, domain.RSVPInterested: 0, domain.RSVPCancelled: 0}
	for _, r := range f.rows {
		if r.EventID == eventID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (f *fakeRSVPRepo) DailyCounts(ctx context.Context, eventID string, since time.Time) ([]domain.DailyCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDay := map[time.Time]int{}
	for _, r := range f.rows {
		if r.EventID == eventID && !r.CreatedAt.Before(since) {
			byDay[startOfDay(r.CreatedAt)]++
		}
	}
	out := []domain.DailyCount{}
	for day, n := range byDay {
		out = append(out, domain.DailyCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// fakeEventRepo implements domain.EventRepository for tests. Going counts come from rsvps.
type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[string]*domain.Event
	tags    map[string][]string
	rsvps   *fakeRSVPRepo
	reviews *fakeReviewRepo
	seq     int
	now     time.Time
}

func newFakeEventRepo(rsvps *fakeRSVPRepo, reviews *fakeReviewRepo) *fakeEventRepo {
	return &fakeEventRepo{
		events:  make(map[string]*domain.Event),
		tags:    make(map[string][]string),
		rsvps:   rsvps,
		reviews: reviews,
		now:     time.Now(),
	}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	_ = f.Create(context.Background(), e)
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.CategoryID != nil && *e.CategoryID == "missing" {
		return domain.ErrInvalidReference
	}
	f.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", f.seq)
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) load(id string) (*domain.Event, error) {
	f.mu.Lock()
	e, ok := f.events[id]
	var cp domain.Event
	if ok {
		cp = *e
		cp.Tags = []*domain.Tag{}
		for _, t := range f.tags[id] {
			cp.Tags = append(cp.Tags, &domain.Tag{ID: t, Name: t})
		}
	}
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if f.rsvps != nil {
		cp.CurrentAttendeeCount = f.rsvps.going(id)
	}
	if f.reviews != nil {
		if s, _ := f.reviews.Summary(context.Background(), id); s != nil {
			cp.ReviewCount = s.Count
			cp.AverageRating = s.Average
		}
	}
	return &cp, nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return f.load(id)
}

func (f *fakeEventRepo) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return f.load(id)
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) SetTags(ctx context.Context, eventID string, tagIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tagIDs {
		if t == "missing" {
			return domain.ErrInvalidReference
		}
	}
	f.tags[eventID] = append([]string(nil), tagIDs...)
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	ids := make([]string, 0, len(f.events))
	for id, e := range f.events {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		if filter.OrganizerID != "" && e.CreatedBy != filter.OrganizerID {
			continue
		}
		if filter.Timing == domain.TimingUpcoming && e.EndTime.Before(f.now) {
			continue
		}
		if filter.Timing == domain.TimingPast && !e.EndTime.Before(f.now) {
			continue
		}
		ids = append(ids, id)
	}
	f.mu.Unlock()

	out := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		e, err := f.load(id)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Descending {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	total := len(out)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize == 0 || end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (f *fakeEventRepo) RepairEndTimes(ctx context.Context, fallback time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.events {
		if !e.EndTime.After(e.StartTime) {
			e.EndTime = e.StartTime.Add(fallback)
			n++
		}
	}
	return n, nil
}

// fakeReviewRepo implements domain.ReviewRepository for tests.
type fakeReviewRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Review
	seq  int
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{rows: make(map[string]*domain.Review)}
}

func (f *fakeReviewRepo) Create(ctx context.Context, r *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.UserID == r.UserID && existing.EventID == r.EventID {
			return domain.ErrDuplicateReview
		}
	}
	f.seq++
	r.ID = fmt.Sprintf("rev-%d", f.seq)
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeReviewRepo) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.EventID == eventID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeReviewRepo) Update(ctx context.Context, r *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeReviewRepo) list(match func(*domain.Review) bool) []*domain.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Review{}
	for _, r := range f.rows {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReviewRepo) ListByEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Review, int, error) {
	out := f.list(func(r *domain.Review) bool { return r.EventID == eventID })
	return out, len(out), nil
}

func (f *fakeReviewRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	return f.list(func(r *domain.Review) bool { return r.UserID == userID }), nil
}

func (f *fakeReviewRepo) Summary(ctx context.Context, eventID string) (*domain.ReviewSummary, error) {
	rows := f.list(func(r *domain.Review) bool { return r.EventID == eventID })
	s := &domain.ReviewSummary{Count: len(rows)}
	if len(rows) == 0 {
		return s, nil
	}
	lo, hi, sum := rows[0].Rating, rows[0].Rating, 0
	for _, r := range rows {
		sum += r.Rating
		lo = min(lo, r.Rating)
		hi = max(hi, r.Rating)
	}
	avg := float64(sum) / float64(len(rows))
	s.Average, s.Min, s.Max = &avg, &lo, &hi
	return s, nil
}

// fakeExternalRepo implements domain.ExternalEventRepository for tests.
type fakeExternalRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.ExternalEvent
	seq  int
}

func newFakeExternalRepo() *fakeExternalRepo {
	return &fakeExternalRepo{rows: make(map[string]*domain.ExternalEvent)}
}

func (f *fakeExternalRepo) Upsert(ctx context.Context, e *domain.ExternalEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Provider == e.Provider && existing.ExternalID == e.ExternalID {
			e.ID = existing.ID
			e.IsImported = existing.IsImported
			e.ImportedEventID = existing.ImportedEventID
			cp := *e
			f.rows[e.ID] = &cp
			return nil
		}
	}
	f.seq++
	e.ID = fmt.Sprintf("ext-%d", f.seq)
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeExternalRepo) GetByID(ctx context.Context, id string) (*domain.ExternalEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.rows[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeExternalRepo) GetForUpdate(ctx context.Context, id string) (*domain.ExternalEvent, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeExternalRepo) List(ctx context.Context, filter domain.ExternalEventFilter, params domain.PaginationParams) ([]*domain.ExternalEvent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.ExternalEvent{}
	for _, e := range f.rows {
		if filter.Provider != "" && e.Provider != filter.Provider {
			continue
		}
		if filter.IsImported != nil && e.IsImported != *filter.IsImported {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeExternalRepo) MarkImported(ctx context.Context, id, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.IsImported = true
	e.ImportedEventID = &eventID
	return nil
}

func (f *fakeExternalRepo) PurgeStale(ctx context.Context, fetchedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.rows {
		if !e.IsImported && e.FetchedAt.Before(fetchedBefore) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

// fakeEmailService records what would have been sent.
type fakeEmailService struct {
	mu          sync.Mutex
	activations []*domain.ActivationEmailData
	resets      []*domain.PasswordResetEmailData
	err         error
}

func (f *fakeEmailService) SendActivation(ctx context.Context, data *domain.ActivationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activations = append(f.activations, data)
	return f.err
}

func (f *fakeEmailService) SendPasswordReset(ctx context.Context, data *domain.PasswordResetEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, data)
	return f.err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func organizer(id string) *domain.User {
	return &domain.User{ID: id, Username: id, IsOrganizer: true, IsActive: true}
}

func member(id string) *domain.User {
	return &domain.User{ID: id, Username: id, IsActive: true}
}

func admin(id string) *domain.User {
	return &domain.User{ID: id, Username: id, IsStaff: true, IsActive: true}
}
