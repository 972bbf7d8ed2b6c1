package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Location          string     `json:"location"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	MaxAttendees      *int       `json:"max_attendees"`
	CategoryID        *string    `json:"category_id"`
	TagIDs            []string   `json:"tag_ids"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
}

// Validate implements Validator.
func (req CreateEventRequest) Validate() []string {
	var errs []string
	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs = append(errs, "title is required")
	} else if len([]rune(title)) > domain.MaxEventTitleLength {
		errs = append(errs, "title must be at most 200 characters")
	}
	if strings.TrimSpace(req.Location) == "" {
		errs = append(errs, "location is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		errs = append(errs, "start_time and end_time are required")
	} else if !req.EndTime.After(*req.StartTime) {
		errs = append(errs, "end_time must be after start_time")
	}
	if req.MaxAttendees != nil && *req.MaxAttendees < 1 {
		errs = append(errs, "max_attendees must be at least 1")
	}
	if req.CategoryID != nil && *req.CategoryID != "" && !helpers.ValidUUID(*req.CategoryID) {
		errs = append(errs, "category_id must be a valid UUID")
	}
	errs = append(errs, validateTagIDs(req.TagIDs)...)
	return errs
}

// UpdateEventRequest is the request body for PUT and PATCH /events/{eventID}. All fields optional;
// omitted fields are unchanged. tag_ids replaces the tag set, category_id "" clears the category
// and max_attendees 0 removes the capacity limit.
type UpdateEventRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Location          *string    `json:"location"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	MaxAttendees      *int       `json:"max_attendees"`
	CategoryID        *string    `json:"category_id"`
	TagIDs            *[]string  `json:"tag_ids"`
	IsRecurring       *bool      `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern"`
}

// Validate implements Validator. Start and end ordering is checked by the service against merged values.
func (req UpdateEventRequest) Validate() []string {
	var errs []string
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			errs = append(errs, "title cannot be blank")
		} else if len([]rune(title)) > domain.MaxEventTitleLength {
			errs = append(errs, "title must be at most 200 characters")
		}
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		errs = append(errs, "end_time must be after start_time")
	}
	if req.MaxAttendees != nil && *req.MaxAttendees < 0 {
		errs = append(errs, "max_attendees must be at least 1")
	}
	if req.CategoryID != nil && *req.CategoryID != "" && !helpers.ValidUUID(*req.CategoryID) {
		errs = append(errs, "category_id must be a valid UUID")
	}
	if req.TagIDs != nil {
		errs = append(errs, validateTagIDs(*req.TagIDs)...)
	}
	return errs
}

func validateTagIDs(ids []string) []string {
	for _, id := range ids {
		if !helpers.ValidUUID(id) {
			return []string{"tag_ids must contain valid UUIDs"}
		}
	}
	return nil
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListData is the paginated event list payload.
type EventListData struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// EventListSuccessResponse is the success response envelope for GET /events (200).
type EventListSuccessResponse struct {
	Data  EventListData     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AttendeeListSuccessResponse is the success response envelope for attendee lists (200).
type AttendeeListSuccessResponse struct {
	Data  []*domain.Attendee `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventStatsSuccessResponse is the success response envelope for GET /events/{eventID}/stats (200).
type EventStatsSuccessResponse struct {
	Data  *domain.EventStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventInsightsSuccessResponse is the success response envelope for GET /events/{eventID}/insights (200).
type EventInsightsSuccessResponse struct {
	Data  *domain.EventInsights `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Public, paginated event listing. Default order is start_time descending.
// @Tags events
// @Produce json
// @Param q query string false "Search in title, description and location"
// @Param category_id query string false "Category ID (UUID)"
// @Param tag_ids query string false "Comma separated tag IDs; any match"
// @Param date_from query string false "Earliest start (RFC 3339 or YYYY-MM-DD)"
// @Param date_to query string false "Latest start (RFC 3339 or YYYY-MM-DD)"
// @Param location query string false "Location contains"
// @Param organizer_id query string false "Creator user ID (UUID)"
// @Param is_recurring query bool false "Recurring events only"
// @Param upcoming query bool false "Only events that have not ended"
// @Param sort_by query string false "start_time, title, popularity or created_at"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONList(w, events, params.Page, params.PageSize, total)
}

func parseEventFilter(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if v := q.Get("category_id"); v != "" {
		if !helpers.ValidUUID(v) {
			return filter, domain.Invalid("category_id must be a valid UUID")
		}
		filter.CategoryID = v
	}
	if v := q.Get("organizer_id"); v != "" {
		if !helpers.ValidUUID(v) {
			return filter, domain.Invalid("organizer_id must be a valid UUID")
		}
		filter.OrganizerID = v
	}
	var err error
	if filter.TagIDs, err = helpers.QueryUUIDs(r, "tag_ids"); err != nil {
		return filter, err
	}
	if filter.DateFrom, err = helpers.QueryTime(r, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = helpers.QueryTime(r, "date_to"); err != nil {
		return filter, err
	}
	if filter.IsRecurring, err = helpers.QueryBool(r, "is_recurring"); err != nil {
		return filter, err
	}
	upcoming, err := helpers.QueryBool(r, "upcoming")
	if err != nil {
		return filter, err
	}
	if upcoming != nil && *upcoming {
		filter.Timing = domain.TimingUpcoming
	}
	sortBy, ok := domain.ParseEventSortField(q.Get("sort_by"))
	if !ok {
		return filter, domain.Invalid("sort_by must be one of start_time, title, popularity, created_at")
	}
	filter.SortBy = sortBy
	switch strings.ToLower(q.Get("sort_order")) {
	case "", "desc":
		filter.Descending = true
	case "asc":
	default:
		return filter, domain.Invalid("sort_order must be asc or desc")
	}
	return filter, nil
}

// CreateEvent godoc
// @Summary Create an event
// @Description Organizers and admins only. The caller becomes the event owner.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	in := domain.EventInput{
		Title:             req.Title,
		Description:       req.Description,
		Location:          req.Location,
		StartTime:         *req.StartTime,
		EndTime:           *req.EndTime,
		MaxAttendees:      req.MaxAttendees,
		TagIDs:            req.TagIDs,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		in.CategoryID = req.CategoryID
	}
	event, err := c.Service.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner or admin. PUT and PATCH both apply only the supplied fields.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Update(r.Context(), middleware.UserFromContext(r.Context()), eventID, domain.EventPatch{
		Title:             req.Title,
		Description:       req.Description,
		Location:          req.Location,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		MaxAttendees:      req.MaxAttendees,
		CategoryID:        req.CategoryID,
		TagIDs:            req.TagIDs,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	})
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner or admin. RSVPs and reviews of the event are removed with it.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), middleware.UserFromContext(r.Context()), eventID); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAttendees godoc
// @Summary List event attendees
// @Description Authenticated callers see going attendees; the owner and admins see every RSVP with email and note.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.AttendeeListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees [get]
func (c *EventController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	attendees, err := c.Service.Attendees(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// GetStats godoc
// @Summary Get event statistics
// @Description Basic counts for authenticated callers; analytics are added for the owner and admins.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventStatsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/stats [get]
func (c *EventController) GetStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	stats, err := c.Service.Stats(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// GetInsights godoc
// @Summary Get event insights
// @Description RSVP breakdown and review analysis. Owner or admin.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventInsightsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/insights [get]
func (c *EventController) GetInsights(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	insights, err := c.Service.Insights(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, insights)
}
