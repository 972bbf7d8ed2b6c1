package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// ImportRequest is the request body for POST /external-events/{externalEventID}/import.
// Every field is optional and overrides what the provider supplied.
type ImportRequest struct {
	CategoryID        *string  `json:"category_id"`
	TagIDs            []string `json:"tag_ids"`
	MaxAttendees      *int     `json:"max_attendees"`
	IsRecurring       bool     `json:"is_recurring"`
	RecurrencePattern string   `json:"recurrence_pattern"`
}

// Validate implements Validator.
func (req ImportRequest) Validate() []string {
	var errs []string
	if req.CategoryID != nil && !helpers.ValidUUID(*req.CategoryID) {
		errs = append(errs, "category_id must be a valid UUID")
	}
	if req.MaxAttendees != nil && *req.MaxAttendees < 1 {
		errs = append(errs, "max_attendees must be at least 1")
	}
	errs = append(errs, validateTagIDs(req.TagIDs)...)
	return errs
}

// ExternalEventSuccessResponse is the success response envelope for GET /external-events/{externalEventID} (200).
type ExternalEventSuccessResponse struct {
	Data  *domain.ExternalEvent `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ExternalSearchSuccessResponse is the success response envelope for GET /external-events/search (200).
type ExternalSearchSuccessResponse struct {
	Data  []*domain.ExternalEvent `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ExternalEventListData is the paginated cached-record payload.
type ExternalEventListData struct {
	Items      []*domain.ExternalEvent `json:"items"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// ExternalEventListSuccessResponse is the success response envelope for GET /external-events (200).
type ExternalEventListSuccessResponse struct {
	Data  ExternalEventListData `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type ExternalEventController struct {
	Logger  *slog.Logger
	Service domain.ExternalEventService
}

func NewExternalEventController(logger *slog.Logger, svc domain.ExternalEventService) *ExternalEventController {
	return &ExternalEventController{
		Logger:  logger,
		Service: svc,
	}
}

// Search godoc
// @Summary Search a third-party provider
// @Description Results are stored locally and cached for a short time.
// @Tags external-events
// @Produce json
// @Security BearerAuth
// @Param provider query string false "ticketmaster (default) or seatgeek"
// @Param q query string false "Keyword"
// @Param location query string false "City"
// @Param category query string false "Provider category or type"
// @Param date_from query string false "Earliest start (RFC 3339 or YYYY-MM-DD)"
// @Param date_to query string false "Latest start (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {object} controllers.ExternalSearchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (unsupported provider)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: upstream_error"
// @Router /external-events/search [get]
func (c *ExternalEventController) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("provider")
	if name == "" {
		name = string(domain.ProviderTicketmaster)
	}
	provider, err := domain.ParseProvider(name)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	query := domain.ExternalSearchQuery{
		Provider: provider,
		Query:    strings.TrimSpace(q.Get("q")),
		Location: strings.TrimSpace(q.Get("location")),
		Category: strings.TrimSpace(q.Get("category")),
	}
	if query.DateFrom, err = helpers.QueryTime(r, "date_from"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if query.DateTo, err = helpers.QueryTime(r, "date_to"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	events, err := c.Service.Search(r.Context(), middleware.UserFromContext(r.Context()), query)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListExternalEvents godoc
// @Summary List cached provider records
// @Tags external-events
// @Produce json
// @Security BearerAuth
// @Param provider query string false "Provider"
// @Param is_imported query bool false "Import state"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} controllers.ExternalEventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /external-events [get]
func (c *ExternalEventController) ListExternalEvents(w http.ResponseWriter, r *http.Request) {
	var filter domain.ExternalEventFilter
	if name := r.URL.Query().Get("provider"); name != "" {
		provider, err := domain.ParseProvider(name)
		if err != nil {
			writeError(w, r, c.Logger, err)
			return
		}
		filter.Provider = provider
	}
	imported, err := helpers.QueryBool(r, "is_imported")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	filter.IsImported = imported
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), middleware.UserFromContext(r.Context()), filter, params)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONList(w, events, params.Page, params.PageSize, total)
}

// GetExternalEvent godoc
// @Summary Get a cached provider record
// @Tags external-events
// @Produce json
// @Security BearerAuth
// @Param externalEventID path string true "External event ID (UUID)"
// @Success 200 {object} controllers.ExternalEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /external-events/{externalEventID} [get]
func (c *ExternalEventController) GetExternalEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "externalEventID")
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Import godoc
// @Summary Import a provider record as a local event
// @Description Organizers and admins. The caller owns the new event. A record can be imported once.
// @Tags external-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param externalEventID path string true "External event ID (UUID)"
// @Param body body ImportRequest false "Overrides"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (already imported)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /external-events/{externalEventID}/import [post]
func (c *ExternalEventController) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "externalEventID")
	if !ok {
		return
	}
	var req ImportRequest
	if r.ContentLength != 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}
	event, err := c.Service.Import(r.Context(), middleware.UserFromContext(r.Context()), id, domain.ImportOptions{
		CategoryID:        req.CategoryID,
		TagIDs:            req.TagIDs,
		MaxAttendees:      req.MaxAttendees,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	})
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}
