package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// maxNoteLength bounds the free-text RSVP note.
const maxNoteLength = 1000

// RSVPRequest is the request body for POST and PUT /rsvps/events/{eventID}.
type RSVPRequest struct {
	Status domain.RSVPStatus `json:"status"`
	Note   string            `json:"note"`
}

// Validate implements Validator. A missing status means going.
func (req *RSVPRequest) Validate() []string {
	var errs []string
	if req.Status == "" {
		req.Status = domain.RSVPGoing
	}
	if !req.Status.Valid() {
		errs = append(errs, "status must be one of going, interested, cancelled")
	}
	if len([]rune(req.Note)) > maxNoteLength {
		errs = append(errs, "note must be at most 1000 characters")
	}
	return errs
}

// RSVPSuccessResponse is the success response envelope for RSVP writes.
type RSVPSuccessResponse struct {
	Data  *domain.RSVP      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RSVPListSuccessResponse is the success response envelope for the caller's RSVP lists (200).
type RSVPListSuccessResponse struct {
	Data  []*domain.RSVP    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RSVPStatusResponse reports the caller's RSVP for one event.
type RSVPStatusResponse struct {
	HasRSVP bool         `json:"has_rsvp"`
	RSVP    *domain.RSVP `json:"rsvp,omitempty"`
}

// RSVPStatusSuccessResponse is the success response envelope for GET /events/{eventID}/rsvp-status (200).
type RSVPStatusSuccessResponse struct {
	Data  RSVPStatusResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// Respond godoc
// @Summary Create or update the caller's RSVP
// @Description Going is rejected when the event is full; going and interested are rejected for past events. Cancelling is always allowed.
// @Tags rsvps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RSVPRequest true "Status (default going) and optional note"
// @Success 200 {object} controllers.RSVPSuccessResponse "existing RSVP updated"
// @Success 201 {object} controllers.RSVPSuccessResponse "RSVP created"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (event full, past event)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /rsvps/events/{eventID} [post]
// @Router /rsvps/events/{eventID} [put]
func (c *RSVPController) Respond(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rsvp, created, err := c.Service.Respond(r.Context(), middleware.UserFromContext(r.Context()), eventID, req.Status, req.Note)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, rsvp)
}

// Cancel godoc
// @Summary Cancel the caller's RSVP
// @Tags rsvps
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RSVPSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no RSVP)"
// @Router /rsvps/events/{eventID}/cancel [post]
func (c *RSVPController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	rsvp, err := c.Service.Cancel(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rsvp)
}

// Status godoc
// @Summary Get the caller's RSVP for an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RSVPStatusSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/rsvp-status [get]
func (c *RSVPController) Status(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	rsvp, err := c.Service.StatusFor(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RSVPStatusResponse{HasRSVP: rsvp != nil, RSVP: rsvp})
}

// MyEvents godoc
// @Summary Events the caller is going to
// @Tags rsvps
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RSVPListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /rsvps/my-events [get]
func (c *RSVPController) MyEvents(w http.ResponseWriter, r *http.Request) {
	rsvps, err := c.Service.MyEvents(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rsvps)
}

// MyRSVPs godoc
// @Summary All of the caller's RSVPs
// @Tags rsvps
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RSVPListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /rsvps/my-rsvps [get]
func (c *RSVPController) MyRSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := c.Service.MyRSVPs(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rsvps)
}
