package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// OrganizerDashboardSuccessResponse is the success response envelope for GET /organizer/dashboard (200).
type OrganizerDashboardSuccessResponse struct {
	Data  *domain.OrganizerDashboard `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// AdminDashboardSuccessResponse is the success response envelope for GET /admin/dashboard (200).
type AdminDashboardSuccessResponse struct {
	Data  *domain.AdminDashboard `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// UserAnalyticsSuccessResponse is the success response envelope for GET /admin/users/analytics (200).
type UserAnalyticsSuccessResponse struct {
	Data  *domain.UserAnalytics `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type DashboardController struct {
	Logger  *slog.Logger
	Service domain.DashboardService
}

func NewDashboardController(logger *slog.Logger, svc domain.DashboardService) *DashboardController {
	return &DashboardController{
		Logger:  logger,
		Service: svc,
	}
}

// Organizer godoc
// @Summary Organizer dashboard
// @Description Totals, top events and category performance for the caller's events.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.OrganizerDashboardSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /organizer/dashboard [get]
func (c *DashboardController) Organizer(w http.ResponseWriter, r *http.Request) {
	dash, err := c.Service.Organizer(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, dash)
}

// UpcomingEvents godoc
// @Summary The caller's upcoming events
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /organizer/events/upcoming [get]
func (c *DashboardController) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	c.organizerEvents(w, r, domain.TimingUpcoming)
}

// PastEvents godoc
// @Summary The caller's past events
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /organizer/events/past [get]
func (c *DashboardController) PastEvents(w http.ResponseWriter, r *http.Request) {
	c.organizerEvents(w, r, domain.TimingPast)
}

func (c *DashboardController) organizerEvents(w http.ResponseWriter, r *http.Request, timing domain.EventTiming) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.OrganizerEvents(r.Context(), middleware.UserFromContext(r.Context()), timing, params)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONList(w, events, params.Page, params.PageSize, total)
}

// EventAttendees godoc
// @Summary Full attendee list of an owned event
// @Description Includes email, status, note, RSVP date and verification state. Owner or admin.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.AttendeeListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /organizer/events/{eventID}/attendees [get]
func (c *DashboardController) EventAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	attendees, err := c.Service.EventAttendees(r.Context(), middleware.UserFromContext(r.Context()), eventID)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// Admin godoc
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AdminDashboardSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/dashboard [get]
func (c *DashboardController) Admin(w http.ResponseWriter, r *http.Request) {
	dash, err := c.Service.Admin(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, dash)
}

// UserAnalytics godoc
// @Summary User analytics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserAnalyticsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/users/analytics [get]
func (c *DashboardController) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Service.UserAnalytics(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
