package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

const maxCommentLength = 2000

// CreateReviewRequest is the request body for POST /reviews.
type CreateReviewRequest struct {
	EventID string `json:"event_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate implements Validator.
func (req CreateReviewRequest) Validate() []string {
	var errs []string
	if !helpers.ValidUUID(req.EventID) {
		errs = append(errs, "event_id must be a valid UUID")
	}
	if !domain.ValidRating(req.Rating) {
		errs = append(errs, "rating must be between 1 and 5")
	}
	if len([]rune(req.Comment)) > maxCommentLength {
		errs = append(errs, "comment must be at most 2000 characters")
	}
	return errs
}

// UpdateReviewRequest is the request body for PUT and PATCH /reviews/{reviewID}.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// Validate implements Validator.
func (req UpdateReviewRequest) Validate() []string {
	var errs []string
	if req.Rating != nil && !domain.ValidRating(*req.Rating) {
		errs = append(errs, "rating must be between 1 and 5")
	}
	if req.Comment != nil && len([]rune(*req.Comment)) > maxCommentLength {
		errs = append(errs, "comment must be at most 2000 characters")
	}
	return errs
}

// ReviewSuccessResponse is the success response envelope for single-review endpoints.
type ReviewSuccessResponse struct {
	Data  *domain.Review    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ReviewListData is the paginated review list payload.
type ReviewListData struct {
	Items      []*domain.Review       `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ReviewListSuccessResponse is the success response envelope for GET /events/{eventID}/reviews (200).
type ReviewListSuccessResponse struct {
	Data  ReviewListData    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MyReviewsSuccessResponse is the success response envelope for GET /reviews/mine (200).
type MyReviewsSuccessResponse struct {
	Data  []*domain.Review  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ReviewController struct {
	Logger  *slog.Logger
	Service domain.ReviewService
}

func NewReviewController(logger *slog.Logger, svc domain.ReviewService) *ReviewController {
	return &ReviewController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateReview godoc
// @Summary Review an event
// @Description Only past events the caller attended (going RSVP) can be reviewed, once per event.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateReviewRequest true "Review"
// @Success 201 {object} controllers.ReviewSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (not eligible)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already reviewed)"
// @Router /reviews [post]
func (c *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	review, err := c.Service.Create(r.Context(), middleware.UserFromContext(r.Context()), req.EventID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary Update a review
// @Description Only the author can edit a review.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review ID (UUID)"
// @Param body body UpdateReviewRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.ReviewSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /reviews/{reviewID} [patch]
// @Router /reviews/{reviewID} [put]
func (c *ReviewController) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := helpers.PathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	var req UpdateReviewRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	review, err := c.Service.Update(r.Context(), middleware.UserFromContext(r.Context()), reviewID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete a review
// @Description The author or an admin.
// @Tags reviews
// @Security BearerAuth
// @Param reviewID path string true "Review ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /reviews/{reviewID} [delete]
func (c *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := helpers.PathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), middleware.UserFromContext(r.Context()), reviewID); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEventReviews godoc
// @Summary List reviews of an event
// @Tags reviews
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} controllers.ReviewListSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/reviews [get]
func (c *ReviewController) ListEventReviews(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	reviews, total, err := c.Service.ListForEvent(r.Context(), eventID, params)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONList(w, reviews, params.Page, params.PageSize, total)
}

// MyReviews godoc
// @Summary The caller's reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MyReviewsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /reviews/mine [get]
func (c *ReviewController) MyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := c.Service.ListMine(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reviews)
}
