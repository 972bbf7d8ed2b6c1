package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

// maxBioLength bounds the profile bio.
const maxBioLength = 500

// UpdateProfileRequest is the request body for PUT and PATCH /accounts/profile.
// All fields are optional; is_organizer cannot be changed after registration.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Bio         *string `json:"bio"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
}

// Validate implements Validator.
func (req UpdateProfileRequest) Validate() []string {
	var errs []string
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		errs = append(errs, "email cannot be blank")
	}
	if req.Bio != nil && len([]rune(*req.Bio)) > maxBioLength {
		errs = append(errs, "bio must be at most 500 characters")
	}
	return errs
}

// UserSuccessResponse is the success response envelope for profile endpoints (200).
type UserSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// GetProfile godoc
// @Summary Get the current user's profile
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /accounts/profile [get]
func (c *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Description PUT and PATCH both apply only the supplied fields.
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /accounts/profile [patch]
// @Router /accounts/profile [put]
func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	updated, err := c.Service.UpdateProfile(r.Context(), user.ID, domain.ProfilePatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// DeleteProfile godoc
// @Summary Delete the current user's account
// @Description Removes the account together with its events, RSVPs and reviews.
// @Tags accounts
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /accounts/profile [delete]
func (c *UserController) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), user.ID); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
