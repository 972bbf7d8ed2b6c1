package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// CategoryRequest is the request body for POST /categories.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (req CategoryRequest) Validate() []string {
	if strings.TrimSpace(req.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// UpdateCategoryRequest is the request body for PUT /categories/{categoryID}.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate implements Validator.
func (req UpdateCategoryRequest) Validate() []string {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return []string{"name cannot be blank"}
	}
	return nil
}

// TagRequest is the request body for POST and PUT /tags.
type TagRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (req TagRequest) Validate() []string {
	if strings.TrimSpace(req.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// CategorySuccessResponse is the success response envelope for single-category endpoints.
type CategorySuccessResponse struct {
	Data  *domain.Category  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CategoryListSuccessResponse is the success response envelope for GET /categories (200).
type CategoryListSuccessResponse struct {
	Data  []*domain.Category `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// TagSuccessResponse is the success response envelope for single-tag endpoints.
type TagSuccessResponse struct {
	Data  *domain.Tag       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TagListSuccessResponse is the success response envelope for GET /tags (200).
type TagListSuccessResponse struct {
	Data  []*domain.Tag     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UsageSuccessResponse is the success response envelope for usage statistics (200).
type UsageSuccessResponse struct {
	Data  []domain.UsageCount `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type TaxonomyController struct {
	Logger  *slog.Logger
	Service domain.TaxonomyService
}

func NewTaxonomyController(logger *slog.Logger, svc domain.TaxonomyService) *TaxonomyController {
	return &TaxonomyController{
		Logger:  logger,
		Service: svc,
	}
}

// ListCategories godoc
// @Summary List categories
// @Tags taxonomy
// @Produce json
// @Success 200 {object} controllers.CategoryListSuccessResponse
// @Router /categories [get]
func (c *TaxonomyController) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.Service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, categories)
}

// GetCategory godoc
// @Summary Get a category
// @Tags taxonomy
// @Produce json
// @Param categoryID path string true "Category ID (UUID)"
// @Success 200 {object} controllers.CategorySuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /categories/{categoryID} [get]
func (c *TaxonomyController) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "categoryID")
	if !ok {
		return
	}
	category, err := c.Service.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, category)
}

// CreateCategory godoc
// @Summary Create a category
// @Description Admin only.
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CategoryRequest true "Category"
// @Success 201 {object} controllers.CategorySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate name)"
// @Router /categories [post]
func (c *TaxonomyController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	category, err := c.Service.CreateCategory(r.Context(), middleware.UserFromContext(r.Context()), req.Name, req.Description)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Admin only.
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryID path string true "Category ID (UUID)"
// @Param body body UpdateCategoryRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.CategorySuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate name)"
// @Router /categories/{categoryID} [put]
func (c *TaxonomyController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "categoryID")
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	category, err := c.Service.UpdateCategory(r.Context(), middleware.UserFromContext(r.Context()), id, req.Name, req.Description)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Admin only. Events in the category keep existing without one.
// @Tags taxonomy
// @Security BearerAuth
// @Param categoryID path string true "Category ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /categories/{categoryID} [delete]
func (c *TaxonomyController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "categoryID")
	if !ok {
		return
	}
	if err := c.Service.DeleteCategory(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CategoryUsage godoc
// @Summary Events per category
// @Description Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UsageSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/categories/usage [get]
func (c *TaxonomyController) CategoryUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := c.Service.CategoryUsage(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, usage)
}

// ListTags godoc
// @Summary List tags
// @Tags taxonomy
// @Produce json
// @Success 200 {object} controllers.TagListSuccessResponse
// @Router /tags [get]
func (c *TaxonomyController) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.Service.ListTags(r.Context())
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get a tag
// @Tags taxonomy
// @Produce json
// @Param tagID path string true "Tag ID (UUID)"
// @Success 200 {object} controllers.TagSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tags/{tagID} [get]
func (c *TaxonomyController) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "tagID")
	if !ok {
		return
	}
	tag, err := c.Service.GetTag(r.Context(), id)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tag)
}

// CreateTag godoc
// @Summary Create a tag
// @Description Admin only.
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TagRequest true "Tag"
// @Success 201 {object} controllers.TagSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate name)"
// @Router /tags [post]
func (c *TaxonomyController) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tag, err := c.Service.CreateTag(r.Context(), middleware.UserFromContext(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tag)
}

// UpdateTag godoc
// @Summary Rename a tag
// @Description Admin only.
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tagID path string true "Tag ID (UUID)"
// @Param body body TagRequest true "Tag"
// @Success 200 {object} controllers.TagSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate name)"
// @Router /tags/{tagID} [put]
func (c *TaxonomyController) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "tagID")
	if !ok {
		return
	}
	var req TagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tag, err := c.Service.UpdateTag(r.Context(), middleware.UserFromContext(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tag)
}

// DeleteTag godoc
// @Summary Delete a tag
// @Description Admin only.
// @Tags taxonomy
// @Security BearerAuth
// @Param tagID path string true "Tag ID (UUID)"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tags/{tagID} [delete]
func (c *TaxonomyController) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "tagID")
	if !ok {
		return
	}
	if err := c.Service.DeleteTag(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TagUsage godoc
// @Summary Events per tag
// @Description Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UsageSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/tags/usage [get]
func (c *TaxonomyController) TagUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := c.Service.TagUsage(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, usage)
}
