package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"campusafe/internal/lifecycle"
	"campusafe/internal/model"
	"campusafe/internal/service"
)

// ItemHandler handles found-item endpoints.
type ItemHandler struct {
	itemService service.ItemService
}

// NewItemHandler creates a new item handler.
func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// CreateItemRequest is a finder's report.
type CreateItemRequest struct {
	Name            string `json:"name" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Category        string `json:"category" validate:"required"`
	Description     string `json:"description" validate:"required"`
	Image           string `json:"image"`
	SecretQuestion1 string `json:"secretQuestion1"`
	SecretAnswer1   string `json:"secretAnswer1"`
	SecretQuestion2 string `json:"secretQuestion2"`
	SecretAnswer2   string `json:"secretAnswer2"`
	SecretQuestion3 string `json:"secretQuestion3"`
	SecretAnswer3   string `json:"secretAnswer3"`
	PostedBy        string `json:"postedBy" validate:"omitempty,email"`
}

// ClaimRequest is a claimant's submission.
type ClaimRequest struct {
	ClaimantName  string `json:"claimantName" validate:"required"`
	ClaimantEmail string `json:"claimantEmail" validate:"omitempty,email"`
	ClaimantPhone string `json:"claimantPhone"`
	ClaimAnswer1  string `json:"claimAnswer1"`
	ClaimAnswer2  string `json:"claimAnswer2"`
	ClaimAnswer3  string `json:"claimAnswer3"`
	ClaimImage    string `json:"claimImage"`
}

// StatusRequest asks for a status change. A pickupCode sent by the client is ignored.
type StatusRequest struct {
	Status         string `json:"status" validate:"required"`
	PickupLocation string `json:"pickupLocation"`
	PickupCode     string `json:"pickupCode,omitempty"`
}

// ListItems godoc
// @Summary List found items, newest first
// @Description Secret answers and claim answers are left out.
// @Tags items
// @Produce json
// @Param status query string false "Filter by status"
// @Param postedBy query string false "Filter by finder email"
// @Param category query string false "Filter by category"
// @Param q query string false "Case-insensitive search in name, description and location"
// @Success 200 {array} model.Item
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /items [get]
func (h *ItemHandler) ListItems(c echo.Context) error {
	filter := model.ItemFilter{
		Status:   model.ItemStatus(c.QueryParam("status")),
		PostedBy: c.QueryParam("postedBy"),
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
	}
	items, err := h.itemService.ListItems(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateItem godoc
// @Summary Report a found item
// @Tags items
// @Accept json
// @Produce json
// @Param request body CreateItemRequest true "Item"
// @Success 201 {object} model.Item
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /items [post]
func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if session := sessionFrom(c); session != nil && req.PostedBy == "" {
		req.PostedBy = session.Email
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.CreateItem(c.Request().Context(), service.CreateItemInput{
		Name:            req.Name,
		Location:        req.Location,
		Date:            req.Date,
		Category:        req.Category,
		Description:     req.Description,
		Image:           req.Image,
		SecretQuestion1: req.SecretQuestion1,
		SecretAnswer1:   req.SecretAnswer1,
		SecretQuestion2: req.SecretQuestion2,
		SecretAnswer2:   req.SecretAnswer2,
		SecretQuestion3: req.SecretQuestion3,
		SecretAnswer3:   req.SecretAnswer3,
		PostedBy:        req.PostedBy,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// GetItem godoc
// @Summary Get an item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} model.Item
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /items/{id} [get]
func (h *ItemHandler) GetItem(c echo.Context) error {
	item, err := h.itemService.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// ReviewItem godoc
// @Summary Side-by-side view of secret answers and claim answers
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} model.ItemReview
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /items/{id}/review [get]
func (h *ItemHandler) ReviewItem(c echo.Context) error {
	review, err := h.itemService.ReviewItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, review)
}

// SubmitClaim godoc
// @Summary Claim a posted item
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body ClaimRequest true "Claim"
// @Success 200 {object} model.Item
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /items/{id}/claim [put]
func (h *ItemHandler) SubmitClaim(c echo.Context) error {
	var req ClaimRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if session := sessionFrom(c); session != nil && req.ClaimantEmail == "" {
		req.ClaimantEmail = session.Email
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.SubmitClaim(c.Request().Context(), c.Param("id"), lifecycle.Claim{
		Name:    req.ClaimantName,
		Email:   req.ClaimantEmail,
		Phone:   req.ClaimantPhone,
		Answer1: req.ClaimAnswer1,
		Answer2: req.ClaimAnswer2,
		Answer3: req.ClaimAnswer3,
		Image:   req.ClaimImage,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateStatus godoc
// @Summary Approve, reject or complete a claim
// @Description READY_FOR_PICKUP approves (pickupLocation required, code generated), Posted rejects, Completed confirms the handoff.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} model.Item
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /items/{id}/status [put]
func (h *ItemHandler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.SetStatus(c.Request().Context(), c.Param("id"), model.ItemStatus(req.Status), req.PickupLocation)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}
