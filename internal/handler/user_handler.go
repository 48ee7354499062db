package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"campusafe/internal/model"
	"campusafe/internal/service"
)

// UserHandler exposes profile endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfileRequest holds the profile fields to change. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	USN          *string `json:"usn"`
	Branch       *string `json:"branch"`
	Course       *string `json:"course"`
	Year         *int    `json:"year" validate:"omitempty,min=1,max=8"`
	ProfilePhoto *string `json:"profilePhoto"`
}

// GetProfile godoc
// @Summary Get a profile, creating an incomplete one on first lookup
// @Tags users
// @Produce json
// @Param email path string true "Campus email"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /users/{email} [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userService.GetProfile(c.Request().Context(), emailParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update a profile and mark it complete
// @Tags users
// @Accept json
// @Produce json
// @Param email path string true "Campus email"
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /users/{email} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), emailParam(c), model.ProfileUpdate{
		Name:         req.Name,
		USN:          req.USN,
		Branch:       req.Branch,
		Course:       req.Course,
		Year:         req.Year,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func emailParam(c echo.Context) string {
	raw := c.Param("email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
