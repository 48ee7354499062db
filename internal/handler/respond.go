package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"campusafe/internal/auth"
	"campusafe/internal/errors"
)

// respondError converts a domain error into the JSON error body.
func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.Path()).Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "VALIDATION_ERROR",
	})
}

// sessionFrom returns the session claims set by the token middleware, or nil.
func sessionFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(auth.ContextKey).(*auth.Claims)
	return claims
}
