package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"campusafe/internal/errors"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check reports the health of an optional dependency. A failing check is reported but does not fail readiness.
type Check func(ctx context.Context) error

// ReadyResponse is the readiness body.
type ReadyResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	store  Pinger
	checks map[string]Check
}

// NewHealthHandler creates a health handler that requires store for readiness
// and reports checks alongside it.
func NewHealthHandler(store Pinger, checks map[string]Check) *HealthHandler {
	return &HealthHandler{store: store, checks: checks}
}

// Healthz godoc
// @Summary Liveness check
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readyz godoc
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness check failed")
		return c.JSON(http.StatusServiceUnavailable, errors.ErrorResponse{
			Error: errors.ErrStoreUnavailable.Error(),
			Code:  "STORE_UNAVAILABLE",
		})
	}

	resp := ReadyResponse{Status: "ready"}
	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("dependency check failed")
				resp.Dependencies[name] = "unavailable"
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}
	return c.JSON(http.StatusOK, resp)
}
