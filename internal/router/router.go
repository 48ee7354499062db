package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"campusafe/docs"
	"campusafe/internal/auth"
	"campusafe/internal/config"
	"campusafe/internal/errors"
	"campusafe/internal/handler"
	"campusafe/internal/logging"
	"campusafe/internal/service"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Health *handler.HealthHandler
	Item   *handler.ItemHandler
	User   *handler.UserHandler
	Auth   *handler.AuthHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, authService service.AuthService, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(logging.Middleware())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.Validator = NewValidator()

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", h.Health.Healthz)
	e.GET("/readyz", h.Health.Readyz)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	requireSession := sessionMiddleware(authService, true)
	writeSession := sessionMiddleware(authService, cfg.AuthRequired)

	// Public routes
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/items", h.Item.ListItems)
	api.GET("/items/:id", h.Item.GetItem)
	api.GET("/items/:id/review", h.Item.ReviewItem)
	api.GET("/users/:email", h.User.GetProfile)
	api.PUT("/users/:email", h.User.UpdateProfile)

	// Item writes; a token is read when present and demanded only with AUTH_REQUIRED
	api.POST("/items", h.Item.CreateItem, writeSession)
	api.PUT("/items/:id/claim", h.Item.SubmitClaim, writeSession)
	api.PUT("/items/:id/status", h.Item.UpdateStatus, writeSession)

	// Secured routes (require a session token)
	api.POST("/auth/logout", h.Auth.Logout, requireSession)
	api.GET("/me", h.Auth.Me, requireSession)
}

// sessionMiddleware validates bearer tokens through authService. When required
// is false a missing or bad token lets the request through without a session.
func sessionMiddleware(authService service.AuthService, required bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  auth.ContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if !required {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: errors.ErrUnauthorized.Error(),
				Code:  "UNAUTHORIZED",
			})
		},
		ContinueOnIgnoredError: !required,
	})
}
