package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusafe/internal/auth"
	"campusafe/internal/config"
	"campusafe/internal/events"
	"campusafe/internal/handler"
	"campusafe/internal/model"
	"campusafe/internal/repository"
	"campusafe/internal/router"
	"campusafe/internal/service"
)

// memoryRevocations is an in-process revocation list.
type memoryRevocations struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[tokenID] = true
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[tokenID], nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type serverOptions struct {
	authRequired bool
	pinger       handler.Pinger
	checks       map[string]handler.Check
}

func newServer(t *testing.T, opts serverOptions) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		BodyLimit:         "2M",
		JWTSecret:         "handler-test-secret",
		AuthRequired:      opts.authRequired,
		CampusEmailDomain: "sjec.ac.in",
	}

	items := repository.NewMemoryItemRepository()
	users := repository.NewMemoryUserRepository()
	images := service.NewImageService(nil)
	publisher := events.Noop{}

	userService := service.NewUserService(users, service.NewEmailPolicy(cfg.CampusEmailDomain), images, publisher)
	itemService := service.NewItemService(items, users, images, publisher, nil)
	authService := service.NewAuthService(userService, auth.NewJWTService(cfg.JWTSecret), &memoryRevocations{ids: map[string]bool{}})

	var pinger handler.Pinger = items
	if opts.pinger != nil {
		pinger = opts.pinger
	}

	e := echo.New()
	router.Register(e, cfg, authService, router.Handlers{
		Health: handler.NewHealthHandler(pinger, opts.checks),
		Item:   handler.NewItemHandler(itemService),
		User:   handler.NewUserHandler(userService),
		Auth:   handler.NewAuthHandler(authService),
	})
	return e
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["error"])
	return body["code"]
}

const umbrella = `{
	"name": "Black umbrella",
	"location": "Library",
	"date": "2024-03-04",
	"category": "Accessories",
	"description": "Folding umbrella",
	"secretQuestion1": "What is on the handle?",
	"secretAnswer1": "initials RK",
	"postedBy": "finder@sjec.ac.in"
}`

const claim = `{
	"claimantName": "Riya",
	"claimantEmail": "riya@sjec.ac.in",
	"claimantPhone": "9999999999",
	"claimAnswer1": "RK"
}`

func createItem(t *testing.T, e *echo.Echo) model.Item {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/items", umbrella, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Item](t, rec)
}

func login(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"`+email+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[handler.AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestItemLifecycle(t *testing.T) {
	e := newServer(t, serverOptions{})
	item := createItem(t, e)
	assert.Equal(t, model.StatusPosted, item.Status)
	assert.NotEmpty(t, item.ID)

	rec := do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusClaimPending, decode[model.Item](t, rec).Status)

	rec = do(e, http.MethodGet, "/api/items/"+item.ID+"/review", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	review := decode[model.ItemReview](t, rec)
	require.Len(t, review.Pairs, 1)
	assert.Equal(t, "initials RK", review.Pairs[0].ExpectedAnswer)
	assert.Equal(t, "RK", review.Pairs[0].ClaimAnswer)

	rec = do(e, http.MethodPut, "/api/items/"+item.ID+"/status",
		`{"status":"READY_FOR_PICKUP","pickupLocation":"Security office","pickupCode":"000000"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[model.Item](t, rec)
	assert.Equal(t, model.StatusReadyForPickup, approved.Status)
	assert.Regexp(t, `^[1-9][0-9]{5}$`, approved.PickupCode)
	assert.NotEqual(t, "000000", approved.PickupCode)
	assert.Equal(t, "Security office", approved.PickupLocation)

	rec = do(e, http.MethodPut, "/api/items/"+item.ID+"/status", `{"status":"Completed"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusCompleted, decode[model.Item](t, rec).Status)

	rec = do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, rec))
}

func TestRejectReturnsItemToPosted(t *testing.T) {
	e := newServer(t, serverOptions{})
	item := createItem(t, e)

	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "").Code)

	rec := do(e, http.MethodPut, "/api/items/"+item.ID+"/status", `{"status":"Posted"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rejected := decode[model.Item](t, rec)
	assert.Equal(t, model.StatusPosted, rejected.Status)
	assert.Empty(t, rejected.ClaimantName)
	assert.Empty(t, rejected.ClaimAnswer1)
}

func TestDoubleClaimConflicts(t *testing.T) {
	e := newServer(t, serverOptions{})
	item := createItem(t, e)

	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "").Code)

	rec := do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, rec))
}

func TestItemErrors(t *testing.T) {
	e := newServer(t, serverOptions{})
	item := createItem(t, e)
	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "").Code)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown item", http.MethodGet, "/api/items/missing", "", http.StatusNotFound, "ITEM_NOT_FOUND"},
		{"claim unknown item", http.MethodPut, "/api/items/missing/claim", claim, http.StatusNotFound, "ITEM_NOT_FOUND"},
		{"create without name", http.MethodPost, "/api/items", `{"location":"x","date":"d","category":"c","description":"d"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"create with bad poster", http.MethodPost, "/api/items", `{"name":"n","location":"x","date":"d","category":"c","description":"d","postedBy":"nope"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed body", http.MethodPost, "/api/items", `{"name":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"claim without name", http.MethodPut, "/api/items/" + item.ID + "/claim", `{"claimantEmail":"a@sjec.ac.in"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"approve without location", http.MethodPut, "/api/items/" + item.ID + "/status", `{"status":"READY_FOR_PICKUP"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"approve with blank location", http.MethodPut, "/api/items/" + item.ID + "/status", `{"status":"READY_FOR_PICKUP","pickupLocation":"   "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown target status", http.MethodPut, "/api/items/" + item.ID + "/status", `{"status":"Archived"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing target status", http.MethodPut, "/api/items/" + item.ID + "/status", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"complete before approval", http.MethodPut, "/api/items/" + item.ID + "/status", `{"status":"Completed"}`, http.StatusConflict, "INVALID_TRANSITION"},
		{"unknown list status", http.MethodGet, "/api/items?status=Lost", "", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, rec))
		})
	}

	rec := do(e, http.MethodGet, "/api/items/"+item.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusClaimPending, decode[model.Item](t, rec).Status)
}

func TestListItems(t *testing.T) {
	e := newServer(t, serverOptions{})
	first := createItem(t, e)
	second := createItem(t, e)
	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/api/items/"+second.ID+"/claim", claim, "").Code)

	rec := do(e, http.MethodGet, "/api/items", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "initials RK")
	assert.NotContains(t, rec.Body.String(), `"claimAnswer1"`)
	assert.Len(t, decode[[]model.Item](t, rec), 2)

	rec = do(e, http.MethodGet, "/api/items?status=Posted", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	posted := decode[[]model.Item](t, rec)
	require.Len(t, posted, 1)
	assert.Equal(t, first.ID, posted[0].ID)

	rec = do(e, http.MethodGet, "/api/items?status=Claim%20Pending", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]model.Item](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	rec = do(e, http.MethodGet, "/api/items?q=UMBRELLA", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Item](t, rec), 2)

	rec = do(e, http.MethodGet, "/api/items?q=laptop", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Item](t, rec))

	rec = do(e, http.MethodGet, "/api/items/"+first.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "initials RK", decode[model.Item](t, rec).SecretAnswer1)
}

func TestProfiles(t *testing.T) {
	e := newServer(t, serverOptions{})

	rec := do(e, http.MethodGet, "/api/users/Student@SJEC.ac.in", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[model.User](t, rec)
	assert.Equal(t, "student@sjec.ac.in", user.Email)
	assert.False(t, user.IsProfileComplete)

	rec = do(e, http.MethodPut, "/api/users/student@sjec.ac.in", `{"name":"Riya","usn":"4SO21CS001","branch":"CSE"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user = decode[model.User](t, rec)
	assert.True(t, user.IsProfileComplete)
	assert.Equal(t, "Riya", user.Name)
	assert.Equal(t, "CSE", user.Branch)

	rec = do(e, http.MethodPut, "/api/users/student@sjec.ac.in", `{"year":3}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user = decode[model.User](t, rec)
	assert.Equal(t, "Riya", user.Name)
	assert.Equal(t, 3, user.Year)
	assert.Contains(t, rec.Body.String(), `"year":3`)

	rec = do(e, http.MethodPut, "/api/users/student@sjec.ac.in", `{"year":12}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = do(e, http.MethodGet, "/api/users/someone@gmail.com", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestSessionFlow(t *testing.T) {
	e := newServer(t, serverOptions{})
	token := login(t, e, "Student@sjec.ac.in")

	rec := do(e, http.MethodGet, "/api/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[handler.SessionResponse](t, rec)
	assert.Equal(t, "student@sjec.ac.in", session.Email)
	assert.NotEmpty(t, session.TokenID)

	rec = do(e, http.MethodPost, "/api/auth/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestSecuredRoutesNeedToken(t *testing.T) {
	e := newServer(t, serverOptions{})

	for _, token := range []string{"", "not-a-token"} {
		rec := do(e, http.MethodGet, "/api/me", "", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
	}

	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"someone@gmail.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestOptionalSessionFillsPoster(t *testing.T) {
	e := newServer(t, serverOptions{})
	token := login(t, e, "finder2@sjec.ac.in")

	body := `{"name":"Keys","location":"Gate","date":"2024-03-01","category":"Keys","description":"Three keys"}`
	rec := do(e, http.MethodPost, "/api/items", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "finder2@sjec.ac.in", decode[model.Item](t, rec).PostedBy)

	rec = do(e, http.MethodPost, "/api/items", body, "garbage")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, decode[model.Item](t, rec).PostedBy)
}

func TestAuthRequiredGatesWrites(t *testing.T) {
	e := newServer(t, serverOptions{authRequired: true})

	rec := do(e, http.MethodPost, "/api/items", umbrella, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	token := login(t, e, "finder@sjec.ac.in")
	rec = do(e, http.MethodPost, "/api/items", umbrella, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[model.Item](t, rec)

	rec = do(e, http.MethodPut, "/api/items/"+item.ID+"/claim", claim, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/items", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newServer(t, serverOptions{})

	rec := do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(e, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[handler.ReadyResponse](t, rec)
	assert.Equal(t, "ready", ready.Status)
	assert.Empty(t, ready.Dependencies)
}

func TestReadyzReportsOptionalDependencies(t *testing.T) {
	e := newServer(t, serverOptions{checks: map[string]handler.Check{
		"events": func(context.Context) error { return errors.New("not connected") },
		"images": func(context.Context) error { return nil },
	}})

	rec := do(e, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ready := decode[handler.ReadyResponse](t, rec)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, map[string]string{"events": "unavailable", "images": "ok"}, ready.Dependencies)
}

func TestReadyzReportsStoreOutage(t *testing.T) {
	e := newServer(t, serverOptions{pinger: pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})})

	rec := do(e, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", errorCode(t, rec))

	rec = do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
