package projects_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectquota/handler"
	"github.com/dmitrymomot/projectquota/modules/projects"
	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/sqlitestore"
	"github.com/dmitrymomot/projectquota/pkg/jwt"
	"github.com/dmitrymomot/projectquota/pkg/limitscache"
	"github.com/dmitrymomot/projectquota/pkg/period"
)

const secret = "test-secret"

type api struct {
	srv    *httptest.Server
	store  *sqlitestore.Store
	tokens *jwt.Service
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()

	store, err := sqlitestore.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	resolver, err := entitlement.NewPlanResolver(ctx, entitlement.NewInMemSource(entitlement.DefaultPlans()))
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	now := func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

	limits := entitlement.NewLimitsService(resolver, store, period.MustNew(period.DefaultTimezone), entitlement.WithClock(now))
	cached := limitscache.New(limits, limitscache.NewMemoryBackend(100, time.Minute), limitscache.WithLogger(log))
	gate := entitlement.NewGate(store, limits,
		entitlement.WithLogger(log),
		entitlement.WithAfterCommit(cached.AfterCommit()),
	)

	tokens, err := jwt.New(secret)
	require.NoError(t, err)

	errs := handler.NewErrorHandler(log, handler.WithErrorMappers(projects.MapError))
	router := projects.Router(projects.RouterOptions{
		Projects: projects.NewService(gate, cached, store, errs),
		Health: projects.NewHealthService(time.Second, map[string]projects.HealthCheck{
			"store": store.Ping,
		}),
		Auth:   tokens,
		Logger: log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &api{srv: srv, store: store, tokens: tokens}
}

func (a *api) user(t *testing.T, plan entitlement.PlanCode) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	require.NoError(t, a.store.UpsertUserAccount(context.Background(), id, plan))
	token, err := a.tokens.Issue(id)
	require.NoError(t, err)
	return id, token
}

func (a *api) do(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e handler.ErrorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestLimits(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	_, token := a.user(t, entitlement.PlanBasic)

	resp, body := a.do(t, http.MethodGet, "/limits", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"plan_code": "BASIC",
		"period_key": "2025-03",
		"base_quota": 3,
		"base_used": 0,
		"base_remaining": 3,
		"bonus_granted_this_month": 0,
		"bonus_used_this_month": 0,
		"bonus_remaining_this_month": 0
	}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLimits_Unauthenticated(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	for name, token := range map[string]string{
		"no token":      "",
		"garbage token": "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := a.do(t, http.MethodGet, "/limits", token, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
		})
	}
}

func TestLimits_PlanNotFound(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	token, err := a.tokens.Issue(uuid.New())
	require.NoError(t, err)

	resp, body := a.do(t, http.MethodGet, "/limits", token, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "PLAN_NOT_FOUND", errorCode(t, body))
}

func TestCreateProject_UntilLimitReached(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	userID, token := a.user(t, entitlement.PlanBasic)

	for i := range 3 {
		resp, body := a.do(t, http.MethodPost, "/projects", token, `{"name":"project","payload":{"n":1}}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "call %d: %s", i, body)

		var created projects.CreateProjectResponse
		require.NoError(t, json.Unmarshal(body, &created))
		assert.NotEqual(t, uuid.Nil, created.ProjectID)
		assert.Equal(t, entitlement.LedgerBase, created.Type)
		assert.Equal(t, "2025-03", created.PeriodKey)
	}

	resp, body := a.do(t, http.MethodPost, "/projects", token, `{"name":"one too many"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "LIMIT_REACHED", errorCode(t, body))

	n, err := a.store.CountProjects(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	resp, body = a.do(t, http.MethodGet, "/limits", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var limits entitlement.Limits
	require.NoError(t, json.Unmarshal(body, &limits))
	assert.Equal(t, int64(3), limits.BaseUsed)
	assert.Equal(t, entitlement.Limited(0), limits.BaseRemaining)
}

func TestCreateProject_InvalidPayload(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	userID, token := a.user(t, entitlement.PlanPro)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing name", `{"payload":{}}`, http.StatusUnprocessableEntity, "PROJECT_CREATE_FAILED"},
		{"blank name", `{"name":"   "}`, http.StatusUnprocessableEntity, "PROJECT_CREATE_FAILED"},
		{"name too long", `{"name":"` + strings.Repeat("x", 201) + `"}`, http.StatusUnprocessableEntity, "PROJECT_CREATE_FAILED"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", `{"name":"x","owner":"y"}`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := a.do(t, http.MethodPost, "/projects", token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}

	t.Run("validation details", func(t *testing.T) {
		_, body := a.do(t, http.MethodPost, "/projects", token, `{"payload":{}}`)
		var e handler.ErrorBody
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, []string{"is required"}, e.Details["name"])
	})

	n, err := a.store.CountProjects(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedger(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	_, token := a.user(t, entitlement.PlanPro)

	var ids []uuid.UUID
	for range 3 {
		resp, body := a.do(t, http.MethodPost, "/projects", token, `{"name":"p"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created projects.CreateProjectResponse
		require.NoError(t, json.Unmarshal(body, &created))
		ids = append(ids, created.ProjectID)
	}

	resp, body := a.do(t, http.MethodGet, "/ledger", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ledger projects.LedgerResponse
	require.NoError(t, json.Unmarshal(body, &ledger))
	require.Len(t, ledger.Entries, 3)
	assert.Equal(t, ids[2], ledger.Entries[0].ProjectID, "newest first")

	resp, body = a.do(t, http.MethodGet, "/ledger?limit=1", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &ledger))
	assert.Len(t, ledger.Entries, 1)

	resp, body = a.do(t, http.MethodGet, "/ledger?limit=0", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestLedger_Empty(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	_, token := a.user(t, entitlement.PlanBasic)

	resp, body := a.do(t, http.MethodGet, "/ledger", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"entries":[]}`, string(body))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	resp, body := a.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok"}}`, string(body))
}

func TestHealth_Failing(t *testing.T) {
	t.Parallel()

	svc := projects.NewHealthService(0, map[string]projects.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"store": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	svc.Handle().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"redis":"connection refused","store":"ok"}}`, w.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	_, token := a.user(t, entitlement.PlanBasic)

	resp, body := a.do(t, http.MethodGet, "/nope", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}
