package projects

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/projectquota/handler"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthService runs the registered checks on GET /healthz. Any failing
// check turns the response into a 503.
type HealthService struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthService creates a health endpoint. A zero timeout means 2s per request.
func NewHealthService(timeout time.Duration, checks map[string]HealthCheck) *HealthService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthService{checks: checks, timeout: timeout}
}

func (s *HealthService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(s.health))
	return r
}

func (s *HealthService) health(ctx handler.Context, _ struct{}) handler.Response {
	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := s.checks[name](checkCtx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		return handler.JSON(resp, handler.WithJSONStatus(http.StatusServiceUnavailable))
	}
	return handler.JSON(resp)
}
