package projects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/projectquota/binder"
	"github.com/dmitrymomot/projectquota/handler"
	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/jwt"
)

const (
	DefaultLedgerLimit = 50
	MaxLedgerLimit     = 200
)

// LimitsReader serves the advisory limits snapshot. Both
// *entitlement.LimitsService and *limitscache.Service implement it.
type LimitsReader interface {
	GetLimits(ctx context.Context, userID uuid.UUID) (entitlement.Limits, error)
}

// Consumer creates a project against the user's allowance.
type Consumer interface {
	TryConsume(ctx context.Context, userID uuid.UUID, payload entitlement.ProjectPayload) (entitlement.Receipt, error)
}

// LedgerLister lists a user's most recent ledger entries.
type LedgerLister interface {
	ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entitlement.LedgerEntry, error)
}

// Service serves the authenticated project endpoints. Every route expects
// the JWT middleware to have stored the caller's user ID in the context.
type Service struct {
	gate         Consumer
	limits       LimitsReader
	ledger       LedgerLister
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewService(gate Consumer, limits LimitsReader, ledger LedgerLister, errorHandler handler.ErrorHandler[handler.Context]) *Service {
	if gate == nil || limits == nil || ledger == nil {
		panic("projects: gate, limits and ledger are required")
	}
	return &Service{
		gate:         gate,
		limits:       limits,
		ledger:       ledger,
		errorHandler: errorHandler,
	}
}

// CreateProjectRequest is the POST /projects body.
type CreateProjectRequest struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateProjectResponse is the POST /projects success body.
type CreateProjectResponse struct {
	ProjectID uuid.UUID              `json:"project_id"`
	Type      entitlement.LedgerType `json:"ledger_type"`
	PeriodKey string                 `json:"period_key"`
}

// LedgerResponse is the GET /ledger body.
type LedgerResponse struct {
	Entries []entitlement.LedgerEntry `json:"entries"`
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/limits", handler.Wrap(s.getLimits,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Post("/projects", handler.Wrap(s.createProject,
		handler.WithBinders[handler.Context, CreateProjectRequest](binder.BindJSON()),
		handler.WithErrorHandler[handler.Context, CreateProjectRequest](s.errorHandler),
	))
	r.Get("/ledger", handler.Wrap(s.listLedger,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	return r
}

func (s *Service) getLimits(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := jwt.UserIDFromContext(ctx)
	if !ok {
		return handler.Fail(handler.ErrUnauthorized)
	}

	limits, err := s.limits.GetLimits(ctx, userID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(limits)
}

func (s *Service) createProject(ctx handler.Context, req CreateProjectRequest) handler.Response {
	userID, ok := jwt.UserIDFromContext(ctx)
	if !ok {
		return handler.Fail(handler.ErrUnauthorized)
	}

	if err := binder.ValidateStruct(req); err != nil {
		return handler.Fail(errors.Join(entitlement.ErrInvalidPayload, err))
	}

	receipt, err := s.gate.TryConsume(ctx, userID, entitlement.ProjectPayload{
		Name:    req.Name,
		Payload: req.Payload,
	})
	if err != nil {
		return handler.Fail(err)
	}

	return handler.JSON(CreateProjectResponse{
		ProjectID: receipt.ProjectID,
		Type:      receipt.Type,
		PeriodKey: receipt.PeriodKey,
	}, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) listLedger(ctx handler.Context, _ struct{}) handler.Response {
	userID, ok := jwt.UserIDFromContext(ctx)
	if !ok {
		return handler.Fail(handler.ErrUnauthorized)
	}

	limit, err := parseLimit(ctx.Request().URL.Query().Get("limit"))
	if err != nil {
		return handler.Fail(err)
	}

	entries, err := s.ledger.ListLedgerEntries(ctx, userID, limit)
	if err != nil {
		return handler.Fail(err)
	}
	if entries == nil {
		entries = []entitlement.LedgerEntry{}
	}
	return handler.JSON(LedgerResponse{Entries: entries})
}

// parseLimit reads the ledger page size. Values above MaxLedgerLimit are clamped.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLedgerLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		verr := binder.NewValidationError()
		verr.Add("limit", "must be a positive integer")
		return 0, verr
	}
	return min(n, MaxLedgerLimit), nil
}
