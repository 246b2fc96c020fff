package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrymomot/projectquota/pkg/logger"
)

// MaxProjectNameLength is the longest accepted project name, in runes.
const MaxProjectNameLength = 200

// AfterCommitFunc runs after a consumption has been committed.
// It must not fail the request; errors are the hook's own business.
type AfterCommitFunc func(ctx context.Context, userID uuid.UUID, receipt Receipt)

// Gate is the single writer of projects and ledger entries.
type Gate struct {
	store       Store
	limits      *LimitsService
	log         *slog.Logger
	newID       func() uuid.UUID
	afterCommit []AfterCommitFunc
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// WithIDGenerator overrides how project and ledger entry IDs are generated.
func WithIDGenerator(fn func() uuid.UUID) GateOption {
	return func(g *Gate) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// WithAfterCommit registers hooks that run after each committed consumption,
// in registration order.
func WithAfterCommit(fns ...AfterCommitFunc) GateOption {
	return func(g *Gate) {
		for _, fn := range fns {
			if fn != nil {
				g.afterCommit = append(g.afterCommit, fn)
			}
		}
	}
}

// NewGate creates a Gate. Panics if store or limits is nil.
func NewGate(store Store, limits *LimitsService, opts ...GateOption) *Gate {
	if store == nil {
		panic("entitlement: Store is required")
	}
	if limits == nil {
		panic("entitlement: LimitsService is required")
	}

	g := &Gate{
		store:  store,
		limits: limits,
		log:    slog.Default(),
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TryConsume creates a project for userID if an entitlement is left and
// records exactly one ledger entry for it. The limit check and both inserts
// run in one transaction under the user's lock; on any failure nothing is
// persisted.
//
// Returns ErrLimitReached when no credit is left. That is a business
// rejection, not a system failure.
func (g *Gate) TryConsume(ctx context.Context, userID uuid.UUID, payload ProjectPayload) (Receipt, error) {
	payload, err := normalizePayload(payload)
	if err != nil {
		return Receipt{}, errors.Join(ErrProjectCreateFailed, err)
	}

	var receipt Receipt
	err = g.store.WithUserLock(ctx, userID, func(ctx context.Context, tx Tx) error {
		now := g.limits.clock().UTC()
		periodKey := g.limits.periods.Key(now)

		limits, err := g.limits.LimitsAt(ctx, tx, userID, periodKey)
		if err != nil {
			return err
		}

		ledgerType, ok := limits.NextLedgerType()
		if !ok {
			return ErrLimitReached
		}

		project := Project{
			ID:        g.newID(),
			UserID:    userID,
			Name:      payload.Name,
			Payload:   payload.Payload,
			CreatedAt: now,
		}
		if err := tx.InsertProject(ctx, project); err != nil {
			return errors.Join(ErrProjectCreateFailed, err)
		}

		entry := LedgerEntry{
			ID:        g.newID(),
			UserID:    userID,
			ProjectID: project.ID,
			Type:      ledgerType,
			PeriodKey: periodKey,
			CreatedAt: now,
		}
		if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
			return errors.Join(ErrLedgerFailed, err)
		}

		receipt = Receipt{
			ProjectID: project.ID,
			EntryID:   entry.ID,
			Type:      entry.Type,
			PeriodKey: entry.PeriodKey,
			CreatedAt: entry.CreatedAt,
		}
		return nil
	})
	if err != nil {
		g.logFailure(ctx, userID, err)
		return Receipt{}, err
	}

	g.log.InfoContext(ctx, "project entitlement consumed",
		logger.UserID(userID),
		logger.ProjectID(receipt.ProjectID),
		logger.LedgerType(receipt.Type.String()),
		logger.PeriodKey(receipt.PeriodKey),
		logger.Component("entitlement_gate"),
	)

	for _, fn := range g.afterCommit {
		fn(ctx, userID, receipt)
	}

	return receipt, nil
}

// logFailure logs by error class: rejections are expected traffic,
// configuration errors and invariant violations are loud.
func (g *Gate) logFailure(ctx context.Context, userID uuid.UUID, err error) {
	switch {
	case errors.Is(err, ErrLimitReached):
		g.log.InfoContext(ctx, "project creation rejected",
			logger.UserID(userID),
			slog.String("reason", "limit_reached"),
			logger.Component("entitlement_gate"),
		)
	case errors.Is(err, ErrPlanNotFound):
		g.log.ErrorContext(ctx, "user has no resolvable plan",
			logger.UserID(userID),
			logger.Error(err),
			logger.Component("entitlement_gate"),
		)
	case errors.Is(err, ErrDuplicateLedgerEntry):
		g.log.ErrorContext(ctx, "ledger entry already exists for new project",
			logger.UserID(userID),
			logger.Error(err),
			logger.Event("invariant_violation"),
			logger.Component("entitlement_gate"),
		)
	case errors.Is(err, ErrStorageUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		g.log.WarnContext(ctx, "project creation aborted, safe to retry",
			logger.UserID(userID),
			logger.Error(err),
			logger.Component("entitlement_gate"),
		)
	case errors.Is(err, ErrInvalidPayload):
		g.log.DebugContext(ctx, "invalid project payload",
			logger.UserID(userID),
			logger.Error(err),
		)
	default:
		g.log.ErrorContext(ctx, "project creation failed",
			logger.UserID(userID),
			logger.Error(err),
			logger.Component("entitlement_gate"),
		)
	}
}

func normalizePayload(p ProjectPayload) (ProjectPayload, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, errors.Join(ErrInvalidPayload, fmt.Errorf("project name is required"))
	}
	if utf8.RuneCountInString(p.Name) > MaxProjectNameLength {
		return p, errors.Join(ErrInvalidPayload, fmt.Errorf("project name exceeds %d characters", MaxProjectNameLength))
	}
	if len(p.Payload) > 0 && !json.Valid(p.Payload) {
		return p, errors.Join(ErrInvalidPayload, fmt.Errorf("project payload is not valid JSON"))
	}
	return p, nil
}
