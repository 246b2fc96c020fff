package sqlitestore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
)

// The writers below stand in for the billing and referral services, which
// own these rows in production. They exist for local development and tests.

// UpsertUserAccount sets the user's plan code, creating the account if needed.
func (s *Store) UpsertUserAccount(ctx context.Context, userID uuid.UUID, code entitlement.PlanCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_accounts (id, plan_code, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET plan_code = excluded.plan_code`,
		userID.String(), string(code), toMillis(time.Now()),
	)
	if err != nil {
		return wrapErr("upsert user account", err)
	}
	return nil
}

// Referral is a referral row as written by the referral service.
type Referral struct {
	ID             uuid.UUID
	ReferrerUserID uuid.UUID
	Status         entitlement.ReferralStatus
	PeriodKey      string
}

// InsertReferral stores a referral. A zero ID is replaced with a new one.
func (s *Store) InsertReferral(ctx context.Context, r Referral) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_user_id, status, period_key, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID.String(), r.ReferrerUserID.String(), string(r.Status), r.PeriodKey, toMillis(time.Now()),
	)
	if err != nil {
		return wrapErr("insert referral", err)
	}
	return nil
}

// InsertLegacyProject stores a project without a ledger entry, as projects
// created before the ledger existed look.
func (s *Store) InsertLegacyProject(ctx context.Context, p entitlement.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	var payload any
	if len(p.Payload) > 0 {
		payload = string(p.Payload)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID.String(), p.Name, payload, toMillis(p.CreatedAt),
	)
	if err != nil {
		return wrapErr("insert legacy project", err)
	}
	return nil
}
