package entitlement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// PlanCode identifies a subscription plan.
type PlanCode string

// Known plan codes.
const (
	PlanBasic      PlanCode = "BASIC"
	PlanPro        PlanCode = "PRO"
	PlanEnterprise PlanCode = "ENTERPRISE"
)

// Valid reports whether c is one of the known plan codes.
func (c PlanCode) Valid() bool {
	switch c {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type quotaKind uint8

const (
	quotaUnset quotaKind = iota
	quotaUnlimited
	quotaLimited
)

// Quota is either Unlimited() or Limited(n).
// The zero value is neither and is rejected by plan validation.
type Quota struct {
	kind quotaKind
	n    uint
}

// Unlimited returns a quota without a ceiling.
func Unlimited() Quota {
	return Quota{kind: quotaUnlimited}
}

// Limited returns a quota with ceiling n.
func Limited(n uint) Quota {
	return Quota{kind: quotaLimited, n: n}
}

// IsUnlimited reports whether q has no ceiling.
func (q Quota) IsUnlimited() bool {
	return q.kind == quotaUnlimited
}

// IsSet reports whether q was constructed with Unlimited or Limited.
func (q Quota) IsSet() bool {
	return q.kind != quotaUnset
}

// Limit returns the ceiling and true for a limited quota, or 0 and false otherwise.
func (q Quota) Limit() (uint, bool) {
	if q.kind != quotaLimited {
		return 0, false
	}
	return q.n, true
}

// Remaining returns what is left of q after used units.
// Unlimited stays unlimited; a limited quota never goes below zero.
func (q Quota) Remaining(used int64) Quota {
	if q.kind != quotaLimited {
		return q
	}
	if used < 0 {
		used = 0
	}
	if uint64(used) >= uint64(q.n) {
		return Limited(0)
	}
	return Limited(q.n - uint(used))
}

// Available reports whether at least one unit is left.
func (q Quota) Available() bool {
	switch q.kind {
	case quotaUnlimited:
		return true
	case quotaLimited:
		return q.n > 0
	}
	return false
}

func (q Quota) String() string {
	switch q.kind {
	case quotaUnlimited:
		return "unlimited"
	case quotaLimited:
		return strconv.FormatUint(uint64(q.n), 10)
	}
	return "unset"
}

// MarshalJSON encodes an unlimited quota as null and a limited one as a number.
func (q Quota) MarshalJSON() ([]byte, error) {
	switch q.kind {
	case quotaUnlimited:
		return []byte("null"), nil
	case quotaLimited:
		return []byte(strconv.FormatUint(uint64(q.n), 10)), nil
	}
	return nil, ErrInvalidQuota
}

// UnmarshalJSON decodes null as Unlimited and a non-negative integer as Limited.
func (q *Quota) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Unlimited()
		return nil
	}
	var n uint
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Join(ErrInvalidQuota, err)
	}
	*q = Limited(n)
	return nil
}

// LedgerType is the kind of credit a ledger entry consumed.
type LedgerType uint8

// Ledger entry types. The zero value is invalid.
const (
	LedgerBase LedgerType = iota + 1
	LedgerBonusMonthly
)

const (
	ledgerBaseName         = "BASE"
	ledgerBonusMonthlyName = "BONUS_MONTHLY"
)

// ParseLedgerType converts the persisted name back to a LedgerType.
func ParseLedgerType(s string) (LedgerType, error) {
	switch s {
	case ledgerBaseName:
		return LedgerBase, nil
	case ledgerBonusMonthlyName:
		return LedgerBonusMonthly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLedgerType, s)
}

// Valid reports whether t is a known ledger type.
func (t LedgerType) Valid() bool {
	return t == LedgerBase || t == LedgerBonusMonthly
}

func (t LedgerType) String() string {
	switch t {
	case LedgerBase:
		return ledgerBaseName
	case LedgerBonusMonthly:
		return ledgerBonusMonthlyName
	}
	return "INVALID"
}

func (t LedgerType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidLedgerType
	}
	return []byte(t.String()), nil
}

func (t *LedgerType) UnmarshalText(text []byte) error {
	parsed, err := ParseLedgerType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ReferralStatus is the lifecycle state of a referral owned by the referral service.
// Only approved referrals grant bonus credits.
type ReferralStatus string

const (
	ReferralPending  ReferralStatus = "PENDING"
	ReferralApproved ReferralStatus = "APPROVED"
	ReferralRejected ReferralStatus = "REJECTED"
)

// Limits is a derived snapshot of a user's entitlements in one period.
type Limits struct {
	PlanCode       PlanCode `json:"plan_code"`
	PeriodKey      string   `json:"period_key"`
	BaseQuota      Quota    `json:"base_quota"`
	BaseUsed       int64    `json:"base_used"`
	BaseRemaining  Quota    `json:"base_remaining"`
	BonusGranted   int64    `json:"bonus_granted_this_month"`
	BonusUsed      int64    `json:"bonus_used_this_month"`
	BonusRemaining int64    `json:"bonus_remaining_this_month"`
}

// IsUnlimited reports whether the plan has no base ceiling.
func (l Limits) IsUnlimited() bool {
	return l.BaseQuota.IsUnlimited()
}

// HasBonus reports whether a bonus credit is left in the current period.
func (l Limits) HasBonus() bool {
	return l.BonusRemaining > 0
}

// HasBase reports whether a base credit is left (always true when unlimited).
func (l Limits) HasBase() bool {
	return l.IsUnlimited() || l.BaseRemaining.Available()
}

// NextLedgerType returns the credit the next consumption would spend.
// Unlimited plans record BASE; otherwise bonus is spent before base because
// it expires at the end of the period. ok is false when nothing is left.
func (l Limits) NextLedgerType() (t LedgerType, ok bool) {
	switch {
	case l.IsUnlimited():
		return LedgerBase, true
	case l.HasBonus():
		return LedgerBonusMonthly, true
	case l.HasBase():
		return LedgerBase, true
	}
	return 0, false
}

// ProjectPayload is the part of a project creation request this package
// stores. Everything in Payload is opaque and owned by the project domain.
type ProjectPayload struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Project is a created project row.
type Project struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// LedgerEntry is the immutable receipt of one consumed credit.
type LedgerEntry struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ProjectID uuid.UUID  `json:"project_id"`
	Type      LedgerType `json:"type"`
	PeriodKey string     `json:"period_key"`
	CreatedAt time.Time  `json:"created_at"`
}

// Receipt is returned by a successful TryConsume.
type Receipt struct {
	ProjectID uuid.UUID  `json:"project_id"`
	EntryID   uuid.UUID  `json:"entry_id"`
	Type      LedgerType `json:"type"`
	PeriodKey string     `json:"period_key"`
	CreatedAt time.Time  `json:"created_at"`
}
