package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/projectquota/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")

	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestIDAttrs(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, "user_id", logger.UserID(id).Key)
	assert.Equal(t, id, logger.UserID(id).Value.Any())
	assert.True(t, logger.UserID(nil).Equal(slog.Attr{}))

	assert.Equal(t, "project_id", logger.ProjectID(id).Key)
	assert.True(t, logger.ProjectID(nil).Equal(slog.Attr{}))

	assert.Equal(t, "request_id", logger.RequestID("abc").Key)
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{logger.PlanCode("PRO"), "plan_code", "PRO"},
		{logger.PeriodKey("2025-01"), "period_key", "2025-01"},
		{logger.LedgerType("BASE"), "ledger_type", "BASE"},
		{logger.Component("gate"), "component", "gate"},
		{logger.Event("invariant_violation"), "event", "invariant_violation"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, tt.attr.Key)
		assert.Equal(t, tt.val, tt.attr.Value.String())
	}
}
