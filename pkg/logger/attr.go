package logger

import (
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// ProjectID records the project identifier under the key "project_id".
func ProjectID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("project_id", id)
}

// RequestID records the request identifier under the key "request_id".
// Empty IDs produce an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// PlanCode records the plan code under the key "plan_code".
func PlanCode(code string) slog.Attr {
	return slog.String("plan_code", code)
}

// PeriodKey records the billing period under the key "period_key".
func PeriodKey(key string) slog.Attr {
	return slog.String("period_key", key)
}

// LedgerType records the consumed credit type under the key "ledger_type".
func LedgerType(t string) slog.Attr {
	return slog.String("ledger_type", t)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
