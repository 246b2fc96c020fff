package period

import "errors"

var (
	ErrEmptyTimezone    = errors.New("period.errors.empty_timezone")
	ErrInvalidTimezone  = errors.New("period.errors.invalid_timezone")
	ErrInvalidPeriodKey = errors.New("period.errors.invalid_period_key")
)
