package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimezone is the billing anchor used when none is configured.
const DefaultTimezone = "America/New_York"

// keyLayout is the reference layout for "YYYY-MM".
const keyLayout = "2006-01"

// Calculator maps instants to period keys in a fixed billing timezone.
// The zero value is not usable; construct it with New.
type Calculator struct {
	loc *time.Location
}

// New returns a Calculator anchored to the given IANA timezone.
// "Local" is rejected: it would make period boundaries depend on the host.
func New(tz string) (Calculator, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return Calculator{}, ErrEmptyTimezone
	}
	if strings.EqualFold(tz, "local") {
		return Calculator{}, errors.Join(ErrInvalidTimezone, fmt.Errorf("host-local timezone is not allowed"))
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calculator{}, errors.Join(ErrInvalidTimezone, err)
	}
	return Calculator{loc: loc}, nil
}

// MustNew is like New but panics on error. Intended for tests and static setup.
func MustNew(tz string) Calculator {
	c, err := New(tz)
	if err != nil {
		panic(fmt.Sprintf("period: %v", err))
	}
	return c
}

// Location returns the billing timezone.
func (c Calculator) Location() *time.Location {
	return c.loc
}

// Key returns the period key of t in the billing timezone.
func (c Calculator) Key(t time.Time) string {
	return t.In(c.loc).Format(keyLayout)
}

// Bounds returns the UTC instants at which the period starts (inclusive)
// and ends (exclusive).
func (c Calculator) Bounds(key string) (start, end time.Time, err error) {
	t, err := time.ParseInLocation(keyLayout, key, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Join(ErrInvalidPeriodKey, err)
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
	end = start.AddDate(0, 1, 0)
	return start.UTC(), end.UTC(), nil
}

// Next returns the key of the period following key.
func (c Calculator) Next(key string) (string, error) {
	_, end, err := c.Bounds(key)
	if err != nil {
		return "", err
	}
	return c.Key(end), nil
}

// Validate reports whether key is a well-formed "YYYY-MM" period key.
func Validate(key string) error {
	if len(key) != len(keyLayout) {
		return ErrInvalidPeriodKey
	}
	if _, err := time.Parse(keyLayout, key); err != nil {
		return errors.Join(ErrInvalidPeriodKey, err)
	}
	return nil
}
