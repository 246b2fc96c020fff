// Package period derives monthly billing-period keys from wall-clock time.
//
// A period key is the calendar year-month of an instant as observed in a
// single billing timezone, formatted "YYYY-MM". The timezone is chosen once
// for the whole system, so month rollover does not depend on the host
// locale or on UTC.
//
// Storage and transport stay in UTC. The billing zone is only used to decide
// which month an instant belongs to.
//
// Usage:
//
//	calc, err := period.New("America/New_York")
//	if err != nil {
//		return err
//	}
//	key := calc.Key(time.Now()) // e.g. "2025-01"
//
// Callers inject the clock; the calculator never reads time.Now itself.
package period
