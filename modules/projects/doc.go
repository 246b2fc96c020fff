// Package projects exposes the entitlement ledger over HTTP.
//
// Routes (all JSON):
//
//	GET  /healthz    dependency checks, no authentication
//	GET  /limits     the caller's limits snapshot for the current period
//	POST /projects   create a project if the caller has a credit left
//	GET  /ledger     the caller's most recent ledger entries (?limit=1..200)
//
// Every route except /healthz requires a bearer token verified by
// pkg/jwt; the token subject is the user ID. Domain errors are mapped
// by MapError:
//
//	403 LIMIT_REACHED          no base or bonus credit left
//	422 PROJECT_CREATE_FAILED  invalid project payload (with details)
//	500 PROJECT_CREATE_FAILED  project insert failed
//	500 LEDGER_FAILED          ledger append failed, nothing was stored
//	500 PLAN_NOT_FOUND         the user has no resolvable plan
//	503 STORAGE_UNAVAILABLE    transient storage failure, safe to retry
//	401 UNAUTHORIZED           missing or invalid token
package projects
