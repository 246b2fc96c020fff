// Package limitscache caches limits snapshots for the read-only limits
// endpoint.
//
// Snapshots are advisory: the consume path in pkg/entitlement never reads
// them. A committed consumption invalidates the user's snapshot through the
// Gate's after-commit hook:
//
//	cached := limitscache.New(limits, limitscache.NewRedisBackend(client))
//	gate := entitlement.NewGate(store, limits, entitlement.WithAfterCommit(cached.AfterCommit()))
//
// Without Redis, NewMemoryBackend keeps snapshots in process.
package limitscache
