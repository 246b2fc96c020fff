// Package cache provides a generic in-process LRU cache with per-entry expiry.
//
//	c := cache.NewTTLCache[string, []byte](10_000, 30*time.Second)
//	c.Set("k", v)
//	v, ok := c.Get("k")
//
// All operations are O(1) and safe for concurrent use. The cache backs the
// in-process limits cache when Redis is not configured.
package cache
