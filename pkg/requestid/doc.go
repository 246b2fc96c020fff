// Package requestid correlates log records that belong to one HTTP request.
//
// Middleware attaches an ID to every request: a client-supplied X-Request-ID
// is reused when it is at most 128 characters of [a-zA-Z0-9_-], otherwise a
// new UUID is generated. LogExtractor plugs the ID into pkg/logger:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LogExtractor()))
//	r.Use(requestid.Middleware)
package requestid
