// Package jwt authenticates API callers with HS256 access tokens.
//
// Tokens are issued and verified with github.com/golang-jwt/jwt/v5. The
// subject claim carries the user's UUID; Verify rejects tokens without one,
// tokens signed with any other algorithm and tokens without an expiry.
//
//	svc, err := jwt.New(secret, jwt.WithIssuer("projectquota"), jwt.WithTTL(time.Hour))
//	r.Use(jwt.Middleware(svc))
//
//	// in a handler
//	userID, ok := jwt.UserIDFromContext(r.Context())
package jwt
