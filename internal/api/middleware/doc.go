// Package middleware holds the gin middleware of the shell API: CORS pinned
// to the page origin and a per-IP token bucket limiter.
//
//	router.Use(middleware.CORS(cfg.Server.Origin))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//
// The limiter answers 429 with Retry-After and the API's error body. The
// websocket upgrade and metrics scrapes are exempt by default; clients idle
// longer than IdleTTL are forgotten.
package middleware
