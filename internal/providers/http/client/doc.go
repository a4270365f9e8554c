// Package client is the outbound HTTP client shared by the weather service
// and the framing probe.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp transport:
//   - Retries with exponential backoff on connection errors and 5xx
//   - Token-bucket rate limiting per upstream (public APIs such as
//     Nominatim ask for at most one request per second)
//   - A circuit breaker per upstream so a dead service fails fast
//   - Request ids propagated from the inbound request context
//
// Example Usage:
//
//	c := client.New(client.DefaultConfig("open-meteo"))
//	var out forecast
//	err := c.GetJSON(ctx, url, map[string]string{"latitude": "52.5"}, &out)
package client
