// Package http provides the REST handlers of the home screen shell.
//
// Every mutation also reaches connected pages through the websocket stream,
// so responses carry the resulting read model for the caller's convenience
// only. Failures are mapped from their failure.Kind:
//
//	invalid_input, media_decode → 400
//	not_found                   → 404
//	embed_load                  → 409
//	geolocation_denied          → 403
//	network                     → 502
//	storage                     → 507
package http
