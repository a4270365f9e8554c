// Package server composes the shell, its storage and upstream clients, and
// the HTTP and websocket surface into one runnable server.
//
// Middleware order: recovery, tracing (X-Request-ID), metrics, CORS limited
// to the page origin, then per-IP rate limiting.
package server
