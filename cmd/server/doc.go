// Package main is the entry point for the home-screen shell server.
//
// The server owns the wallpaper history, style profile, app catalog, embed
// sessions, weather widget and settings, and drives a browser page over a
// websocket stream. The page renders; the server decides.
//
// Configuration:
//   - Optional TOML file named by HOMESCREEN_CONFIG
//   - Environment variables (12-factor), applied over the file
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
