// Package ws provides the websocket stream that keeps pages in sync with the shell.
//
// The Hub is the shell's projector: every render, notice and frame operation
// becomes a sequenced event broadcast to all connected pages. Frames from a
// page are dispatched to the shell.
//
// Message Types (Client → Server):
//   - pointer_down, pointer_move, pointer_up: raw pointer samples
//   - element_removed: the element under a drag left the page (target, plus index for dots)
//   - viewport: page size in CSS pixels
//   - style_change: one clock style control changed
//   - message: cross-document message for an embedded app
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - state: full projection, sent first on connect
//   - style, wallpaper, slide, weather: layer renders
//   - drawer, dock, drag: drawer state and live drag feedback
//   - embed: frame create/show/hide/post/remove
//   - navigate: open a URL top-level
//   - notice: transient notification
//   - pong, error
//
// Example Usage:
//
//	hub := ws.NewHub(cfg.Server.Origin, metrics, logger)
//	router.GET("/stream", hub.HandleConnection)
package ws
