// Package types provides shared data structures for the shell backend.
//
// Core Types:
//   - WallpaperEntry: one slot of the wallpaper history (single media or slideshow)
//   - MediaRef: a reference into the media store
//   - StyleProfile: clock/weather display settings bound to a wallpaper
//   - EmbedSession: an iframe-hosted mini-app and its lifecycle state
//   - Envelope: cross-document message addressed to an embedded app
//   - WeatherSnapshot: last known weather for the widget
//   - Notice: transient user-visible notification
//
// Request Types:
//   - SwitchRequest, ReorderRequest, StyleChangeRequest, OpenEmbedRequest,...
//   - WSMessage: WebSocket communication
package types
