// Package settings persists the shell's user settings and the internal state
// other components keep between sessions (wallpaper history, app usage,
// cached weather). Unknown or corrupt values read as their defaults.
package settings
