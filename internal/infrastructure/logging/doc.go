// Package logging wraps zap for the shell server.
//
// Production writes JSON lines; development writes coloured console output.
// Each component takes a named child via Component, so a history line reads
//
//	{"level":"info","logger":"history","message":"wallpaper added","wallpaper_id":"wallpaper_01J..."}
//
// The level is atomic and can be changed while running (see SetLevel).
package logging
