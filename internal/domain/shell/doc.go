// Package shell composes the home screen: settings, media store, style
// binder, wallpaper history, app catalog, embed manager, weather service and
// gesture recognizer, wired to one Projector that carries state changes to
// the connected pages.
//
// Pointer input is serialised under one lock and fed to the recognizer; the
// gestures it resolves are carried out against the history, the drawer and
// the embed manager.
package shell
