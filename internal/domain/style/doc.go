/*
Package style binds clock and weather styling to wallpapers.

The Panel is the live set of style controls. The Binder captures it when a
wallpaper is saved, applies an entry's profile when the wallpaper becomes
current, and routes every control change into the entry that was current
when the change was made. Capture and Apply cover the same seven fields, so
switching away from a wallpaper and back restores exactly what was saved.
*/
package style
