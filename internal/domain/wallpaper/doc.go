/*
Package wallpaper manages the wallpaper history.

The history is a most-recent-first list of at most ten entries with one
current position. An entry is either a single image or video, or a slideshow
of several media items cycled by a timer while it is current. Media is stored
in the media store before the history changes; if that write fails the
history is left untouched. Each entry carries the style profile captured
when it was saved, and switching to it applies that profile before the media
renders.
*/
package wallpaper
