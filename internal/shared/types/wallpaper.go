package types

import "time"

// MediaType distinguishes still images from videos
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaRef points at one payload in the media store
type MediaRef struct {
	ID        string    `json:"id"`
	MediaType MediaType `json:"media_type"`
	MIME      string    `json:"mime"`
}

// WallpaperEntry is one slot of the wallpaper history.
// ID is the media store key; slideshow entries carry no ID of their own and
// their media lives in Slides. Key identifies the slot itself and is set for
// every entry, so style changes can be addressed to slideshows too.
type WallpaperEntry struct {
	Key         string        `json:"key"`
	ID          string        `json:"id,omitempty"`
	MediaType   MediaType     `json:"media_type,omitempty"`
	MIME        string        `json:"mime,omitempty"`
	IsSlideshow bool          `json:"is_slideshow"`
	Slides      []MediaRef    `json:"slides,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Style       *StyleProfile `json:"style,omitempty"`
}

// MediaKeys returns every media store key owned by the entry
func (e *WallpaperEntry) MediaKeys() []string {
	if e.IsSlideshow {
		keys := make([]string, 0, len(e.Slides))
		for _, s := range e.Slides {
			keys = append(keys, s.ID)
		}
		return keys
	}
	if e.ID == "" {
		return nil
	}
	return []string{e.ID}
}

// Clone returns a deep copy; style profiles are never shared between entries
func (e *WallpaperEntry) Clone() *WallpaperEntry {
	c := *e
	if e.Slides != nil {
		c.Slides = append([]MediaRef(nil), e.Slides...)
	}
	if e.Style != nil {
		c.Style = e.Style.Clone()
	}
	return &c
}

// HistorySnapshot is the read model of the wallpaper history
type HistorySnapshot struct {
	Entries  []*WallpaperEntry `json:"entries"`
	Position int               `json:"position"`
	Capacity int               `json:"capacity"`
}

// Current returns the selected entry or nil when history is empty
func (s HistorySnapshot) Current() *WallpaperEntry {
	if len(s.Entries) == 0 || s.Position < 0 || s.Position >= len(s.Entries) {
		return nil
	}
	return s.Entries[s.Position]
}

// WallpaperView is what the page renders for the wallpaper layer.
// Entry is nil when history is empty and the default background shows.
type WallpaperView struct {
	Entry    *WallpaperEntry `json:"entry,omitempty"`
	Media    *MediaRef       `json:"media,omitempty"`
	Slide    int             `json:"slide"`
	Position int             `json:"position"`
	Count    int             `json:"count"`
}
