package types

// Style keys accepted in style change events
const (
	StyleFont         = "font"
	StyleWeight       = "weight"
	StyleColor        = "color"
	StyleColorEnabled = "colorEnabled"
	StyleStackEnabled = "stackEnabled"
	StyleShowSeconds  = "showSeconds"
	StyleShowWeather  = "showWeather"
)

// StyleProfile is the bundle of clock/weather display settings bound to one wallpaper
type StyleProfile struct {
	Font         string `json:"font"`
	Weight       string `json:"weight"`
	Color        string `json:"color"`
	ColorEnabled bool   `json:"colorEnabled"`
	StackEnabled bool   `json:"stackEnabled"`
	ShowSeconds  bool   `json:"showSeconds"`
	ShowWeather  bool   `json:"showWeather"`
}

// DefaultStyleProfile returns the profile used when nothing was captured
func DefaultStyleProfile() StyleProfile {
	return StyleProfile{
		Font:         "Inter",
		Weight:       "700",
		Color:        "#ffffff",
		ColorEnabled: false,
		StackEnabled: false,
		ShowSeconds:  true,
		ShowWeather:  true,
	}
}

// Clone returns an independent copy
func (p *StyleProfile) Clone() *StyleProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// StyleChange is the notification emitted whenever a style control changes.
// EntryID is the history entry that was current when the change happened.
type StyleChange struct {
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
	EntryID string      `json:"entry_id,omitempty"`
}
