package types

// DrawerView is the app drawer and dock state
type DrawerView struct {
	Open        bool `json:"open"`
	DockVisible bool `json:"dock_visible"`
	AppsEnabled bool `json:"apps_enabled"`
}

// ShellState is the full projection sent to a page when it connects
type ShellState struct {
	History   HistorySnapshot        `json:"history"`
	Wallpaper WallpaperView          `json:"wallpaper"`
	Style     StyleProfile           `json:"style"`
	Drawer    DrawerView             `json:"drawer"`
	Grid      []App                  `json:"grid"`
	Dock      []App                  `json:"dock"`
	Embeds    []EmbedSession         `json:"embeds"`
	Weather   WeatherView            `json:"weather"`
	Settings  map[string]interface{} `json:"settings"`
}

// Outbound event types
const (
	EventStyle     = "style"
	EventWallpaper = "wallpaper"
	EventSlide     = "slide"
	EventDrawer    = "drawer"
	EventDock      = "dock"
	EventDrag      = "drag"
	EventEmbed     = "embed"
	EventNavigate  = "navigate"
	EventWeather   = "weather"
	EventNotice    = "notice"
	EventState     = "state"
	EventPong      = "pong"
	EventError     = "error"
)
