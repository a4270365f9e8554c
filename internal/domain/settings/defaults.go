package settings

// Setting keys shared with other components
const (
	KeyLanguage           = "selectedLanguage"
	KeyUse12Hour          = "use12HourFormat"
	KeyShowSeconds        = "showSeconds"
	KeyTheme              = "theme"
	KeyHighContrast       = "highContrast"
	KeyAnimations         = "animationsEnabled"
	KeyAppsEnabled        = "gurappsEnabled"
	KeyMinimalMode        = "minimalMode"
	KeySilentMode         = "silentMode"
	KeyBrightness         = "page_brightness"
	KeyDisplayTemperature = "display_temperature"
	KeyClockFont          = "clockFont"
	KeyClockWeight        = "clockWeight"
	KeyClockColor         = "clockColor"
	KeyClockColorEnabled  = "clockColorEnabled"
	KeyClockStackEnabled  = "clockStackEnabled"
	KeyShowWeather        = "showWeather"

	// internal state, not part of the user facing table
	KeyRecentWallpapers  = "recentWallpapers"
	KeyWallpaperPosition = "wallpaperPosition"
	KeyAppUsage          = "appUsage"
	KeyAppLastOpened     = "appLastOpened"
	KeyLastWeather       = "lastWeatherData"
)

// Setting describes one user facing setting
type Setting struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Default     interface{} `json:"default"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

var defaults = map[string]Setting{
	KeyLanguage:           {Default: "EN", Category: "general", Description: "Interface language"},
	KeyUse12Hour:          {Default: false, Category: "clock", Description: "12-hour clock"},
	KeyShowSeconds:        {Default: true, Category: "clock", Description: "Show seconds"},
	KeyTheme:              {Default: "dark", Category: "appearance", Description: "Color theme (dark or light)"},
	KeyHighContrast:       {Default: false, Category: "appearance", Description: "High contrast mode"},
	KeyAnimations:         {Default: true, Category: "appearance", Description: "Enable animations"},
	KeyAppsEnabled:        {Default: true, Category: "apps", Description: "Enable mini-apps and the app drawer"},
	KeyMinimalMode:        {Default: false, Category: "appearance", Description: "Hide everything but the clock"},
	KeySilentMode:         {Default: false, Category: "general", Description: "Suppress notices"},
	KeyBrightness:         {Default: 100.0, Category: "display", Description: "Page brightness (percent)"},
	KeyDisplayTemperature: {Default: 0.0, Category: "display", Description: "Color temperature shift"},
	KeyClockFont:          {Default: "Inter", Category: "clock", Description: "Clock font"},
	KeyClockWeight:        {Default: "700", Category: "clock", Description: "Clock font weight"},
	KeyClockColor:         {Default: "#ffffff", Category: "clock", Description: "Clock color"},
	KeyClockColorEnabled:  {Default: false, Category: "clock", Description: "Use the custom clock color"},
	KeyClockStackEnabled:  {Default: false, Category: "clock", Description: "Stack hours over minutes"},
	KeyShowWeather:        {Default: true, Category: "clock", Description: "Show the weather widget"},
}

// Known reports whether key is a user facing setting
func Known(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Default returns the default value of key
func Default(key string) (interface{}, bool) {
	s, ok := defaults[key]
	return s.Default, ok
}
