package types

// NoticeLevel grades a transient notification
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient user-visible notification
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// Notice codes surfaced to the page; the page maps them to localized strings
const (
	NoticeWallpaperUpdated  = "WALLPAPER_UPDATED"
	NoticeWallpaperSaveFail = "WALLPAPER_SAVE_FAIL"
	NoticeWallpaperLoadFail = "WALLPAPER_LOAD_FAIL"
	NoticeUnsupportedFile   = "WALLPAPER_UPDATE_FAIL"
	NoticeWallpaperRemoved  = "WALLPAPER_REMOVE"
	NoticeAllRemoved        = "ALL_WALLPAPER_REMOVE"
	NoticeEmbedFallback     = "EMBED_OPENED_EXTERNALLY"
	NoticeLocationFailed    = "FAIL_LOCATION"
	NoticeWeatherFailed     = "FAIL_WEATHER"
	NoticeOffline           = "OFFLINE"
)
