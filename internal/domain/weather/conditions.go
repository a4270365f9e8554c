package weather

import "strings"

// Condition describes one WMO weather code
type Condition struct {
	Description string
	DayIcon     string
	NightIcon   string
}

// Icon picks the day or night variant
func (c Condition) Icon(isDay bool) string {
	if !isDay && c.NightIcon != "" {
		return c.NightIcon
	}
	return c.DayIcon
}

// UnknownIcon is shown for codes missing from the table
const UnknownIcon = "❓"

var conditions = map[int]Condition{
	0:  {"Clear Sky", "clear_day", "clear_night"},
	1:  {"Mainly Clear", "partly_cloudy_day", "partly_cloudy_night"},
	2:  {"Partly Cloudy", "partly_cloudy_day", "partly_cloudy_night"},
	3:  {"Overcast", "cloudy", ""},
	45: {"Fog", "foggy", ""},
	48: {"Depositing Rime Fog", "foggy", ""},
	51: {"Light Drizzle", "rainy_light", ""},
	53: {"Moderate Drizzle", "rainy", ""},
	55: {"Dense Drizzle", "rainy", ""},
	56: {"Light Freezing Drizzle", "cloudy_snowing", ""},
	57: {"Dense Freezing Drizzle", "cloudy_snowing", ""},
	61: {"Slight Rain", "rainy_light", ""},
	63: {"Moderate Rain", "rainy", ""},
	65: {"Heavy Rain", "rainy_heavy", ""},
	66: {"Light Freezing Rain", "cloudy_snowing", ""},
	67: {"Heavy Freezing Rain", "cloudy_snowing", ""},
	71: {"Slight Snow", "weather_snowy", ""},
	73: {"Moderate Snow", "weather_snowy", ""},
	75: {"Heavy Snow", "weather_snowy", ""},
	77: {"Snow Grains", "weather_snowy", ""},
	80: {"Slight Showers", "rainy_light", ""},
	81: {"Moderate Showers", "rainy", ""},
	82: {"Violent Showers", "thunderstorm", ""},
	85: {"Slight Snow Showers", "weather_snowy", ""},
	86: {"Heavy Snow Showers", "weather_snowy", ""},
	95: {"Thunderstorm", "thunderstorm", ""},
	96: {"Thunderstorm with Hail", "thunderstorm", ""},
	99: {"Heavy Thunderstorm with Hail", "thunderstorm", ""},
}

// Lookup returns the condition for a WMO code
func Lookup(code int) (Condition, bool) {
	c, ok := conditions[code]
	return c, ok
}

// Temperature units accepted by the forecast API
const (
	Celsius    = "celsius"
	Fahrenheit = "fahrenheit"
)

var fahrenheitCountries = map[string]bool{
	"US": true, "BS": true, "KY": true, "LR": true, "PW": true, "FM": true, "MH": true,
}

// UnitFor returns the temperature unit used in a country
func UnitFor(countryCode string) string {
	if fahrenheitCountries[strings.ToUpper(strings.TrimSpace(countryCode))] {
		return Fahrenheit
	}
	return Celsius
}
