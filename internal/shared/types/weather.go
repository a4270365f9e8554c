package types

import "time"

// WeatherSnapshot is the last weather state shown by the widget
type WeatherSnapshot struct {
	City            string    `json:"city"`
	TemperatureUnit string    `json:"temperatureUnit"`
	Temperature     float64   `json:"temperature"`
	WeatherCode     int       `json:"weathercode"`
	Description     string    `json:"description"`
	Icon            string    `json:"icon"`
	IsDay           bool      `json:"is_day"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// WeatherView is what the widget renders
type WeatherView struct {
	Visible  bool             `json:"visible"`
	Stale    bool             `json:"stale"`
	Snapshot *WeatherSnapshot `json:"snapshot,omitempty"`
}
