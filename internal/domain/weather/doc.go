// Package weather drives the clock's weather widget: reverse geocoding
// through Nominatim, current conditions from Open-Meteo, a cached snapshot
// for when either is unreachable, and a periodic refresh.
package weather
