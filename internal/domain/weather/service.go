package weather

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/timer"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// UnknownLocation is shown when reverse geocoding finds no settlement
const UnknownLocation = "Unknown Location"

// Position is a geolocation fix reported by the page
type Position struct {
	Latitude  float64
	Longitude float64
}

// Request is one refresh: either a position or a denial
type Request struct {
	Position *Position
	Denied   bool
	Timezone string
}

// Fetcher performs JSON GETs
type Fetcher interface {
	GetJSON(ctx context.Context, url string, query map[string]string, out interface{}) error
}

// StateStore caches the last good snapshot
type StateStore interface {
	GetJSON(key string, out interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// Renderer projects the widget
type Renderer interface {
	RenderWeather(v types.WeatherView)
}

// Notifier surfaces transient notices
type Notifier interface {
	Notify(n types.Notice)
}

// Options configures a Service
type Options struct {
	GeocodeURL  string
	ForecastURL string
	// Geocoder and Forecaster default to the same fetcher when one is nil
	Geocoder   Fetcher
	Forecaster Fetcher
	State      StateStore
	Renderer   Renderer
	Notifier   Notifier
	// Visible reports the showWeather setting
	Visible func() bool
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// Service keeps the weather widget current. Responses to a request that
// has since been superseded are discarded.
type Service struct {
	opts   Options
	strict *bluemonday.Policy
	logger *zap.Logger

	mu      sync.Mutex
	gen     uint64
	last    *Request
	current types.WeatherView

	slot timer.Slot
}

// NewService creates a weather service
func NewService(opts Options) *Service {
	if opts.Geocoder == nil {
		opts.Geocoder = opts.Forecaster
	}
	if opts.Forecaster == nil {
		opts.Forecaster = opts.Geocoder
	}
	if opts.Visible == nil {
		opts.Visible = func() bool { return true }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{opts: opts, strict: bluemonday.StrictPolicy(), logger: logger}
	if snap, ok := s.cached(); ok && opts.Visible() {
		s.current = types.WeatherView{Visible: true, Stale: true, Snapshot: snap}
	}
	return s
}

// View returns what the widget currently shows
func (s *Service) View() types.WeatherView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Refresh fetches weather for req and updates the widget. On failure the
// cached snapshot is shown when there is one, otherwise the widget is
// hidden. The returned error describes the failure even when a cached
// snapshot is shown.
func (s *Service) Refresh(ctx context.Context, req Request) (types.WeatherView, error) {
	if !s.opts.Visible() {
		return s.hide(), nil
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	r := req
	s.last = &r
	s.mu.Unlock()

	if req.Denied || req.Position == nil {
		s.notify(types.NoticeLocationFailed)
		err := failure.Newf(failure.KindGeolocationDenied, "weather.refresh", "location unavailable")
		return s.fallback(gen), err
	}

	snap, err := s.fetch(ctx, *req.Position, req.Timezone)
	if err != nil {
		s.record("error")
		s.logger.Warn("Weather fetch failed", zap.Error(err))
		view := s.fallback(gen)
		if view.Snapshot == nil {
			s.notify(types.NoticeWeatherFailed)
		}
		return view, err
	}
	s.record("success")

	view := types.WeatherView{Visible: true, Snapshot: snap}
	if !s.apply(gen, view) {
		s.record("stale")
		return s.View(), nil
	}
	if s.opts.State != nil {
		if err := s.opts.State.SetJSON(ctx, settings.KeyLastWeather, snap); err != nil {
			s.logger.Warn("Failed to cache weather", zap.Error(err))
		}
	}
	return view, nil
}

// RefreshLast repeats the most recent request, if any
func (s *Service) RefreshLast(ctx context.Context) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return
	}
	if _, err := s.Refresh(ctx, *last); err != nil {
		s.logger.Debug("Periodic weather refresh failed", zap.Error(err))
	}
}

// Start refreshes every interval until Stop. Restarting replaces the timer.
func (s *Service) Start(interval time.Duration) {
	s.slot.Every(interval, func(gen uint64) {
		if !s.slot.Current(gen) {
			return
		}
		s.RefreshLast(context.Background())
	})
}

// Stop cancels periodic refresh
func (s *Service) Stop() {
	s.slot.Stop()
}

// VisibilityChanged re-evaluates the showWeather setting
func (s *Service) VisibilityChanged(ctx context.Context) {
	if !s.opts.Visible() {
		s.hide()
		return
	}
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last != nil {
		s.RefreshLast(ctx)
		return
	}
	view := types.WeatherView{}
	if snap, ok := s.cached(); ok {
		view = types.WeatherView{Visible: true, Stale: true, Snapshot: snap}
	}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	s.apply(gen, view)
}

func (s *Service) hide() types.WeatherView {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	view := types.WeatherView{}
	s.apply(gen, view)
	return view
}

func (s *Service) fallback(gen uint64) types.WeatherView {
	view := types.WeatherView{}
	if snap, ok := s.cached(); ok {
		view = types.WeatherView{Visible: true, Stale: true, Snapshot: snap}
	}
	if !s.apply(gen, view) {
		return s.View()
	}
	return view
}

// apply installs view unless a newer request started after gen
func (s *Service) apply(gen uint64, view types.WeatherView) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale weather result")
		return false
	}
	s.current = view
	s.mu.Unlock()

	if s.opts.Renderer != nil {
		s.opts.Renderer.RenderWeather(view)
	}
	return true
}

func (s *Service) cached() (*types.WeatherSnapshot, bool) {
	if s.opts.State == nil {
		return nil, false
	}
	var snap types.WeatherSnapshot
	found, err := s.opts.State.GetJSON(settings.KeyLastWeather, &snap)
	if err != nil || !found || snap.TemperatureUnit == "" {
		return nil, false
	}
	return &snap, true
}

type geocodeResponse struct {
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

type forecastResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
		IsDay       *int    `json:"is_day"`
	} `json:"current_weather"`
}

func (s *Service) fetch(ctx context.Context, pos Position, tz string) (*types.WeatherSnapshot, error) {
	lat := strconv.FormatFloat(pos.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(pos.Longitude, 'f', -1, 64)

	var geo geocodeResponse
	err := s.opts.Geocoder.GetJSON(ctx, strings.TrimSuffix(s.opts.GeocodeURL, "/")+"/reverse", map[string]string{
		"format":          "json",
		"lat":             lat,
		"lon":             lon,
		"accept-language": "en",
	}, &geo)
	if err != nil {
		return nil, err
	}

	city := firstNonEmpty(geo.Address.City, geo.Address.Town, geo.Address.Village)
	city = strings.TrimSpace(s.strict.Sanitize(city))
	if city == "" {
		city = UnknownLocation
	}
	unit := UnitFor(geo.Address.CountryCode)
	if tz == "" {
		tz = "auto"
	}

	var fc forecastResponse
	err = s.opts.Forecaster.GetJSON(ctx, strings.TrimSuffix(s.opts.ForecastURL, "/")+"/v1/forecast", map[string]string{
		"latitude":         lat,
		"longitude":        lon,
		"current_weather":  "true",
		"timezone":         tz,
		"temperature_unit": unit,
	}, &fc)
	if err != nil {
		return nil, err
	}
	if fc.Current == nil {
		return nil, failure.New(failure.KindNetwork, "weather.fetch", errors.New("weather data not available"))
	}

	isDay := true
	if fc.Current.IsDay != nil {
		isDay = *fc.Current.IsDay == 1
	}
	snap := &types.WeatherSnapshot{
		City:            city,
		TemperatureUnit: unit,
		Temperature:     fc.Current.Temperature,
		WeatherCode:     fc.Current.WeatherCode,
		IsDay:           isDay,
		Icon:            UnknownIcon,
		FetchedAt:       s.opts.Now(),
	}
	if c, ok := Lookup(snap.WeatherCode); ok {
		snap.Description = c.Description
		snap.Icon = c.Icon(isDay)
	}
	return snap, nil
}

func (s *Service) notify(code string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(types.Notice{Level: types.NoticeError, Code: code})
	}
}

func (s *Service) record(outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.WeatherFetches.WithLabelValues(outcome).Inc()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
