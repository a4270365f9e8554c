package shell

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/catalog"
	"github.com/GriffinCanCode/homescreen/internal/domain/embed"
	"github.com/GriffinCanCode/homescreen/internal/domain/gesture"
	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/domain/style"
	"github.com/GriffinCanCode/homescreen/internal/domain/wallpaper"
	"github.com/GriffinCanCode/homescreen/internal/domain/weather"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/config"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// Projector carries state changes to connected pages
type Projector interface {
	style.Renderer
	wallpaper.Renderer
	weather.Renderer
	embed.Document
	embed.Navigator
	Notify(n types.Notice)
	Emit(eventType string, data interface{})
}

// Deps are the collaborators a Shell is built from
type Deps struct {
	Config    *config.Config
	DB        *sql.DB
	Projector Projector
	// Media defaults to a SQLite store on DB
	Media media.Store
	// Fetcher serves both weather upstreams; nil disables fetching
	Geocoder   weather.Fetcher
	Forecaster weather.Fetcher
	// Probe enables the framing check on embed open
	Probe   embed.Probe
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

// Shell owns one instance of every home screen component
type Shell struct {
	Settings *settings.Store
	Media    media.Store
	Style    *style.Binder
	History  *wallpaper.Manager
	Embeds   *embed.Manager
	Catalog  *catalog.Catalog
	Weather  *weather.Service

	projector Projector
	cfg       *config.Config
	logger    *zap.Logger

	// inputMu serialises pointer input through the recognizer
	inputMu     sync.Mutex
	gestures    *gesture.Recognizer
	dockVisible bool

	weatherShown atomic.Bool
}

// New wires the components and restores persisted state
func New(ctx context.Context, deps Deps) (*Shell, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	proj := deps.Projector

	st, err := settings.NewStore(ctx, deps.DB, logger.Named("settings"))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	store := deps.Media
	if store == nil {
		sqliteStore, err := media.NewSQLiteStore(deps.DB, logger.Named("media"))
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
		store = sqliteStore
	}

	s := &Shell{
		Settings:  st,
		Media:     store,
		projector: proj,
		cfg:       cfg,
		logger:    logger,
	}

	panel := style.NewPanel(style.FromSettings(st), proj)
	s.Style = style.NewBinder(panel, st, logger)

	s.History = wallpaper.NewManager(store, st, s.Style, proj, proj, wallpaper.Options{
		Capacity:          cfg.Wallpaper.Capacity,
		SlideshowInterval: cfg.Wallpaper.SlideshowInterval,
		Compressor:        wallpaper.NewCompressor(cfg.Wallpaper.MaxDimension, cfg.Wallpaper.Quality),
		Metrics:           deps.Metrics,
		Logger:            logger.Named("wallpaper"),
	})
	s.Style.Attach(s.History)

	s.Catalog = catalog.New(st, logger.Named("catalog"))
	if cfg.Embed.AppsDir != "" {
		if _, err := catalog.NewSeeder(s.Catalog, cfg.Embed.AppsDir, logger.Named("catalog")).Seed(ctx); err != nil {
			logger.Warn("App manifests not loaded", zap.Error(err))
		}
	}

	s.Embeds = embed.NewManager(proj, proj, cfg.Server.Origin, logger.Named("embed")).
		WithMetrics(deps.Metrics).
		WithResolver(s.resolveApp)
	if deps.Probe != nil && cfg.Embed.ProbeEnabled {
		s.Embeds.WithProbe(deps.Probe)
	}

	s.Weather = weather.NewService(weather.Options{
		GeocodeURL:  cfg.Weather.GeocodeURL,
		ForecastURL: cfg.Weather.ForecastURL,
		Geocoder:    deps.Geocoder,
		Forecaster:  deps.Forecaster,
		State:       st,
		Renderer:    proj,
		Notifier:    proj,
		Visible:     func() bool { return st.Bool(settings.KeyShowWeather) },
		Metrics:     deps.Metrics,
		Logger:      logger.Named("weather"),
	})
	s.weatherShown.Store(st.Bool(settings.KeyShowWeather))

	s.gestures = gesture.NewRecognizer(dispatcher{s}, surface{s}, gesture.Options{
		Viewport: gesture.Viewport{Width: 1280, Height: 800},
		Metrics:  deps.Metrics,
		Logger:   logger.Named("gesture"),
	})

	st.OnChange(s.settingChanged)

	if err := s.History.Load(ctx); err != nil {
		return nil, fmt.Errorf("restore wallpaper history: %w", err)
	}
	if cfg.Weather.RefreshInterval > 0 && (deps.Geocoder != nil || deps.Forecaster != nil) {
		s.Weather.Start(cfg.Weather.RefreshInterval)
	}

	logger.Info("Shell ready",
		zap.Int("wallpapers", s.History.Len()),
		zap.Int("apps", s.Catalog.Len()))
	return s, nil
}

// Close stops timers and destroys embed sessions
func (s *Shell) Close() {
	s.Weather.Stop()
	s.History.Close()
	s.Embeds.CloseAll()
}

func (s *Shell) resolveApp(url string) string {
	if name, ok := s.Catalog.Resolve(url); ok {
		return name
	}
	return embed.AppIDFromURL(url)
}

// settingChanged reacts to settings written by any component. It can run
// under the history lock (style mirroring), so slow work goes to a goroutine.
func (s *Shell) settingChanged(key string, value interface{}) {
	switch key {
	case settings.KeyShowWeather:
		shown, _ := value.(bool)
		if s.weatherShown.Swap(shown) != shown {
			go s.Weather.VisibilityChanged(context.Background())
		}
	case settings.KeyAppsEnabled:
		if enabled, _ := value.(bool); !enabled {
			go s.CloseDrawer()
		}
	}
}

// AppsEnabled reports whether mini-apps may be opened
func (s *Shell) AppsEnabled() bool {
	return s.Settings.Bool(settings.KeyAppsEnabled)
}

// State returns the full projection for a newly connected page
func (s *Shell) State() types.ShellState {
	values := make(map[string]interface{})
	for _, setting := range s.Settings.All() {
		values[setting.Key] = setting.Value
	}

	s.inputMu.Lock()
	drawer := types.DrawerView{
		Open:        s.gestures.Drawer() == gesture.DrawerOpen,
		DockVisible: s.dockVisible,
		AppsEnabled: s.AppsEnabled(),
	}
	s.inputMu.Unlock()

	return types.ShellState{
		History:   s.History.Snapshot(),
		Wallpaper: s.History.View(),
		Style:     s.Style.Capture(),
		Drawer:    drawer,
		Grid:      s.Catalog.Grid(),
		Dock:      s.Catalog.Dock(),
		Embeds:    s.Embeds.Sessions(),
		Weather:   s.Weather.View(),
		Settings:  values,
	}
}

// SetSetting writes a user setting. Clock style settings go through the
// style binder so the selected wallpaper's profile follows.
func (s *Shell) SetSetting(ctx context.Context, key string, value interface{}) error {
	if styleKey, ok := style.StyleKey(key); ok {
		return s.Style.HandleChange(ctx, types.StyleChange{Key: styleKey, Value: value})
	}
	return s.Settings.Set(ctx, key, value)
}

// ResetSetting restores a setting to its default
func (s *Shell) ResetSetting(ctx context.Context, key string) error {
	if _, ok := style.StyleKey(key); ok {
		def, _ := settings.Default(key)
		return s.SetSetting(ctx, key, def)
	}
	return s.Settings.Reset(ctx, key)
}

// HandleStyleChange applies a style control change from the page
func (s *Shell) HandleStyleChange(ctx context.Context, change types.StyleChange) error {
	return s.Style.HandleChange(ctx, change)
}

// OpenApp opens url as an embedded app, recording the launch when it
// belongs to the catalog. A framing refusal opens it top-level instead and
// surfaces a notice.
func (s *Shell) OpenApp(ctx context.Context, url string) (*types.EmbedSession, error) {
	if !s.AppsEnabled() {
		return nil, failure.Newf(failure.KindInvalidInput, "shell.open", "apps are disabled")
	}
	if name, ok := s.Catalog.Resolve(url); ok {
		if _, err := s.Catalog.RecordLaunch(ctx, name); err != nil {
			s.logger.Warn("Failed to record launch", zap.String("app", name), zap.Error(err))
		}
	}
	s.CloseDrawer()

	session, err := s.Embeds.Open(ctx, url)
	if failure.Is(err, failure.KindEmbedLoad) {
		s.projector.Notify(types.Notice{Level: types.NoticeInfo, Code: types.NoticeEmbedFallback})
	}
	if err == nil {
		s.projector.Emit(types.EventDock, s.Catalog.Dock())
	}
	return session, err
}

// LaunchApp opens a catalog app by name
func (s *Shell) LaunchApp(ctx context.Context, name string) (*types.EmbedSession, error) {
	app, ok := s.Catalog.Lookup(name)
	if !ok {
		return nil, failure.Newf(failure.KindNotFound, "shell.launch", "unknown app %q", name)
	}
	return s.OpenApp(ctx, app.URL)
}

// ReportLoad forwards a frame load report; a fallback surfaces a notice
func (s *Shell) ReportLoad(url string, r embed.LoadReport) bool {
	fell := s.Embeds.ReportLoad(url, r)
	if fell {
		s.projector.Notify(types.Notice{Level: types.NoticeInfo, Code: types.NoticeEmbedFallback})
	}
	return fell
}

// RefreshWeather runs a weather refresh with the page's geolocation result
func (s *Shell) RefreshWeather(ctx context.Context, req types.WeatherRefreshRequest) (types.WeatherView, error) {
	r := weather.Request{Denied: req.Denied, Timezone: req.Timezone}
	if !req.Denied && req.Latitude != nil && req.Longitude != nil {
		r.Position = &weather.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	ctx, cancel := context.WithTimeout(ctx, s.weatherTimeout())
	defer cancel()
	return s.Weather.Refresh(ctx, r)
}

func (s *Shell) weatherTimeout() time.Duration {
	if s.cfg.Weather.Timeout > 0 {
		return s.cfg.Weather.Timeout
	}
	return 15 * time.Second
}

// Relay forwards a cross-document message to the embedded app it addresses
func (s *Shell) Relay(origin string, env types.Envelope) bool {
	return s.Embeds.Relay(origin, env)
}
