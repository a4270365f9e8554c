package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/embed"
	"github.com/GriffinCanCode/homescreen/internal/domain/gesture"
	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/domain/wallpaper"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/config"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/sqlitedb"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type frame struct {
	id    id.FrameID
	posts []json.RawMessage
}

func (f *frame) ID() id.FrameID        { return f.id }
func (f *frame) Show(types.Transition) {}
func (f *frame) Hide(types.Transition) {}
func (f *frame) Remove() error         { return nil }
func (f *frame) Post(_ string, p json.RawMessage) error {
	f.posts = append(f.posts, p)
	return nil
}

// page records everything the shell projects
type page struct {
	mu       sync.Mutex
	events   []types.Event
	notices  []types.Notice
	weather  []types.WeatherView
	styles   []types.StyleProfile
	frames   map[string]*frame
	appIDs   map[string]string
	external []string
}

func newPage() *page {
	return &page{frames: make(map[string]*frame), appIDs: make(map[string]string)}
}

func (p *page) RenderStyle(s types.StyleProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styles = append(p.styles, s)
}

func (p *page) RenderWallpaper(v types.WallpaperView) { p.Emit(types.EventWallpaper, v) }
func (p *page) RenderSlide(v types.WallpaperView)     { p.Emit(types.EventSlide, v) }

func (p *page) RenderWeather(v types.WeatherView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weather = append(p.weather, v)
}

func (p *page) CreateFrame(url, appID string) (embed.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := &frame{id: id.NewFrameID()}
	p.frames[url] = f
	p.appIDs[url] = appID
	return f, nil
}

func (p *page) OpenTopLevel(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = append(p.external, url)
}

func (p *page) Notify(n types.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

func (p *page) Emit(eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, types.Event{Type: eventType, Data: data})
}

func (p *page) last(eventType string) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i].Data, true
		}
	}
	return nil, false
}

func (p *page) weatherViews() []types.WeatherView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.WeatherView(nil), p.weather...)
}

type refusingProbe struct{}

func (refusingProbe) Refused(context.Context, string) (bool, error) { return true, nil }
func (refusingProbe) LooksRefused([]byte) bool                      { return false }

func newShell(t *testing.T, probe embed.Probe) (*Shell, *page) {
	t.Helper()
	cfg := config.Default()
	cfg.Weather.RefreshInterval = 0
	pg := newPage()
	s, err := New(context.Background(), Deps{
		Config:    cfg,
		DB:        sqlitedb.OpenMemory(t),
		Media:     media.NewMemoryStore(0),
		Projector: pg,
		Probe:     probe,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, pg
}

func addWallpapers(t *testing.T, s *Shell, n int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	for i := 0; i < n; i++ {
		_, err := s.History.Add(context.Background(), wallpaper.Upload{Name: "a.png", Data: buf.Bytes()})
		require.NoError(t, err)
	}
}

func at(ms int64) int64 { return 1_700_000_000_000 + ms }

func TestNewProjectsDefaults(t *testing.T) {
	s, _ := newShell(t, nil)

	state := s.State()
	assert.Len(t, state.Grid, 12)
	assert.Empty(t, state.Dock)
	assert.False(t, state.Drawer.Open)
	assert.True(t, state.Drawer.AppsEnabled)
	assert.Equal(t, 0, len(state.History.Entries))
	assert.Equal(t, true, state.Settings[settings.KeyShowWeather])
}

func TestOpenAppRecordsLaunchAndClosesDrawer(t *testing.T) {
	s, pg := newShell(t, nil)
	s.OpenDrawer()
	require.True(t, s.State().Drawer.Open)

	session, err := s.OpenApp(context.Background(), "/chronos/index.html")
	require.NoError(t, err)

	assert.Equal(t, "Chronos", session.AppID)
	assert.Equal(t, types.SessionActive, session.State)
	assert.False(t, s.State().Drawer.Open)
	assert.Equal(t, "Chronos", s.State().Dock[0].Name)

	dock, ok := pg.last(types.EventDock)
	require.True(t, ok)
	assert.Len(t, dock, 1)
}

func TestLaunchUnknownApp(t *testing.T) {
	s, _ := newShell(t, nil)
	_, err := s.LaunchApp(context.Background(), "Nope")
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestAppsDisabled(t *testing.T) {
	s, _ := newShell(t, nil)
	s.OpenDrawer()
	require.NoError(t, s.SetSetting(context.Background(), settings.KeyAppsEnabled, false))

	_, err := s.OpenApp(context.Background(), "/chronos/index.html")
	assert.True(t, failure.Is(err, failure.KindInvalidInput))
	assert.Eventually(t, func() bool { return !s.State().Drawer.Open }, time.Second, 5*time.Millisecond)

	s.OpenDrawer()
	assert.False(t, s.State().Drawer.Open)
}

func TestOpenAppFallsBackWhenRefused(t *testing.T) {
	s, pg := newShell(t, refusingProbe{})

	_, err := s.OpenApp(context.Background(), "https://example.com/")
	require.True(t, failure.Is(err, failure.KindEmbedLoad))

	pg.mu.Lock()
	defer pg.mu.Unlock()
	assert.Equal(t, []string{"https://example.com/"}, pg.external)
	require.Len(t, pg.notices, 1)
	assert.Equal(t, types.NoticeEmbedFallback, pg.notices[0].Code)
}

func TestRelayUsesCatalogName(t *testing.T) {
	s, pg := newShell(t, nil)
	_, err := s.OpenApp(context.Background(), "/wordy/index.html")
	require.NoError(t, err)

	ok := s.Embeds.Relay("http://localhost:8000", types.Envelope{
		TargetApp: "Wordy",
		Payload:   json.RawMessage(`{"hello":1}`),
	})
	require.True(t, ok)

	pg.mu.Lock()
	defer pg.mu.Unlock()
	assert.Equal(t, "Wordy", pg.appIDs["/wordy/index.html"])
	assert.Len(t, pg.frames["/wordy/index.html"].posts, 1)
}

func TestSwipeSwitchesWallpaper(t *testing.T) {
	s, _ := newShell(t, nil)
	addWallpapers(t, s, 2)
	require.Equal(t, 0, s.History.Snapshot().Position)

	s.PointerDown(Pointer{Target: gesture.TargetBackground, X: 600, Y: 400, At: at(0)})
	s.PointerMove(Pointer{X: 540, Y: 402, At: at(50)})
	res := s.PointerUp(Pointer{X: 480, Y: 402, At: at(100)})

	assert.Equal(t, gesture.ActionSwipeRight, res.Action)
	assert.Equal(t, 1, s.History.Snapshot().Position)
}

func TestDrawerGestureOpensDrawer(t *testing.T) {
	s, pg := newShell(t, nil)
	s.SetViewport(1000, 800)

	s.PointerDown(Pointer{Target: gesture.TargetHandle, X: 500, Y: 790, At: at(0)})
	s.PointerMove(Pointer{X: 500, Y: 700, At: at(400)})
	s.PointerMove(Pointer{X: 500, Y: 560, At: at(800)})
	res := s.PointerUp(Pointer{X: 500, Y: 560, At: at(1200)})

	assert.Equal(t, gesture.ActionOpenDrawer, res.Action)
	assert.True(t, s.State().Drawer.Open)

	drag, ok := pg.last(types.EventDrag)
	require.True(t, ok)
	assert.Equal(t, "drawer", drag.(gesture.Feedback).Kind)
}

func TestDotTapSelectsEntry(t *testing.T) {
	s, _ := newShell(t, nil)
	addWallpapers(t, s, 3)

	s.PointerDown(Pointer{Target: gesture.TargetDot, Index: 2, X: 100, Y: 10, At: at(0)})
	res := s.PointerUp(Pointer{X: 101, Y: 10, At: at(60)})

	assert.Equal(t, gesture.ActionSelect, res.Action)
	assert.Equal(t, 2, s.History.Snapshot().Position)
}

func TestDotDragReorders(t *testing.T) {
	s, _ := newShell(t, nil)
	addWallpapers(t, s, 3)
	first := s.History.Snapshot().Entries[0].Key

	s.PointerDown(Pointer{Target: gesture.TargetDot, Index: 0, X: 100, Y: 10, At: at(0)})
	s.PointerMove(Pointer{X: 140, Y: 10, At: at(50)})
	res := s.PointerUp(Pointer{X: 140, Y: 10, At: at(100)})

	assert.Equal(t, gesture.ActionReorder, res.Action)
	assert.Equal(t, first, s.History.Snapshot().Entries[2].Key)
}

func TestStyleSettingFollowsCurrentWallpaper(t *testing.T) {
	s, _ := newShell(t, nil)
	addWallpapers(t, s, 1)

	require.NoError(t, s.SetSetting(context.Background(), settings.KeyClockFont, "Roboto"))

	assert.Equal(t, "Roboto", s.Style.Capture().Font)
	assert.Equal(t, "Roboto", s.Settings.String(settings.KeyClockFont))
	current := s.History.Snapshot().Current()
	require.NotNil(t, current)
	require.NotNil(t, current.Style)
	assert.Equal(t, "Roboto", current.Style.Font)
}

func TestPlainSettingIsStored(t *testing.T) {
	s, _ := newShell(t, nil)
	require.NoError(t, s.SetSetting(context.Background(), settings.KeyTheme, "light"))
	assert.Equal(t, "light", s.State().Settings[settings.KeyTheme])
}

func TestHidingWeatherClearsWidget(t *testing.T) {
	s, pg := newShell(t, nil)

	require.NoError(t, s.SetSetting(context.Background(), settings.KeyShowWeather, false))

	assert.Eventually(t, func() bool {
		views := pg.weatherViews()
		return len(views) > 0 && !views[len(views)-1].Visible
	}, time.Second, 5*time.Millisecond)
}

func TestHistorySurvivesRestart(t *testing.T) {
	db := sqlitedb.OpenMemory(t)
	store := media.NewMemoryStore(0)
	cfg := config.Default()
	cfg.Weather.RefreshInterval = 0
	deps := Deps{Config: cfg, DB: db, Media: store, Projector: newPage(), Logger: zap.NewNop()}

	s, err := New(context.Background(), deps)
	require.NoError(t, err)
	addWallpapers(t, s, 2)
	require.NoError(t, s.History.Jump(context.Background(), 1))
	s.Close()

	restored, err := New(context.Background(), deps)
	require.NoError(t, err)
	defer restored.Close()

	snap := restored.History.Snapshot()
	assert.Len(t, snap.Entries, 2)
	assert.Equal(t, 1, snap.Position)
}
