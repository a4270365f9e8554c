package embed

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// Frame is a container element owned by one session
type Frame interface {
	ID() id.FrameID
	Show(t types.Transition)
	Hide(t types.Transition)
	Post(origin string, payload json.RawMessage) error
	Remove() error
}

// Document creates frames in the page
type Document interface {
	CreateFrame(url, appID string) (Frame, error)
}

// Navigator opens a URL in a new top-level browsing context
type Navigator interface {
	OpenTopLevel(url string)
}

// Probe guesses whether a URL refuses to be framed. Both checks are
// heuristics.
type Probe interface {
	Refused(ctx context.Context, url string) (bool, error)
	LooksRefused(body []byte) bool
}

// LoadReport is what the page observed when a frame finished loading
type LoadReport struct {
	Failed  bool
	Refused bool
	Body    []byte
}

type session struct {
	url      string
	appID    string
	frame    Frame
	state    types.SessionState
	openedAt time.Time
}

func (s *session) view() types.EmbedSession {
	return types.EmbedSession{
		URL:      s.url,
		AppID:    s.appID,
		FrameID:  s.frame.ID().String(),
		State:    s.state,
		OpenedAt: s.openedAt,
	}
}

// Manager owns the embedded app sessions. At most one session is Active;
// minimized sessions stay indexed by URL and are restored in place.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session // Protected by mu
	active   string              // Protected by mu

	doc     Document
	nav     Navigator
	probe   Probe
	origin  string
	resolve func(string) string
	metrics *monitoring.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager creates an embed manager. origin is the shell's own origin;
// only messages from it are relayed.
func NewManager(doc Document, nav Navigator, origin string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*session),
		doc:      doc,
		nav:      nav,
		origin:   strings.TrimSuffix(origin, "/"),
		resolve:  AppIDFromURL,
		logger:   logger,
		now:      time.Now,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithProbe enables the framing check on Open for cross-origin URLs
func (m *Manager) WithProbe(p Probe) *Manager {
	m.probe = p
	return m
}

// WithResolver replaces the URL to app id mapping
func (m *Manager) WithResolver(fn func(string) string) *Manager {
	if fn != nil {
		m.resolve = fn
	}
	return m
}

// Open shows the app at rawURL. A minimized session is restored in place
// without probing or reloading it; otherwise a new frame is created. Any
// other Active session is minimized first. When the probe says a new URL
// cannot be framed it is opened top-level instead and a KindEmbedLoad error
// is returned.
func (m *Manager) Open(ctx context.Context, rawURL string) (*types.EmbedSession, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return nil, failure.Newf(failure.KindInvalidInput, "embed.open", "empty url")
	}

	m.mu.Lock()
	if v, ok := m.restoreLocked(u); ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	if m.probe != nil && m.crossOrigin(u) {
		refused, err := m.probe.Refused(ctx, u)
		if err != nil {
			m.logger.Debug("Framing probe failed", zap.String("url", u), zap.Error(err))
		}
		if refused {
			m.fallback(u, "probe")
			return nil, failure.Newf(failure.KindEmbedLoad, "embed.open", "%s refuses to be framed", u)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// opened concurrently while probing
	if v, ok := m.restoreLocked(u); ok {
		return v, nil
	}

	m.minimizeLocked()
	appID := m.resolve(u)
	frame, err := m.doc.CreateFrame(u, appID)
	if err != nil {
		m.updateGauges()
		return nil, failure.New(failure.KindEmbedLoad, "embed.open", err)
	}
	s := &session{
		url:      u,
		appID:    appID,
		frame:    frame,
		state:    types.SessionActive,
		openedAt: m.now(),
	}
	m.sessions[u] = s
	m.active = u
	frame.Show(types.TransitionOpen)
	m.updateGauges()

	m.logger.Info("Embed opened",
		zap.String("url", u),
		zap.String("app_id", appID),
		zap.String("frame_id", frame.ID().String()))
	v := s.view()
	return &v, nil
}

// restoreLocked activates an existing session for u, if any
func (m *Manager) restoreLocked(u string) (*types.EmbedSession, bool) {
	s, ok := m.sessions[u]
	if !ok {
		return nil, false
	}
	if s.state != types.SessionActive {
		m.minimizeLocked()
		s.state = types.SessionActive
		s.frame.Show(types.TransitionRestore)
		m.active = u
		m.updateGauges()
		m.logger.Info("Embed restored", zap.String("url", u), zap.String("app_id", s.appID))
	}
	v := s.view()
	return &v, true
}

// Minimize hides the Active session, keeping its frame for a later restore.
// It reports whether a session was minimized.
func (m *Manager) Minimize() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.minimizeLocked()
	m.updateGauges()
	return ok
}

func (m *Manager) minimizeLocked() bool {
	if m.active == "" {
		return false
	}
	s, ok := m.sessions[m.active]
	m.active = ""
	if !ok {
		return false
	}
	s.state = types.SessionMinimized
	s.frame.Hide(types.TransitionMinimize)
	m.logger.Debug("Embed minimized", zap.String("url", s.url))
	return true
}

// Close destroys the session for rawURL
func (m *Manager) Close(rawURL string) error {
	u := strings.TrimSpace(rawURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[u]
	if !ok {
		return failure.Newf(failure.KindNotFound, "embed.close", "no session for %s", u)
	}
	if s.state == types.SessionActive {
		s.frame.Hide(types.TransitionClose)
	}
	m.destroyLocked(u)
	m.updateGauges()
	return nil
}

// CloseAll destroys every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for u := range m.sessions {
		m.destroyLocked(u)
	}
	m.updateGauges()
}

func (m *Manager) destroyLocked(u string) {
	s, ok := m.sessions[u]
	if !ok {
		return
	}
	delete(m.sessions, u)
	if m.active == u {
		m.active = ""
	}
	if err := s.frame.Remove(); err != nil {
		// the page may have dropped the node already
		m.logger.Debug("Frame removal failed", zap.String("url", u), zap.Error(err))
	}
}

// ReportLoad handles the page's load observation for rawURL. A failed or
// refused load, or a body that looks like a browser error page, destroys the
// session and opens the URL top-level. It reports whether it fell back.
func (m *Manager) ReportLoad(rawURL string, r LoadReport) bool {
	u := strings.TrimSpace(rawURL)

	refused := r.Failed || r.Refused
	if !refused && len(r.Body) > 0 && m.probe != nil {
		refused = m.probe.LooksRefused(r.Body)
	}
	if !refused {
		return false
	}

	m.mu.Lock()
	_, known := m.sessions[u]
	m.destroyLocked(u)
	m.updateGauges()
	m.mu.Unlock()

	if !known {
		m.logger.Debug("Load report for unknown session", zap.String("url", u))
	}
	m.fallback(u, "load")
	return true
}

func (m *Manager) fallback(u, reason string) {
	m.logger.Warn("Embed fell back to top-level context",
		zap.String("url", u),
		zap.String("reason", reason))
	if m.metrics != nil {
		m.metrics.EmbedFallbacks.Inc()
	}
	m.nav.OpenTopLevel(u)
}

// Relay forwards env's payload to the session whose app id matches
// env.TargetApp. Messages from any origin other than the shell's, or with no
// matching session, are dropped. It reports whether the message was
// delivered.
func (m *Manager) Relay(origin string, env types.Envelope) bool {
	if strings.TrimSuffix(origin, "/") != m.origin {
		m.dropped("origin", zap.String("origin", origin))
		return false
	}
	if env.TargetApp == "" {
		m.dropped("no_target")
		return false
	}

	m.mu.RLock()
	var target *session
	for _, s := range m.sessions {
		if s.appID == env.TargetApp {
			target = s
			break
		}
	}
	m.mu.RUnlock()

	if target == nil {
		m.dropped("no_session", zap.String("target_app", env.TargetApp))
		return false
	}
	if err := target.frame.Post(m.origin, env.Payload); err != nil {
		m.logger.Warn("Message delivery failed", zap.String("target_app", env.TargetApp), zap.Error(err))
		m.recordMessage("failed")
		return false
	}
	m.recordMessage("delivered")
	return true
}

func (m *Manager) dropped(reason string, fields ...zap.Field) {
	m.logger.Debug("Message dropped", append(fields, zap.String("reason", reason))...)
	m.recordMessage("dropped_" + reason)
}

func (m *Manager) recordMessage(outcome string) {
	if m.metrics != nil {
		m.metrics.Messages.WithLabelValues(outcome).Inc()
	}
}

// Sessions returns every session, oldest first
func (m *Manager) Sessions() []types.EmbedSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.EmbedSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.view())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Active returns the Active session, if any
func (m *Manager) Active() (*types.EmbedSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[m.active]
	if !ok {
		return nil, false
	}
	v := s.view()
	return &v, true
}

// HasActive reports whether a session is Active
func (m *Manager) HasActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != ""
}

// updateGauges must hold lock
func (m *Manager) updateGauges() {
	var active, minimized int
	for _, s := range m.sessions {
		if s.state == types.SessionActive {
			active++
		} else {
			minimized++
		}
	}
	m.metrics.SetEmbeds(active, minimized)
}

func (m *Manager) crossOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	shell, err := url.Parse(m.origin)
	if err != nil {
		return true
	}
	return u.Scheme != shell.Scheme || u.Host != shell.Host
}

// AppIDFromURL derives an app id from the first path segment of u, so
// "/chronos/index.html" becomes "chronos"
func AppIDFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	p = strings.Trim(path.Clean("/"+p), "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(p)
}
