package ws

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/embed"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
	maxMessage = 64 << 10
)

// Hub fans projection events out to every connected page. It is the shell's
// Projector: renders, notices and frame operations all become events.
type Hub struct {
	origin  string
	metrics *monitoring.Metrics
	logger  *zap.Logger

	upgrader websocket.Upgrader
	seq      atomic.Uint64

	mu      sync.RWMutex
	clients map[id.ConnID]*client
	shell   Shell
}

type client struct {
	id   id.ConnID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub accepting connections from origin. An empty origin
// accepts any page.
func NewHub(origin string, metrics *monitoring.Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		origin:  origin,
		metrics: metrics,
		logger:  logger.Named("ws"),
		clients: make(map[id.ConnID]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Attach connects the shell inbound messages are dispatched to
func (h *Hub) Attach(s Shell) {
	h.mu.Lock()
	h.shell = s
	h.mu.Unlock()
}

// Clients returns the number of connected pages
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origin == "" {
		return true
	}
	if origin == h.origin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Emit broadcasts one event to every page. Slow pages whose buffer is full
// are disconnected rather than stalling the shell.
func (h *Hub) Emit(eventType string, data interface{}) {
	frame, err := h.encode(eventType, data)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow connection", zap.String("conn_id", c.id.String()))
		h.remove(c)
	}
	h.metrics.RecordWSMessage("out", eventType)
}

// sendTo queues an event for one page
func (h *Hub) sendTo(c *client, eventType string, data interface{}) {
	frame, err := h.encode(eventType, data)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	// clients are only closed after leaving the map
	h.mu.RLock()
	_, ok := h.clients[c.id]
	queued := false
	if ok {
		select {
		case c.send <- frame:
			queued = true
		default:
		}
	}
	h.mu.RUnlock()

	if ok && !queued {
		h.remove(c)
		return
	}
	if queued {
		h.metrics.RecordWSMessage("out", eventType)
	}
}

func (h *Hub) encode(eventType string, data interface{}) ([]byte, error) {
	return sonic.Marshal(types.Event{Type: eventType, Data: data, Seq: h.seq.Add(1)})
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(n))
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.close()
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(n))
	}
}

// Close disconnects every page
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[id.ConnID]*client)
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// RenderStyle projects the live clock style
func (h *Hub) RenderStyle(p types.StyleProfile) { h.Emit(types.EventStyle, p) }

// RenderWallpaper projects the current wallpaper
func (h *Hub) RenderWallpaper(v types.WallpaperView) { h.Emit(types.EventWallpaper, v) }

// RenderSlide projects a slideshow advance
func (h *Hub) RenderSlide(v types.WallpaperView) { h.Emit(types.EventSlide, v) }

// RenderWeather projects the weather widget
func (h *Hub) RenderWeather(v types.WeatherView) { h.Emit(types.EventWeather, v) }

// Notify pushes a transient notice
func (h *Hub) Notify(n types.Notice) { h.Emit(types.EventNotice, n) }

// OpenTopLevel asks the page to open url in a new top-level context
func (h *Hub) OpenTopLevel(u string) {
	h.Emit(types.EventNavigate, map[string]string{"url": u})
}

// CreateFrame asks the page to create an iframe for url. The frame stays
// hidden until shown.
func (h *Hub) CreateFrame(u, appID string) (embed.Frame, error) {
	f := &frame{hub: h, id: id.NewFrameID()}
	h.Emit(types.EventEmbed, FrameEvent{Op: "create", FrameID: f.id.String(), URL: u, AppID: appID})
	return f, nil
}

// FrameEvent is the payload of an embed event
type FrameEvent struct {
	Op         string           `json:"op"`
	FrameID    string           `json:"frame_id"`
	URL        string           `json:"url,omitempty"`
	AppID      string           `json:"app_id,omitempty"`
	Transition types.Transition `json:"transition,omitempty"`
	Origin     string           `json:"origin,omitempty"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
}

type frame struct {
	hub *Hub
	id  id.FrameID
}

func (f *frame) ID() id.FrameID { return f.id }

func (f *frame) Show(t types.Transition) {
	f.hub.Emit(types.EventEmbed, FrameEvent{Op: "show", FrameID: f.id.String(), Transition: t})
}

func (f *frame) Hide(t types.Transition) {
	f.hub.Emit(types.EventEmbed, FrameEvent{Op: "hide", FrameID: f.id.String(), Transition: t})
}

func (f *frame) Post(origin string, payload json.RawMessage) error {
	f.hub.Emit(types.EventEmbed, FrameEvent{Op: "post", FrameID: f.id.String(), Origin: origin, Payload: payload})
	return nil
}

func (f *frame) Remove() error {
	f.hub.Emit(types.EventEmbed, FrameEvent{Op: "remove", FrameID: f.id.String()})
	return nil
}
