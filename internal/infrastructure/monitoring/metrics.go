package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the shell
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Wallpaper metrics
	HistoryEntries   prometheus.Gauge
	WallpaperOps     *prometheus.CounterVec
	MediaBytes       *prometheus.CounterVec
	StorageFailures  *prometheus.CounterVec
	CompressDuration prometheus.Histogram

	// Gesture metrics
	Gestures *prometheus.CounterVec

	// Embed metrics
	EmbedsActive    prometheus.Gauge
	EmbedsMinimized prometheus.Gauge
	EmbedFallbacks  prometheus.Counter
	Messages        *prometheus.CounterVec

	// Weather metrics
	WeatherFetches *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HistoryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_wallpaper_history_entries",
				Help: "Number of entries in the wallpaper history",
			},
		),
		WallpaperOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_wallpaper_operations_total",
				Help: "Wallpaper history operations by kind and outcome",
			},
			[]string{"op", "status"},
		),
		MediaBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_media_bytes_written_total",
				Help: "Bytes written to the media store by media type",
			},
			[]string{"media_type"},
		),
		StorageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_storage_failures_total",
				Help: "Media/settings store failures by operation",
			},
			[]string{"op"},
		),
		CompressDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_image_compress_duration_seconds",
				Help:    "Time spent decoding, scaling and re-encoding uploads",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		Gestures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_gestures_total",
				Help: "Resolved gestures by final state and action",
			},
			[]string{"state", "action"},
		),

		EmbedsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_embeds_active",
				Help: "Number of active embed sessions (0 or 1)",
			},
		),
		EmbedsMinimized: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_embeds_minimized",
				Help: "Number of minimized embed sessions kept for restore",
			},
		),
		EmbedFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_embed_fallbacks_total",
				Help: "Embeds reopened in a top-level context after a load failure",
			},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_relayed_messages_total",
				Help: "Cross-document messages by outcome",
			},
			[]string{"outcome"},
		),

		WeatherFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_weather_fetches_total",
				Help: "Weather refreshes by outcome",
			},
			[]string{"outcome"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_websocket_connections",
				Help: "Number of connected pages",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_websocket_messages_total",
				Help: "WebSocket messages by direction and type",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "shell_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWallpaperOp counts one history operation
func (m *Metrics) RecordWallpaperOp(op string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.WallpaperOps.WithLabelValues(op, status).Inc()
}

// RecordGesture counts one resolved gesture. The Record* and Set* helpers
// are no-ops on a nil *Metrics.
func (m *Metrics) RecordGesture(state, action string) {
	if m == nil {
		return
	}
	m.Gestures.WithLabelValues(state, action).Inc()
}

// SetEmbeds updates embed session gauges
func (m *Metrics) SetEmbeds(active, minimized int) {
	if m == nil {
		return
	}
	m.EmbedsActive.Set(float64(active))
	m.EmbedsMinimized.Set(float64(minimized))
}

// RecordWSMessage counts a websocket frame
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}
