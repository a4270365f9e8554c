package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/homescreen/internal/domain/shell"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	shell          *shell.Shell
	maxUploadBytes int64
	clients        func() int
	logger         *zap.Logger
}

// NewHandlers creates a new handler set. clients reports connected pages for
// the health endpoint and may be nil.
func NewHandlers(sh *shell.Shell, maxUploadBytes int64, clients func() int, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clients == nil {
		clients = func() int { return 0 }
	}
	return &Handlers{
		shell:          sh,
		maxUploadBytes: maxUploadBytes,
		clients:        clients,
		logger:         logger.Named("http"),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/state", h.State)

	r.GET("/wallpapers", h.ListWallpapers)
	r.POST("/wallpapers", h.UploadWallpapers)
	r.POST("/wallpapers/switch", h.SwitchWallpaper)
	r.POST("/wallpapers/reorder", h.ReorderWallpapers)
	r.POST("/wallpapers/:index/select", h.SelectWallpaper)
	r.POST("/wallpapers/:index/tap", h.TapWallpaper)
	r.DELETE("/wallpapers/:index", h.RemoveWallpaper)
	r.GET("/media/:id", h.GetMedia)

	r.GET("/style", h.GetStyle)
	r.PUT("/style", h.UpdateStyle)
	r.POST("/style/save", h.SaveStyle)

	r.GET("/apps", h.ListApps)
	r.GET("/apps/dock", h.Dock)
	r.POST("/apps/:name/launch", h.LaunchApp)
	r.POST("/drawer/open", h.OpenDrawer)
	r.POST("/drawer/close", h.CloseDrawer)

	r.GET("/embeds", h.ListEmbeds)
	r.POST("/embeds/open", h.OpenEmbed)
	r.POST("/embeds/minimize", h.MinimizeEmbed)
	r.POST("/embeds/close", h.CloseEmbed)
	r.POST("/embeds/load", h.ReportLoad)
	r.POST("/messages", h.RelayMessage)

	r.GET("/weather", h.GetWeather)
	r.POST("/weather/refresh", h.RefreshWeather)

	r.GET("/settings", h.ListSettings)
	r.GET("/settings/:key", h.GetSetting)
	r.PUT("/settings/:key", h.SetSetting)
	r.DELETE("/settings/:key", h.ResetSetting)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"wallpapers": h.shell.History.Len(),
		"apps":       h.shell.Catalog.Len(),
		"clients":    h.clients(),
	})
}

// State returns the full projection
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.State())
}

// respondError maps a failure kind to an HTTP status
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"kind":    failure.KindOf(err).String(),
	})
}

func statusOf(err error) int {
	switch failure.KindOf(err) {
	case failure.KindInvalidInput, failure.KindMediaDecode:
		return http.StatusBadRequest
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindStorage:
		return http.StatusInsufficientStorage
	case failure.KindEmbedLoad:
		return http.StatusConflict
	case failure.KindGeolocationDenied:
		return http.StatusForbidden
	case failure.KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

var errBadIndex = errors.New("index must be a non-negative integer")

func indexParam(c *gin.Context) (int, error) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		return 0, failure.New(failure.KindInvalidInput, "http.index", errBadIndex)
	}
	return i, nil
}

func bindError(err error) error {
	return failure.New(failure.KindInvalidInput, "http.bind", err)
}
