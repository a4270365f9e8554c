package http

import (
	"net/http"

	"github.com/GriffinCanCode/homescreen/internal/domain/embed"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// GetStyle returns the live clock style
func (h *Handlers) GetStyle(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.Style.Capture())
}

// UpdateStyle applies one style control change
func (h *Handlers) UpdateStyle(c *gin.Context) {
	var req types.StyleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	change := types.StyleChange{Key: req.Key, Value: req.Value, EntryID: req.EntryID}
	if err := h.shell.HandleStyleChange(c.Request.Context(), change); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.Style.Capture())
}

// SaveStyle binds the live style to the current wallpaper
func (h *Handlers) SaveStyle(c *gin.Context) {
	if err := h.shell.Style.SaveCurrent(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListApps returns the app grid, most launched first
func (h *Handlers) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"apps":    h.shell.Catalog.Grid(),
		"enabled": h.shell.AppsEnabled(),
	})
}

// Dock returns the most recently opened apps
func (h *Handlers) Dock(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": h.shell.Catalog.Dock()})
}

// LaunchApp opens a catalog app by name
func (h *Handlers) LaunchApp(c *gin.Context) {
	session, err := h.shell.LaunchApp(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// OpenDrawer opens the app drawer
func (h *Handlers) OpenDrawer(c *gin.Context) {
	h.shell.OpenDrawer()
	c.JSON(http.StatusOK, h.shell.State().Drawer)
}

// CloseDrawer closes the app drawer
func (h *Handlers) CloseDrawer(c *gin.Context) {
	h.shell.CloseDrawer()
	c.JSON(http.StatusOK, h.shell.State().Drawer)
}

// ListEmbeds returns every embed session, oldest first
func (h *Handlers) ListEmbeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.shell.Embeds.Sessions()})
}

// OpenEmbed opens or restores a mini-app by URL
func (h *Handlers) OpenEmbed(c *gin.Context) {
	var req types.OpenEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	session, err := h.shell.OpenApp(c.Request.Context(), req.URL)
	if failure.Is(err, failure.KindEmbedLoad) {
		// opened top-level instead
		c.JSON(http.StatusOK, gin.H{"success": true, "external": true})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// MinimizeEmbed minimizes the active embed
func (h *Handlers) MinimizeEmbed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"minimized": h.shell.Minimize()})
}

// CloseEmbed destroys one embed session
func (h *Handlers) CloseEmbed(c *gin.Context) {
	var req types.OpenEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if err := h.shell.Embeds.Close(req.URL); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReportLoad records the outcome of a frame load observed by the page
func (h *Handlers) ReportLoad(c *gin.Context) {
	var req types.LoadReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	fell := h.shell.ReportLoad(req.URL, embed.LoadReport{
		Failed:  req.Failed,
		Refused: req.Refused,
		Body:    []byte(req.Body),
	})
	c.JSON(http.StatusOK, gin.H{"external": fell})
}

// RelayMessage forwards a cross-document message to an embedded app. Only
// requests whose Origin header is the shell's own are delivered.
func (h *Handlers) RelayMessage(c *gin.Context) {
	var req types.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": h.shell.Relay(c.GetHeader("Origin"), req.Data)})
}

// GetWeather returns the widget state
func (h *Handlers) GetWeather(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.Weather.View())
}

// RefreshWeather refreshes the widget with the page's geolocation result.
// Failures still return the view the widget fell back to.
func (h *Handlers) RefreshWeather(c *gin.Context) {
	var req types.WeatherRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if !req.Denied && (req.Latitude == nil || req.Longitude == nil) {
		h.respondError(c, failure.Newf(failure.KindInvalidInput, "http.weather", "latitude and longitude are required"))
		return
	}
	view, err := h.shell.RefreshWeather(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusOf(err), gin.H{
			"success": false,
			"error":   err.Error(),
			"kind":    failure.KindOf(err).String(),
			"weather": view,
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListSettings returns every user facing setting
func (h *Handlers) ListSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.shell.Settings.All()})
}

// GetSetting returns one setting
func (h *Handlers) GetSetting(c *gin.Context) {
	key := c.Param("key")
	v, err := h.shell.Settings.Get(key)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
}

// SetSetting writes one setting
func (h *Handlers) SetSetting(c *gin.Context) {
	var req types.SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	key := c.Param("key")
	if err := h.shell.SetSetting(c.Request.Context(), key, req.Value); err != nil {
		h.respondError(c, err)
		return
	}
	v, _ := h.shell.Settings.Get(key)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
}

// ResetSetting restores a setting to its default
func (h *Handlers) ResetSetting(c *gin.Context) {
	key := c.Param("key")
	if err := h.shell.ResetSetting(c.Request.Context(), key); err != nil {
		h.respondError(c, err)
		return
	}
	v, _ := h.shell.Settings.Get(key)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
}
