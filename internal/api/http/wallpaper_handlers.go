package http

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/GriffinCanCode/homescreen/internal/domain/wallpaper"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListWallpapers returns the history
func (h *Handlers) ListWallpapers(c *gin.Context) {
	c.JSON(http.StatusOK, h.shell.History.Snapshot())
}

// UploadWallpapers ingests the multipart "files" field. One file becomes a
// wallpaper, several become a slideshow.
func (h *Handlers) UploadWallpapers(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, bindError(err))
		return
	}
	files := form.File["files"]
	uploads := make([]wallpaper.Upload, 0, len(files))
	for _, fh := range files {
		u, err := readUpload(fh)
		if err != nil {
			h.respondError(c, err)
			return
		}
		uploads = append(uploads, u)
	}

	entry, err := h.shell.History.Ingest(c.Request.Context(), uploads)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Info("Wallpaper added",
		zap.String("entry", entry.Key),
		zap.Bool("slideshow", entry.IsSlideshow),
		zap.Int("files", len(uploads)))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"entry":   entry,
	})
}

func readUpload(fh *multipart.FileHeader) (wallpaper.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return wallpaper.Upload{}, failure.New(failure.KindInvalidInput, "http.upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return wallpaper.Upload{}, failure.New(failure.KindInvalidInput, "http.upload", err)
	}
	return wallpaper.Upload{
		Name:         fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}

// SwitchWallpaper moves the history position one step
func (h *Handlers) SwitchWallpaper(c *gin.Context) {
	var req types.SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	dir, err := wallpaper.ParseDirection(req.Direction)
	if err == nil {
		err = h.shell.History.Switch(c.Request.Context(), dir)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.History.View())
}

// SelectWallpaper jumps to an entry
func (h *Handlers) SelectWallpaper(c *gin.Context) {
	i, err := indexParam(c)
	if err == nil {
		err = h.shell.History.Jump(c.Request.Context(), i)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.History.View())
}

// TapWallpaper counts a tap on a history dot; the third quick tap removes it
func (h *Handlers) TapWallpaper(c *gin.Context) {
	i, err := indexParam(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	removed, err := h.shell.History.Tap(c.Request.Context(), i)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"history": h.shell.History.Snapshot(),
	})
}

// ReorderWallpapers moves one entry
func (h *Handlers) ReorderWallpapers(c *gin.Context) {
	var req types.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if err := h.shell.History.Reorder(c.Request.Context(), *req.From, *req.To); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.History.Snapshot())
}

// RemoveWallpaper deletes an entry and its media
func (h *Handlers) RemoveWallpaper(c *gin.Context) {
	i, err := indexParam(c)
	if err == nil {
		err = h.shell.History.Remove(c.Request.Context(), i)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.shell.History.Snapshot())
}

// GetMedia serves a stored wallpaper body with its content hash as ETag
func (h *Handlers) GetMedia(c *gin.Context) {
	key := c.Param("id")
	if !id.IsValidPrefixed(key, id.WallpaperPrefix) && !id.IsValidPrefixed(key, id.SlidePrefix) {
		h.respondError(c, failure.Newf(failure.KindNotFound, "http.media", "malformed media id %q", key))
		return
	}
	p, err := h.shell.History.Media(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, err)
		return
	}
	etag := `"` + p.Digest + `"`
	if p.Digest != "" && c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	body, mime, err := p.Bytes()
	if err != nil {
		h.respondError(c, failure.New(failure.KindMediaDecode, "http.media", err))
		return
	}
	if p.Digest != "" {
		c.Header("ETag", etag)
	}
	c.Header("Cache-Control", "private, max-age=31536000, immutable")
	c.Data(http.StatusOK, mime, body)
}
