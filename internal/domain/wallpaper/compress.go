package wallpaper

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"sync"

	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// WebPEncoder encodes img as WebP at quality in (0, 1]
type WebPEncoder func(w io.Writer, img image.Image, quality float64) error

var (
	webpMu  sync.RWMutex
	webpEnc WebPEncoder = EncodeWebP
)

// EncodeWebP is the default encoder: lossy WebP at quality*100
func EncodeWebP(w io.Writer, img image.Image, quality float64) error {
	return webp.Encode(w, img, webp.Options{Quality: int(math.Round(quality * 100))})
}

// RegisterWebPEncoder replaces the WebP encoder. nil disables WebP and
// compressed images fall back to JPEG.
func RegisterWebPEncoder(enc WebPEncoder) {
	webpMu.Lock()
	webpEnc = enc
	webpMu.Unlock()
}

func webpEncoder() WebPEncoder {
	webpMu.RLock()
	defer webpMu.RUnlock()
	return webpEnc
}

// Compressed is a re-encoded image ready for the media store
type Compressed struct {
	DataURL string
	MIME    string
	Width   int
	Height  int
}

// Compressor downscales and re-encodes uploaded images
type Compressor struct {
	MaxDimension int
	Quality      float64
}

// NewCompressor creates a compressor; zero values mean 2560 px and 0.85
func NewCompressor(maxDimension int, quality float64) *Compressor {
	if maxDimension <= 0 {
		maxDimension = 2560
	}
	if quality <= 0 || quality > 1 {
		quality = 0.85
	}
	return &Compressor{MaxDimension: maxDimension, Quality: quality}
}

// Compress decodes data, fits its longer edge into MaxDimension preserving
// the aspect ratio, and re-encodes it as WebP (or JPEG) data URL
func (c *Compressor) Compress(data []byte) (*Compressed, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, failure.New(failure.KindMediaDecode, "wallpaper.compress", err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), c.MaxDimension)
	img := src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	mime := "image/jpeg"
	if enc := webpEncoder(); enc != nil {
		if err := enc(&buf, img, c.Quality); err == nil {
			mime = "image/webp"
		} else {
			buf.Reset()
		}
	}
	if mime == "image/jpeg" {
		q := int(math.Round(c.Quality * 100))
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, failure.New(failure.KindMediaDecode, "wallpaper.compress", err)
		}
	}

	return &Compressed{
		DataURL: media.EncodeDataURL(mime, buf.Bytes()),
		MIME:    mime,
		Width:   w,
		Height:  h,
	}, nil
}

// Fit scales (w, h) so the longer edge is at most max, keeping the ratio
func Fit(w, h, max int) (int, int) {
	long := w
	if h > long {
		long = h
	}
	if long <= max || long == 0 {
		return w, h
	}
	scale := float64(max) / float64(long)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
