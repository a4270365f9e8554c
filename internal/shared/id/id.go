// Package id provides centralized ID generation for the shell backend.
//
// Media keys, history entries and slideshow slides all use prefixed ULIDs:
//   - Lexicographic sortability: newer wallpapers sort after older ones
//   - Prefixed types: wallpaper_*, entry_*, slide_*, frame_*, req_* are readable in logs
//   - Type safety: separate types prevent handing a frame id to the media store
//
// Websocket connections use random UUIDs (see NewConnID); they are never
// persisted and carry no ordering.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// WallpaperID keys a single-media wallpaper in the media store
type WallpaperID string

// EntryID identifies a history slot
type EntryID string

// SlideID keys one media item belonging to a slideshow entry
type SlideID string

// FrameID identifies an embed container owned by the document
type FrameID string

// RequestID identifies an API request
type RequestID string

// ConnID identifies a websocket connection
type ConnID string

const (
	WallpaperPrefix = "wallpaper"
	EntryPrefix     = "entry"
	SlidePrefix     = "slide"
	FramePrefix     = "frame"
	RequestPrefix   = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
// Monotonic entropy keeps ids generated within the same millisecond ordered.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWallpaperID generates a media key for a single wallpaper
func NewWallpaperID() WallpaperID {
	return WallpaperID(Default().GenerateWithPrefix(WallpaperPrefix))
}

// NewEntryID generates a history slot key
func NewEntryID() EntryID {
	return EntryID(Default().GenerateWithPrefix(EntryPrefix))
}

// NewSlideID generates a media key for a slideshow slide
func NewSlideID() SlideID {
	return SlideID(Default().GenerateWithPrefix(SlidePrefix))
}

// NewFrameID generates an embed frame id
func NewFrameID() FrameID {
	return FrameID(Default().GenerateWithPrefix(FramePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewConnID generates a websocket connection id
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

func (id WallpaperID) String() string { return string(id) }
func (id EntryID) String() string     { return string(id) }
func (id SlideID) String() string     { return string(id) }
func (id FrameID) String() string     { return string(id) }
func (id RequestID) String() string   { return string(id) }
func (id ConnID) String() string      { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks a "prefix_ULID" id
func IsValidPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// Timestamp extracts the timestamp from a (possibly prefixed) ULID
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
