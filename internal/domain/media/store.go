package media

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrEmptyPayload     = errors.New("payload has neither blob nor data url")
	ErrAmbiguousPayload = errors.New("payload has both blob and data url")
)

// Payload is one stored media item. Exactly one of Blob and DataURL is set:
// videos are kept as raw blobs, compressed images as data URLs.
type Payload struct {
	Blob      []byte    `json:"-"`
	DataURL   string    `json:"-"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Digest    string    `json:"digest"`
}

// Validate enforces the blob/data-url exclusivity
func (p *Payload) Validate() error {
	switch {
	case len(p.Blob) == 0 && p.DataURL == "":
		return ErrEmptyPayload
	case len(p.Blob) > 0 && p.DataURL != "":
		return ErrAmbiguousPayload
	}
	return nil
}

// Size is the stored body length in bytes before compression
func (p *Payload) Size() int {
	if p.DataURL != "" {
		return len(p.DataURL)
	}
	return len(p.Blob)
}

// IsDataURL reports whether the payload is an inline data URL
func (p *Payload) IsDataURL() bool {
	return p.DataURL != ""
}

// Bytes returns the raw body and its MIME type. Data URLs are decoded.
func (p *Payload) Bytes() ([]byte, string, error) {
	if p.DataURL == "" {
		return p.Blob, p.Type, nil
	}
	return DecodeDataURL(p.DataURL)
}

// Store persists binary media keyed by string for the lifetime of the origin.
// Get returns (nil, nil) for a missing key; every other failure is returned
// classified as failure.KindStorage.
type Store interface {
	Put(ctx context.Context, key string, p *Payload) error
	Get(ctx context.Context, key string) (*Payload, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// digest is a content hash used as the ETag of GET /media/:id
func digest(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:16])
}

func digestOf(p *Payload) string {
	if p.DataURL != "" {
		return digest([]byte(p.DataURL))
	}
	return digest(p.Blob)
}

func cleanKey(key string) string {
	return strings.TrimSpace(key)
}
