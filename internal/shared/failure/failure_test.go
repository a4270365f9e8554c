package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinel(t *testing.T) {
	base := errors.New("disk full")
	err := New(KindStorage, "media.put", base)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, base))
	assert.False(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, "media.put: storage: disk full", err.Error())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("add wallpaper: %w", Newf(KindMediaDecode, "decode", "bad header %d", 3))

	assert.Equal(t, KindMediaDecode, KindOf(err))
	assert.True(t, Is(err, KindMediaDecode))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", ErrNotFound)))
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindStorage, "storage"},
		{KindEmbedLoad, "embed_load"},
		{KindGeolocationDenied, "geolocation_denied"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
