package wallpaper

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recorder captures style applications and renders in one ordered log
type recorder struct {
	mu      sync.Mutex
	live    types.StyleProfile
	log     []string
	views   []types.WallpaperView
	slides  []types.WallpaperView
	applied []types.StyleProfile
	notices []types.Notice
}

func newRecorder() *recorder {
	return &recorder{live: types.DefaultStyleProfile()}
}

func (r *recorder) Capture() types.StyleProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *recorder) Apply(_ context.Context, p *types.StyleProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = *p
	r.applied = append(r.applied, *p)
	r.log = append(r.log, "style")
}

func (r *recorder) RenderWallpaper(v types.WallpaperView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	r.log = append(r.log, "render")
}

func (r *recorder) RenderSlide(v types.WallpaperView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slides = append(r.slides, v)
}

func (r *recorder) Notify(n types.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) setLive(p types.StyleProfile) {
	r.mu.Lock()
	r.live = p
	r.mu.Unlock()
}

func (r *recorder) lastApplied() types.StyleProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied[len(r.applied)-1]
}

func (r *recorder) slideCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slides)
}

func (r *recorder) noticeCodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		codes = append(codes, n.Code)
	}
	return codes
}

// memState is an in-memory StateStore
type memState struct {
	mu     sync.Mutex
	values map[string][]byte
	fail   bool
}

func newMemState() *memState {
	return &memState{values: make(map[string][]byte)}
}

func (s *memState) GetJSON(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, sonic.Unmarshal(raw, out)
}

func (s *memState) SetJSON(_ context.Context, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("quota exceeded")
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *memState) SetJSONs(ctx context.Context, values map[string]interface{}) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	for k, v := range values {
		if err := s.SetJSON(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// mp4Bytes is the smallest prefix mimetype recognises as video/mp4
func mp4Bytes() []byte {
	return append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
}

type fixture struct {
	m     *Manager
	store *media.MemoryStore
	rec   *recorder
	state *memState
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := media.NewMemoryStore(0)
	rec := newRecorder()
	state := newMemState()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := NewManager(store, state, rec, rec, rec, opts)
	t.Cleanup(m.Close)
	return &fixture{m: m, store: store, rec: rec, state: state}
}

func (f *fixture) addImages(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.m.Add(context.Background(), Upload{Name: "img.png", Data: pngBytes(t, 8, 8)})
		require.NoError(t, err)
	}
}

func styleWithFont(font string) types.StyleProfile {
	p := types.DefaultStyleProfile()
	p.Font = font
	return p
}
