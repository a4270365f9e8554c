package style

import (
	"context"
	"sync"
	"testing"

	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRenderer struct {
	mu      sync.Mutex
	renders []types.StyleProfile
}

func (r *recordingRenderer) RenderStyle(p types.StyleProfile) {
	r.mu.Lock()
	r.renders = append(r.renders, p)
	r.mu.Unlock()
}

type fakeHistory struct {
	mu      sync.Mutex
	current string
	styles  map[string]*types.StyleProfile
}

func newFakeHistory(keys ...string) *fakeHistory {
	h := &fakeHistory{styles: make(map[string]*types.StyleProfile)}
	for _, k := range keys {
		p := types.DefaultStyleProfile()
		h.styles[k] = &p
	}
	if len(keys) > 0 {
		h.current = keys[0]
	}
	return h
}

func (h *fakeHistory) CurrentEntryKey() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHistory) BindToCurrent(_ context.Context, p types.StyleProfile) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.styles[h.current] = &p
	return nil
}

func (h *fakeHistory) UpdateStyle(_ context.Context, entryKey, key string, value interface{}, ifCurrent func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.styles[entryKey]
	if !ok {
		return failure.Newf(failure.KindNotFound, "history.style", "no entry %s", entryKey)
	}
	if err := SetField(p, key, value); err != nil {
		return err
	}
	if entryKey == h.current {
		ifCurrent()
	}
	return nil
}

type memSettings map[string]interface{}

func (m memSettings) Set(_ context.Context, key string, value interface{}) error {
	m[key] = value
	return nil
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
		ok    bool
	}{
		{types.StyleFont, "Roboto Mono", true},
		{types.StyleFont, "", false},
		{types.StyleWeight, "400", true},
		{types.StyleWeight, 900.0, true},
		{types.StyleWeight, "450", false},
		{types.StyleWeight, true, false},
		{types.StyleColor, "#ff00aa", true},
		{types.StyleColor, "inherit", true},
		{types.StyleColor, "red", false},
		{types.StyleColorEnabled, true, true},
		{types.StyleStackEnabled, "true", true},
		{types.StyleShowSeconds, 1.0, false},
		{"opacity", 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p := types.DefaultStyleProfile()
			err := SetField(&p, tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, failure.Is(err, failure.KindInvalidInput), "got %v", err)
			}
		})
	}
}

func TestCaptureApplyInverse(t *testing.T) {
	renderer := &recordingRenderer{}
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), renderer), nil, zap.NewNop())

	want := types.StyleProfile{
		Font: "Roboto", Weight: "300", Color: "#123456",
		ColorEnabled: true, StackEnabled: true, ShowSeconds: false, ShowWeather: false,
	}
	b.Apply(context.Background(), &want)
	assert.Equal(t, want, b.Capture())

	// one render per apply, never a partial one
	require.Len(t, renderer.renders, 1)
	assert.Equal(t, want, renderer.renders[0])

	b.Apply(context.Background(), nil)
	assert.Equal(t, types.DefaultStyleProfile(), b.Capture())
}

func TestApplyMirrorsSettings(t *testing.T) {
	s := memSettings{}
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), s, zap.NewNop())

	p := types.DefaultStyleProfile()
	p.Font = "Lora"
	p.ShowSeconds = false
	b.Apply(context.Background(), &p)

	assert.Equal(t, "Lora", s["clockFont"])
	assert.Equal(t, false, s["showSeconds"])
	assert.Len(t, s, len(Keys))
}

func TestHandleChangeCurrentEntry(t *testing.T) {
	ctx := context.Background()
	h := newFakeHistory("entry_a", "entry_b")
	s := memSettings{}
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), s, zap.NewNop())
	b.Attach(h)

	var notified []types.StyleChange
	b.OnChange(func(c types.StyleChange) { notified = append(notified, c) })

	require.NoError(t, b.HandleChange(ctx, types.StyleChange{Key: types.StyleFont, Value: "Lora"}))

	assert.Equal(t, "Lora", b.Capture().Font)
	assert.Equal(t, "Lora", h.styles["entry_a"].Font)
	assert.Equal(t, "Inter", h.styles["entry_b"].Font)
	assert.Equal(t, "Lora", s["clockFont"])
	require.Len(t, notified, 1)
	assert.Equal(t, "entry_a", notified[0].EntryID)
}

func TestHandleChangeStampedWithPreviousEntry(t *testing.T) {
	ctx := context.Background()
	h := newFakeHistory("entry_a", "entry_b")
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), nil, zap.NewNop())
	b.Attach(h)

	// the page emitted the change while entry_a was current, the switch landed first
	h.current = "entry_b"
	require.NoError(t, b.HandleChange(ctx, types.StyleChange{Key: types.StyleColor, Value: "#000000", EntryID: "entry_a"}))

	assert.Equal(t, "#000000", h.styles["entry_a"].Color)
	assert.Equal(t, "#ffffff", h.styles["entry_b"].Color)
	assert.Equal(t, "#ffffff", b.Capture().Color, "live panel shows entry_b")
}

func TestHandleChangeRejectsInvalid(t *testing.T) {
	h := newFakeHistory("entry_a")
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), nil, zap.NewNop())
	b.Attach(h)

	err := b.HandleChange(context.Background(), types.StyleChange{Key: types.StyleWeight, Value: "bold"})
	assert.True(t, failure.Is(err, failure.KindInvalidInput))
	assert.Equal(t, "700", h.styles["entry_a"].Weight)
}

func TestHandleChangeWithoutHistory(t *testing.T) {
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), nil, zap.NewNop())
	require.NoError(t, b.HandleChange(context.Background(), types.StyleChange{Key: types.StyleStackEnabled, Value: true}))
	assert.True(t, b.Capture().StackEnabled)
}

func TestSaveCurrent(t *testing.T) {
	ctx := context.Background()
	h := newFakeHistory("entry_a")
	b := NewBinder(NewPanel(types.DefaultStyleProfile(), nil), nil, zap.NewNop())
	b.Attach(h)

	_, err := b.panel.Update(types.StyleWeight, "100")
	require.NoError(t, err)
	require.NoError(t, b.SaveCurrent(ctx))
	assert.Equal(t, "100", h.styles["entry_a"].Weight)
}

type mapReader map[string]interface{}

func (m mapReader) Get(key string) (interface{}, error) {
	v, ok := m[key]
	if !ok {
		return nil, failure.Newf(failure.KindNotFound, "settings.get", "no %s", key)
	}
	return v, nil
}

func TestFromSettings(t *testing.T) {
	p := FromSettings(mapReader{
		"clockFont":         "Roboto",
		"clockWeight":       "not a weight",
		"clockStackEnabled": true,
	})

	assert.Equal(t, "Roboto", p.Font)
	assert.Equal(t, types.DefaultStyleProfile().Weight, p.Weight)
	assert.True(t, p.StackEnabled)

	key, ok := StyleKey("clockColor")
	require.True(t, ok)
	assert.Equal(t, types.StyleColor, key)
	_, ok = StyleKey("theme")
	assert.False(t, ok)
}
