package style

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// HistoryBinding is the part of the wallpaper history the binder writes to
type HistoryBinding interface {
	// CurrentEntryKey returns the key of the selected entry, "" when empty
	CurrentEntryKey() string
	// BindToCurrent stores a copy of p on the selected entry
	BindToCurrent(ctx context.Context, p types.StyleProfile) error
	// UpdateStyle sets one style field on the entry with the given key and,
	// while still holding the history lock, calls ifCurrent when that entry
	// is the selected one
	UpdateStyle(ctx context.Context, entryKey, key string, value interface{}, ifCurrent func()) error
}

// SettingsWriter mirrors live style values into user settings
type SettingsWriter interface {
	Set(ctx context.Context, key string, value interface{}) error
}

// Binder ties the live panel to the per-wallpaper style profiles
type Binder struct {
	panel    *Panel
	settings SettingsWriter
	logger   *zap.Logger

	mu       sync.RWMutex
	history  HistoryBinding
	onChange func(types.StyleChange)
}

// NewBinder creates a binder over panel. settings may be nil.
func NewBinder(panel *Panel, settings SettingsWriter, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{panel: panel, settings: settings, logger: logger.Named("style")}
}

// Attach connects the history the binder persists into
func (b *Binder) Attach(h HistoryBinding) {
	b.mu.Lock()
	b.history = h
	b.mu.Unlock()
}

// OnChange registers the style change notification sink
func (b *Binder) OnChange(fn func(types.StyleChange)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Capture reads the live controls
func (b *Binder) Capture() types.StyleProfile {
	return b.panel.Profile()
}

// Apply writes every field of p to the live controls in one update. A nil
// profile applies the defaults.
func (b *Binder) Apply(ctx context.Context, p *types.StyleProfile) {
	profile := types.DefaultStyleProfile()
	if p != nil {
		profile = *p
	}
	b.panel.Replace(profile)
	b.mirror(ctx, profile)
}

// BindToCurrent stores p on the selected history entry
func (b *Binder) BindToCurrent(ctx context.Context, p types.StyleProfile) error {
	h := b.historyBinding()
	if h == nil || h.CurrentEntryKey() == "" {
		return nil
	}
	return h.BindToCurrent(ctx, p)
}

// SaveCurrent binds the live controls to the selected entry
func (b *Binder) SaveCurrent(ctx context.Context) error {
	return b.BindToCurrent(ctx, b.Capture())
}

// HandleChange applies one control change. The change is persisted into the
// entry it was stamped with; the live panel only follows when that entry is
// still selected, so a change racing a wallpaper switch never bleeds into the
// newly selected wallpaper.
func (b *Binder) HandleChange(ctx context.Context, change types.StyleChange) error {
	probe := types.DefaultStyleProfile()
	if err := SetField(&probe, change.Key, change.Value); err != nil {
		return err
	}

	h := b.historyBinding()
	if change.EntryID == "" && h != nil {
		change.EntryID = h.CurrentEntryKey()
	}

	if h == nil || change.EntryID == "" {
		b.updateLive(ctx, change.Key, change.Value)
	} else {
		applied := false
		err := h.UpdateStyle(ctx, change.EntryID, change.Key, change.Value, func() {
			applied = true
			b.updateLive(ctx, change.Key, change.Value)
		})
		if err != nil {
			return err
		}
		if !applied {
			b.logger.Debug("style change kept on a previous wallpaper",
				zap.String("entry", change.EntryID), zap.String("key", change.Key))
		}
	}

	b.mu.RLock()
	notify := b.onChange
	b.mu.RUnlock()
	if notify != nil {
		notify(change)
	}
	return nil
}

func (b *Binder) updateLive(ctx context.Context, key string, value interface{}) {
	profile, err := b.panel.Update(key, value)
	if err != nil {
		// validated by the caller
		b.logger.Warn("live style update rejected", zap.String("key", key), zap.Error(err))
		return
	}
	settingKey, ok := SettingKey(key)
	if !ok || b.settings == nil {
		return
	}
	v, _ := Field(profile, key)
	if err := b.settings.Set(ctx, settingKey, v); err != nil {
		b.logger.Warn("mirror style setting failed", zap.String("key", settingKey), zap.Error(err))
	}
}

func (b *Binder) historyBinding() HistoryBinding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.history
}

func (b *Binder) mirror(ctx context.Context, p types.StyleProfile) {
	if b.settings == nil {
		return
	}
	for _, k := range Keys {
		v, _ := Field(p, k)
		key, _ := SettingKey(k)
		if err := b.settings.Set(ctx, key, v); err != nil {
			b.logger.Warn("mirror style setting failed", zap.String("key", key), zap.Error(err))
			return
		}
	}
}
