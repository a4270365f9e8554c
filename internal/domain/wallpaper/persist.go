package wallpaper

import (
	"context"

	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

const (
	settingsHistoryKey  = settings.KeyRecentWallpapers
	settingsPositionKey = settings.KeyWallpaperPosition
)

// Load restores the persisted history. Missing or corrupt state yields an
// empty history; entries whose media is gone from the store are dropped.
// The restored current entry is applied and rendered.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		entries  []*types.WallpaperEntry
		position int
	)
	if m.state != nil {
		if _, err := m.state.GetJSON(settingsHistoryKey, &entries); err != nil {
			m.logger.Warn("read wallpaper history failed", zap.Error(err))
			entries = nil
		}
		if _, err := m.state.GetJSON(settingsPositionKey, &position); err != nil {
			position = 0
		}
	}

	stored, err := m.store.Keys(ctx)
	if err != nil {
		m.storageFailure("keys")
		return err
	}
	present := make(map[string]bool, len(stored))
	for _, k := range stored {
		present[k] = true
	}

	kept := make([]*types.WallpaperEntry, 0, len(entries))
	referenced := make(map[string]bool)
	for i, e := range entries {
		if e == nil || !m.restorable(e, present) {
			m.logger.Warn("dropping wallpaper with missing media", zap.Int("index", i))
			if i < position {
				position--
			}
			continue
		}
		if e.Key == "" {
			e.Key = id.NewEntryID().String()
		}
		kept = append(kept, e)
		for _, k := range e.MediaKeys() {
			referenced[k] = true
		}
	}
	if len(kept) > m.capacity {
		for _, e := range kept[m.capacity:] {
			m.deleteMedia(ctx, e.MediaKeys())
		}
		kept = kept[:m.capacity]
	}
	if position < 0 || position >= len(kept) {
		position = 0
	}

	// media written by a crashed add that never reached the history
	for _, k := range stored {
		if !referenced[k] {
			m.logger.Info("removing orphaned media", zap.String("key", k))
			m.deleteMedia(ctx, []string{k})
		}
	}

	m.entries, m.position = kept, position
	m.setEntriesGauge()
	m.showLocked(ctx)
	return nil
}

func (m *Manager) restorable(e *types.WallpaperEntry, present map[string]bool) bool {
	keys := e.MediaKeys()
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !present[k] {
			return false
		}
	}
	return true
}

// commitLocked persists a new history and only then installs it
func (m *Manager) commitLocked(ctx context.Context, entries []*types.WallpaperEntry, position int) error {
	if m.state != nil {
		err := m.state.SetJSONs(ctx, map[string]interface{}{
			settingsHistoryKey:  entries,
			settingsPositionKey: position,
		})
		if err != nil {
			m.storageFailure("persist")
			return failure.New(failure.KindStorage, "wallpaper.persist", err)
		}
	}
	m.entries, m.position = entries, position
	m.setEntriesGauge()
	return nil
}

// persistBestEffort saves style edits; the in-memory history stays authoritative
func (m *Manager) persistBestEffort(ctx context.Context) {
	if m.state == nil {
		return
	}
	if err := m.state.SetJSON(ctx, settingsHistoryKey, m.entries); err != nil {
		m.storageFailure("persist")
		m.logger.Warn("persist wallpaper history failed", zap.Error(err))
	}
}

func (m *Manager) setEntriesGauge() {
	if m.metrics != nil {
		m.metrics.HistoryEntries.Set(float64(len(m.entries)))
	}
}
