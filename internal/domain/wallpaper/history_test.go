package wallpaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPrependsAndSelects(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	f.rec.setLive(styleWithFont("Lora"))
	first, err := f.m.Add(ctx, Upload{Name: "a.png", Data: pngBytes(t, 8, 8)})
	require.NoError(t, err)
	f.rec.setLive(styleWithFont("Roboto"))
	second, err := f.m.Add(ctx, Upload{Name: "b.png", Data: pngBytes(t, 8, 8)})
	require.NoError(t, err)

	snap := f.m.Snapshot()
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, second.Key, snap.Entries[0].Key)
	assert.Equal(t, first.Key, snap.Entries[1].Key)
	assert.Equal(t, 0, snap.Position)
	assert.Equal(t, "Lora", snap.Entries[1].Style.Font)
	assert.Equal(t, "Roboto", snap.Entries[0].Style.Font)
	assert.Equal(t, types.MediaImage, second.MediaType)
	assert.Equal(t, "image/webp", second.MIME)
	assert.Contains(t, f.rec.noticeCodes(), types.NoticeWallpaperUpdated)
}

func TestAddEvictsOldestBeyondCapacity(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	var keys []string
	for i := 0; i < 13; i++ {
		e, err := f.m.Add(ctx, Upload{Name: "img.png", Data: pngBytes(t, 4, 4)})
		require.NoError(t, err)
		keys = append(keys, e.ID)
		assert.LessOrEqual(t, len(f.m.Snapshot().Entries), DefaultCapacity)
	}

	snap := f.m.Snapshot()
	require.Len(t, snap.Entries, DefaultCapacity)
	assert.Equal(t, keys[12], snap.Entries[0].ID)
	assert.Equal(t, keys[3], snap.Entries[9].ID)

	// no orphaned media
	stored, err := f.store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, keys[3:], stored)
}

func TestAddStorageFailureLeavesHistoryUntouched(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 2)
	before := f.m.Snapshot()

	f.store.FailPut = func(string) error { return errors.New("quota exceeded") }
	_, err := f.m.Add(ctx, Upload{Name: "c.png", Data: pngBytes(t, 4, 4)})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindStorage))

	assert.Equal(t, before, f.m.Snapshot())
	assert.Contains(t, f.rec.noticeCodes(), types.NoticeWallpaperSaveFail)
}

func TestAddPersistFailureRemovesStoredMedia(t *testing.T) {
	f := newFixture(t, Options{})
	f.state.fail = true

	_, err := f.m.Add(context.Background(), Upload{Name: "a.png", Data: pngBytes(t, 4, 4)})
	assert.True(t, failure.Is(err, failure.KindStorage))
	assert.Zero(t, f.store.Len())
	assert.Empty(t, f.m.Snapshot().Entries)
}

func TestAddRejectsUnsupported(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.m.Add(context.Background(), Upload{Name: "notes.txt", DeclaredType: "image/png", Data: []byte("hello world")})
	assert.True(t, failure.Is(err, failure.KindMediaDecode))
	assert.Contains(t, f.rec.noticeCodes(), types.NoticeUnsupportedFile)
	assert.Zero(t, f.store.Len())
}

func TestAddVideoStoredAsBlob(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	e, err := f.m.Add(ctx, Upload{Name: "clip.mp4", Data: mp4Bytes()})
	require.NoError(t, err)
	assert.Equal(t, types.MediaVideo, e.MediaType)

	p, err := f.m.Media(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, mp4Bytes(), p.Blob)
	assert.Empty(t, p.DataURL)
}

func TestStyleAppliedBeforeRender(t *testing.T) {
	f := newFixture(t, Options{})
	f.addImages(t, 2)
	f.rec.log = nil

	require.NoError(t, f.m.Switch(context.Background(), Right))
	assert.Equal(t, []string{"style", "render"}, f.rec.log)
}

func TestSwitchRoundTrip(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for _, font := range []string{"A", "B", "C"} {
		f.rec.setLive(styleWithFont(font))
		f.addImages(t, 1)
	}
	// history: C B A, position 0
	require.NoError(t, f.m.Jump(ctx, 1))
	start := f.rec.lastApplied()
	assert.Equal(t, "B", start.Font)

	require.NoError(t, f.m.Switch(ctx, Left))
	assert.Equal(t, 0, f.m.Snapshot().Position)
	assert.Equal(t, "C", f.rec.lastApplied().Font)

	require.NoError(t, f.m.Switch(ctx, Right))
	assert.Equal(t, 1, f.m.Snapshot().Position)
	assert.Equal(t, start, f.rec.lastApplied())
}

func TestSwitchClampsWithoutWrap(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 3)

	renders := len(f.rec.views)
	require.NoError(t, f.m.Switch(ctx, Left))
	assert.Equal(t, 0, f.m.Snapshot().Position)
	assert.Len(t, f.rec.views, renders, "left at 0 is a no-op")

	require.NoError(t, f.m.Jump(ctx, 2))
	require.NoError(t, f.m.Switch(ctx, Right))
	assert.Equal(t, 2, f.m.Snapshot().Position)

	require.NoError(t, f.m.Switch(ctx, None))
	assert.Equal(t, 2, f.m.Snapshot().Position)
	assert.Len(t, f.rec.views, renders+2, "none re-renders")

	assert.True(t, failure.Is(f.m.Switch(ctx, "up"), failure.KindInvalidInput))
}

func TestSwitchOnEmptyHistory(t *testing.T) {
	f := newFixture(t, Options{})
	assert.NoError(t, f.m.Switch(context.Background(), Right))
	assert.Empty(t, f.rec.views)
}

func TestReorderPosition(t *testing.T) {
	tests := []struct {
		name                string
		pos, from, to, want int
	}{
		{"moved entry is current", 2, 2, 0, 0},
		{"moved from before to after", 2, 0, 3, 1},
		{"moved from after to before", 2, 4, 1, 3},
		{"moved onto current from before", 2, 0, 2, 1},
		{"moved onto current from after", 2, 4, 2, 3},
		{"range entirely before", 3, 0, 1, 3},
		{"range entirely after", 0, 2, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReorderPosition(tt.pos, tt.from, tt.to))
		})
	}
}

func TestReorderKeepsLogicalSelection(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 5)
	require.NoError(t, f.m.Jump(ctx, 2))
	current := f.m.CurrentEntryKey()

	require.NoError(t, f.m.Reorder(ctx, 0, 4))
	assert.Equal(t, current, f.m.CurrentEntryKey())
	assert.Equal(t, 1, f.m.Snapshot().Position)

	require.NoError(t, f.m.Reorder(ctx, 1, 3))
	assert.Equal(t, current, f.m.CurrentEntryKey())
	assert.Equal(t, 3, f.m.Snapshot().Position)

	assert.True(t, failure.Is(f.m.Reorder(ctx, 0, 9), failure.KindInvalidInput))
}

func TestRemoveCurrentSelectsPrevious(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for _, font := range []string{"A", "B", "C", "D"} {
		f.rec.setLive(styleWithFont(font))
		f.addImages(t, 1)
	}
	// D C B A
	require.NoError(t, f.m.Jump(ctx, 2))
	removed := f.m.Snapshot().Entries[2]

	require.NoError(t, f.m.Remove(ctx, 2))
	snap := f.m.Snapshot()
	assert.Equal(t, 1, snap.Position)
	assert.Len(t, snap.Entries, 3)
	assert.Equal(t, "C", f.rec.lastApplied().Font)

	p, err := f.store.Get(ctx, removed.ID)
	require.NoError(t, err)
	assert.Nil(t, p, "backing media deleted")
}

func TestRemoveBeforeCurrentKeepsSelection(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 4)
	require.NoError(t, f.m.Jump(ctx, 2))
	current := f.m.CurrentEntryKey()

	require.NoError(t, f.m.Remove(ctx, 0))
	assert.Equal(t, 1, f.m.Snapshot().Position)
	assert.Equal(t, current, f.m.CurrentEntryKey())

	require.NoError(t, f.m.Remove(ctx, 2))
	assert.Equal(t, current, f.m.CurrentEntryKey())
}

func TestRemoveLastClearsToDefault(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 1)

	require.NoError(t, f.m.Remove(ctx, 0))
	assert.Empty(t, f.m.Snapshot().Entries)
	last := f.rec.views[len(f.rec.views)-1]
	assert.Nil(t, last.Entry)
	assert.Equal(t, 0, last.Count)
	assert.Contains(t, f.rec.noticeCodes(), types.NoticeAllRemoved)
	assert.Equal(t, "", f.m.CurrentEntryKey())
}

func TestRemoveStorageFailureAborts(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 2)

	failing := &failingDeleteStore{MemoryStore: f.store}
	f.m.store = failing
	err := f.m.Remove(ctx, 0)
	assert.True(t, failure.Is(err, failure.KindStorage))
	assert.Len(t, f.m.Snapshot().Entries, 2)
}

func TestTripleTapRemoves(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	f := newFixture(t, Options{Now: clock})
	ctx := context.Background()
	f.addImages(t, 3)

	for i := 0; i < 2; i++ {
		removed, err := f.m.Tap(ctx, 1)
		require.NoError(t, err)
		assert.False(t, removed)
		now = now.Add(400 * time.Millisecond)
	}
	removed, err := f.m.Tap(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, f.m.Snapshot().Entries, 2)
}

func TestTripleTapResetsAfterPause(t *testing.T) {
	now := time.Unix(0, 0)
	f := newFixture(t, Options{Now: func() time.Time { return now }})
	ctx := context.Background()
	f.addImages(t, 3)

	_, _ = f.m.Tap(ctx, 0)
	now = now.Add(100 * time.Millisecond)
	_, _ = f.m.Tap(ctx, 0)
	now = now.Add(600 * time.Millisecond)
	removed, err := f.m.Tap(ctx, 0)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, f.m.Snapshot().Entries, 3)
}

func TestUpdateStyleTargetsStampedEntry(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 2)
	snap := f.m.Snapshot()
	old, current := snap.Entries[1].Key, snap.Entries[0].Key

	calls := 0
	require.NoError(t, f.m.UpdateStyle(ctx, old, types.StyleColor, "#000000", func() { calls++ }))
	assert.Zero(t, calls)
	require.NoError(t, f.m.UpdateStyle(ctx, current, types.StyleShowSeconds, false, func() { calls++ }))
	assert.Equal(t, 1, calls)

	snap = f.m.Snapshot()
	assert.Equal(t, "#000000", snap.Entries[1].Style.Color)
	assert.Equal(t, "#ffffff", snap.Entries[0].Style.Color)
	assert.False(t, snap.Entries[0].Style.ShowSeconds)

	err := f.m.UpdateStyle(ctx, "entry_gone", types.StyleColor, "#000000", nil)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestStyleProfilesNotShared(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 2)

	require.NoError(t, f.m.BindToCurrent(ctx, styleWithFont("Mono")))
	snap := f.m.Snapshot()
	assert.Equal(t, "Mono", snap.Entries[0].Style.Font)
	assert.Equal(t, "Inter", snap.Entries[1].Style.Font)

	snap.Entries[0].Style.Font = "mutated"
	assert.Equal(t, "Mono", f.m.Snapshot().Entries[0].Style.Font)
}

func TestMediaOnlyServesHistoryKeys(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.addImages(t, 1)
	key := f.m.Snapshot().Entries[0].ID

	p, err := f.m.Media(ctx, key)
	require.NoError(t, err)
	assert.True(t, p.IsDataURL())

	_, err = f.m.Media(ctx, "wallpaper_other")
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestLoadRestoresAndDropsMissing(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.rec.setLive(styleWithFont("Old"))
	f.addImages(t, 3)
	require.NoError(t, f.m.Jump(ctx, 2))
	snap := f.m.Snapshot()

	// media of the middle entry vanished between sessions
	require.NoError(t, f.store.Delete(ctx, snap.Entries[1].ID))

	rec := newRecorder()
	restored := NewManager(f.store, f.state, rec, rec, rec, Options{})
	t.Cleanup(restored.Close)
	require.NoError(t, restored.Load(ctx))

	got := restored.Snapshot()
	require.Len(t, got.Entries, 2)
	assert.Equal(t, snap.Entries[0].Key, got.Entries[0].Key)
	assert.Equal(t, snap.Entries[2].Key, got.Entries[1].Key)
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, "Old", rec.lastApplied().Font)
}

func TestLoadCorruptStateYieldsEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	f.state.values[settingsHistoryKey] = []byte("{broken")
	require.NoError(t, f.store.Put(context.Background(), "wallpaper_orphan", mediaPayload()))

	require.NoError(t, f.m.Load(context.Background()))
	assert.Empty(t, f.m.Snapshot().Entries)
	assert.Zero(t, f.store.Len(), "orphaned media is cleaned up")
}

func TestIngestRoutesBySelectionSize(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.m.Ingest(ctx, nil)
	assert.True(t, failure.Is(err, failure.KindInvalidInput))

	single, err := f.m.Ingest(ctx, []Upload{{Name: "a.png", Data: pngBytes(t, 4, 4)}})
	require.NoError(t, err)
	assert.False(t, single.IsSlideshow)

	show, err := f.m.Ingest(ctx, []Upload{
		{Name: "a.png", Data: pngBytes(t, 4, 4)},
		{Name: "b.png", Data: pngBytes(t, 4, 4)},
	})
	require.NoError(t, err)
	assert.True(t, show.IsSlideshow)
	assert.Len(t, show.Slides, 2)
}
