package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/domain/style"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"github.com/GriffinCanCode/homescreen/internal/shared/timer"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// Direction of a history switch
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	None  Direction = "none"
)

// ParseDirection validates a direction name
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Left, Right, None:
		return d, nil
	}
	return "", failure.Newf(failure.KindInvalidInput, "wallpaper.switch", "unknown direction %q", s)
}

// Renderer projects the wallpaper layer to the page
type Renderer interface {
	RenderWallpaper(view types.WallpaperView)
	RenderSlide(view types.WallpaperView)
}

// StyleApplier captures and applies the live style controls
type StyleApplier interface {
	Capture() types.StyleProfile
	Apply(ctx context.Context, p *types.StyleProfile)
}

// Notifier surfaces transient notices
type Notifier interface {
	Notify(n types.Notice)
}

// StateStore persists the history between sessions
type StateStore interface {
	GetJSON(key string, out interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	SetJSONs(ctx context.Context, values map[string]interface{}) error
}

// Options configures a Manager
type Options struct {
	Capacity          int
	SlideshowInterval time.Duration
	TapWindow         time.Duration
	Compressor        *Compressor
	Metrics           *monitoring.Metrics
	Logger            *zap.Logger
	Now               func() time.Time
}

const (
	DefaultCapacity          = 10
	DefaultSlideshowInterval = 10 * time.Minute
	DefaultTapWindow         = 500 * time.Millisecond
)

// Manager owns the wallpaper history: a bounded, most-recent-first list with
// one current entry. Every mutation and every media store write runs under
// one lock, and the current entry's style is applied before its media is
// rendered.
type Manager struct {
	mu       sync.Mutex
	entries  []*types.WallpaperEntry
	position int

	store      media.Store
	state      StateStore
	style      StyleApplier
	renderer   Renderer
	notifier   Notifier
	compressor *Compressor
	taps       *TapCounter
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	now        func() time.Time

	capacity  int
	interval  time.Duration
	slideshow timer.Slot
	slideKey  string
	slide     int
}

// NewManager creates an empty history. state, renderer and notifier may be nil.
func NewManager(store media.Store, state StateStore, styler StyleApplier, renderer Renderer, notifier Notifier, opts Options) *Manager {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SlideshowInterval <= 0 {
		opts.SlideshowInterval = DefaultSlideshowInterval
	}
	if opts.TapWindow <= 0 {
		opts.TapWindow = DefaultTapWindow
	}
	if opts.Compressor == nil {
		opts.Compressor = NewCompressor(0, 0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if renderer == nil {
		renderer = nopRenderer{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Manager{
		store:      store,
		state:      state,
		style:      styler,
		renderer:   renderer,
		notifier:   notifier,
		compressor: opts.Compressor,
		taps:       NewTapCounter(opts.TapWindow, opts.Now),
		metrics:    opts.Metrics,
		logger:     opts.Logger.Named("wallpaper"),
		now:        opts.Now,
		capacity:   opts.Capacity,
		interval:   opts.SlideshowInterval,
		position:   0,
	}
}

// Ingest routes a file selection: one file becomes a wallpaper, several a slideshow
func (m *Manager) Ingest(ctx context.Context, uploads []Upload) (*types.WallpaperEntry, error) {
	switch len(uploads) {
	case 0:
		return nil, failure.Newf(failure.KindInvalidInput, "wallpaper.ingest", "no files")
	case 1:
		return m.Add(ctx, uploads[0])
	default:
		return m.AddSlideshow(ctx, uploads)
	}
}

// Add stores one image or video and makes it the current wallpaper
func (m *Manager) Add(ctx context.Context, u Upload) (entry *types.WallpaperEntry, err error) {
	t := monitoring.NewTimer(m.metrics, "add")
	defer func() { t.Stop(err) }()

	p, err := m.prepare(u)
	if err != nil {
		m.notifyFailure(err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.NewWallpaperID().String()
	if err := m.put(ctx, key, p); err != nil {
		m.notifyFailure(err)
		return nil, err
	}

	entry = &types.WallpaperEntry{
		Key:       id.NewEntryID().String(),
		ID:        key,
		MediaType: p.ref.MediaType,
		MIME:      p.ref.MIME,
		Timestamp: m.now(),
	}
	if err := m.insertLocked(ctx, entry, []string{key}); err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// AddSlideshow stores every decodable file and records them as one slideshow
// entry. Undecodable files are skipped with a notice; a storage failure
// aborts the whole batch and removes the slides already stored.
func (m *Manager) AddSlideshow(ctx context.Context, uploads []Upload) (entry *types.WallpaperEntry, err error) {
	t := monitoring.NewTimer(m.metrics, "add_slideshow")
	defer func() { t.Stop(err) }()

	ready := make([]*prepared, 0, len(uploads))
	for _, u := range uploads {
		p, err := m.prepare(u)
		if err != nil {
			m.logger.Info("skipping slideshow file", zap.String("file", u.Name), zap.Error(err))
			m.notifyFailure(err)
			continue
		}
		ready = append(ready, p)
	}
	if len(ready) == 0 {
		return nil, failure.Newf(failure.KindMediaDecode, "wallpaper.slideshow", "no usable files")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]string, 0, len(ready))
	slides := make([]types.MediaRef, 0, len(ready))
	for _, p := range ready {
		key := id.NewSlideID().String()
		if err := m.put(ctx, key, p); err != nil {
			m.deleteMedia(ctx, stored)
			m.notifyFailure(err)
			return nil, err
		}
		stored = append(stored, key)
		ref := p.ref
		ref.ID = key
		slides = append(slides, ref)
	}

	entry = &types.WallpaperEntry{
		Key:         id.NewEntryID().String(),
		IsSlideshow: true,
		Slides:      slides,
		MediaType:   slides[0].MediaType,
		Timestamp:   m.now(),
	}
	if err := m.insertLocked(ctx, entry, stored); err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// insertLocked prepends entry, evicting past capacity. stored are the media
// keys written for entry, removed again if the history cannot be persisted.
func (m *Manager) insertLocked(ctx context.Context, entry *types.WallpaperEntry, stored []string) error {
	captured := m.style.Capture()
	entry.Style = &captured

	next := make([]*types.WallpaperEntry, 0, len(m.entries)+1)
	next = append(next, entry)
	next = append(next, m.entries...)

	var evicted []*types.WallpaperEntry
	if len(next) > m.capacity {
		evicted = next[m.capacity:]
		next = next[:m.capacity:m.capacity]
	}

	if err := m.commitLocked(ctx, next, 0); err != nil {
		m.deleteMedia(ctx, stored)
		m.notifyFailure(err)
		return err
	}
	for _, e := range evicted {
		m.logger.Debug("evicting wallpaper", zap.String("entry", e.Key))
		m.deleteMedia(ctx, e.MediaKeys())
	}

	m.showLocked(ctx)
	m.notifier.Notify(types.Notice{Level: types.NoticeInfo, Code: types.NoticeWallpaperUpdated})
	return nil
}

// Switch moves the current position by one. Moving past either end is a
// no-op; None re-applies the current entry.
func (m *Manager) Switch(ctx context.Context, dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return nil
	}
	next := m.position
	switch dir {
	case Left:
		next--
	case Right:
		next++
	case None:
	default:
		return failure.Newf(failure.KindInvalidInput, "wallpaper.switch", "unknown direction %q", dir)
	}
	if next < 0 || next >= len(m.entries) {
		return nil
	}

	m.moveLocked(ctx, next)
	m.showLocked(ctx)
	return nil
}

// Jump selects the entry at index directly
func (m *Manager) Jump(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIndexLocked("wallpaper.jump", index); err != nil {
		return err
	}
	m.moveLocked(ctx, index)
	m.showLocked(ctx)
	return nil
}

// Reorder moves the entry at from to to. The current position keeps pointing
// at the same wallpaper.
func (m *Manager) Reorder(ctx context.Context, from, to int) (err error) {
	t := monitoring.NewTimer(m.metrics, "reorder")
	defer func() { t.Stop(err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIndexLocked("wallpaper.reorder", from); err != nil {
		return err
	}
	if err := m.checkIndexLocked("wallpaper.reorder", to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	next := make([]*types.WallpaperEntry, len(m.entries))
	copy(next, m.entries)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]*types.WallpaperEntry{moved}, next[to:]...)...)

	if err := m.commitLocked(ctx, next, ReorderPosition(m.position, from, to)); err != nil {
		m.notifyFailure(err)
		return err
	}
	m.showLocked(ctx)
	return nil
}

// ReorderPosition returns where the current position lands after moving from to to
func ReorderPosition(pos, from, to int) int {
	switch {
	case pos == from:
		return to
	case from < pos && to >= pos:
		return pos - 1
	case from > pos && to <= pos:
		return pos + 1
	}
	return pos
}

// Remove deletes the entry at index and its media
func (m *Manager) Remove(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(ctx, index)
}

// Tap registers a tap on a history dot; the third quick tap removes it
func (m *Manager) Tap(ctx context.Context, index int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIndexLocked("wallpaper.tap", index); err != nil {
		m.taps.Reset()
		return false, err
	}
	if !m.taps.Tap(index) {
		return false, nil
	}
	return true, m.removeLocked(ctx, index)
}

func (m *Manager) removeLocked(ctx context.Context, index int) (err error) {
	t := monitoring.NewTimer(m.metrics, "remove")
	defer func() { t.Stop(err) }()

	if err := m.checkIndexLocked("wallpaper.remove", index); err != nil {
		return err
	}
	victim := m.entries[index]

	// Abort only while nothing is deleted. Once some media is gone the entry
	// is unusable, so the rest is deleted best-effort and it is spliced out.
	var orphanErr error
	for i, key := range victim.MediaKeys() {
		if err := m.store.Delete(ctx, key); err != nil {
			m.storageFailure("delete")
			if i == 0 {
				m.notifyFailure(err)
				return err
			}
			m.logger.Warn("media delete failed during remove", zap.String("key", key), zap.Error(err))
			if orphanErr == nil {
				orphanErr = err
			}
		}
	}

	next := make([]*types.WallpaperEntry, 0, len(m.entries)-1)
	next = append(next, m.entries[:index]...)
	next = append(next, m.entries[index+1:]...)

	pos := m.position
	switch {
	case index == pos:
		pos = max(0, pos-1)
	case index < pos:
		pos--
	}
	if pos >= len(next) {
		pos = max(0, len(next)-1)
	}

	if err := m.commitLocked(ctx, next, pos); err != nil {
		// media is already gone; keep the in-memory list honest anyway
		m.logger.Warn("history persist failed after remove", zap.Error(err))
		m.entries, m.position = next, pos
	}

	m.showLocked(ctx)
	if orphanErr != nil {
		m.notifyFailure(orphanErr)
	}
	code := types.NoticeWallpaperRemoved
	if len(next) == 0 {
		code = types.NoticeAllRemoved
	}
	m.notifier.Notify(types.Notice{Level: types.NoticeInfo, Code: code})
	return nil
}

// UpdateStyle sets one style field on the entry with the given key. ifCurrent
// runs under the history lock when that entry is selected.
func (m *Manager) UpdateStyle(ctx context.Context, entryKey, key string, value interface{}, ifCurrent func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOfLocked(entryKey)
	if idx < 0 {
		return failure.Newf(failure.KindNotFound, "wallpaper.style", "no entry %s", entryKey)
	}
	entry := m.entries[idx]
	profile := types.DefaultStyleProfile()
	if entry.Style != nil {
		profile = *entry.Style
	}
	if err := style.SetField(&profile, key, value); err != nil {
		return err
	}
	entry.Style = &profile

	if idx == m.position && ifCurrent != nil {
		ifCurrent()
	}
	m.persistBestEffort(ctx)
	return nil
}

// BindToCurrent stores a copy of p on the current entry
func (m *Manager) BindToCurrent(ctx context.Context, p types.StyleProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.currentLocked()
	if cur == nil {
		return nil
	}
	cur.Style = &p
	m.persistBestEffort(ctx)
	return nil
}

// CurrentEntryKey returns the key of the selected entry, "" when empty
func (m *Manager) CurrentEntryKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.currentLocked(); cur != nil {
		return cur.Key
	}
	return ""
}

// Snapshot returns a deep copy of the history
func (m *Manager) Snapshot() types.HistorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*types.WallpaperEntry, len(m.entries))
	for i, e := range m.entries {
		entries[i] = e.Clone()
	}
	return types.HistorySnapshot{Entries: entries, Position: m.position, Capacity: m.capacity}
}

// Len returns the number of entries
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// View returns what the wallpaper layer currently shows
func (m *Manager) View() types.WallpaperView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Media reads one stored payload, but only for keys the history references
func (m *Manager) Media(ctx context.Context, key string) (*media.Payload, error) {
	m.mu.Lock()
	owned := false
	for _, e := range m.entries {
		for _, k := range e.MediaKeys() {
			owned = owned || k == key
		}
	}
	m.mu.Unlock()
	if !owned {
		return nil, failure.Newf(failure.KindNotFound, "wallpaper.media", "unknown media %s", key)
	}

	p, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		m.notifier.Notify(types.Notice{Level: types.NoticeError, Code: types.NoticeWallpaperLoadFail})
		return nil, failure.Newf(failure.KindNotFound, "wallpaper.media", "media %s missing from store", key)
	}
	return p, nil
}

// Close stops the slideshow timer
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slideshow.Stop()
	m.slideKey = ""
}

func (m *Manager) moveLocked(ctx context.Context, pos int) {
	if pos == m.position {
		return
	}
	m.position = pos
	if m.state != nil {
		if err := m.state.SetJSON(ctx, settingsPositionKey, pos); err != nil {
			m.logger.Warn("persist wallpaper position failed", zap.Error(err))
		}
	}
}

// showLocked applies the current entry's style, then renders its media
func (m *Manager) showLocked(ctx context.Context) {
	cur := m.currentLocked()
	if cur != nil {
		if cur.Style == nil {
			def := types.DefaultStyleProfile()
			cur.Style = &def
		}
		m.style.Apply(ctx, cur.Style.Clone())
	}
	m.syncSlideshowLocked()
	m.renderer.RenderWallpaper(m.viewLocked())
}

func (m *Manager) viewLocked() types.WallpaperView {
	view := types.WallpaperView{Position: m.position, Count: len(m.entries)}
	cur := m.currentLocked()
	if cur == nil {
		view.Position = 0
		return view
	}
	view.Entry = cur.Clone()
	if cur.IsSlideshow {
		if len(cur.Slides) > 0 {
			ref := cur.Slides[m.slide%len(cur.Slides)]
			view.Media = &ref
			view.Slide = m.slide % len(cur.Slides)
		}
	} else {
		view.Media = &types.MediaRef{ID: cur.ID, MediaType: cur.MediaType, MIME: cur.MIME}
	}
	return view
}

func (m *Manager) currentLocked() *types.WallpaperEntry {
	if len(m.entries) == 0 || m.position < 0 || m.position >= len(m.entries) {
		return nil
	}
	return m.entries[m.position]
}

func (m *Manager) indexOfLocked(entryKey string) int {
	for i, e := range m.entries {
		if e.Key == entryKey {
			return i
		}
	}
	return -1
}

func (m *Manager) checkIndexLocked(op string, index int) error {
	if index < 0 || index >= len(m.entries) {
		return failure.Newf(failure.KindInvalidInput, op, "index %d out of range [0,%d)", index, len(m.entries))
	}
	return nil
}

type prepared struct {
	ref     types.MediaRef
	payload *media.Payload
}

// prepare sniffs and compresses an upload outside the history lock
func (m *Manager) prepare(u Upload) (*prepared, error) {
	mime, mt, err := Sniff(u)
	if err != nil {
		return nil, err
	}
	if mt == types.MediaVideo {
		return &prepared{
			ref:     types.MediaRef{MediaType: mt, MIME: mime},
			payload: &media.Payload{Blob: u.Data, Type: mime, Timestamp: m.now()},
		}, nil
	}

	start := time.Now()
	c, err := m.compressor.Compress(u.Data)
	if m.metrics != nil {
		m.metrics.CompressDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}
	return &prepared{
		ref:     types.MediaRef{MediaType: mt, MIME: c.MIME},
		payload: &media.Payload{DataURL: c.DataURL, Type: c.MIME, Timestamp: m.now()},
	}, nil
}

func (m *Manager) put(ctx context.Context, key string, p *prepared) error {
	if err := m.store.Put(ctx, key, p.payload); err != nil {
		m.storageFailure("put")
		if !failure.Is(err, failure.KindStorage) {
			err = failure.New(failure.KindStorage, "wallpaper.put", err)
		}
		return err
	}
	if m.metrics != nil {
		m.metrics.MediaBytes.WithLabelValues(string(p.ref.MediaType)).Add(float64(p.payload.Size()))
	}
	return nil
}

func (m *Manager) deleteMedia(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil {
			m.storageFailure("delete")
			m.logger.Warn("delete media failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (m *Manager) storageFailure(op string) {
	if m.metrics != nil {
		m.metrics.StorageFailures.WithLabelValues(op).Inc()
	}
}

func (m *Manager) notifyFailure(err error) {
	code := types.NoticeWallpaperSaveFail
	switch failure.KindOf(err) {
	case failure.KindMediaDecode:
		code = types.NoticeUnsupportedFile
	case failure.KindInvalidInput, failure.KindNotFound:
		return
	}
	var fe *failure.Error
	msg := err.Error()
	if errors.As(err, &fe) && fe.Err != nil {
		msg = fe.Err.Error()
	}
	m.notifier.Notify(types.Notice{Level: types.NoticeError, Code: code, Message: msg})
}

type nopRenderer struct{}

func (nopRenderer) RenderWallpaper(types.WallpaperView) {}
func (nopRenderer) RenderSlide(types.WallpaperView)     {}

type nopNotifier struct{}

func (nopNotifier) Notify(types.Notice) {}
