package shell

import (
	"context"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/gesture"
	"github.com/GriffinCanCode/homescreen/internal/domain/wallpaper"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// Pointer is one pointer event from the page
type Pointer struct {
	Target gesture.Target
	// Index is the dot index for history dot targets
	Index int
	// Pitch is the dot slot width in pixels, 0 for the default
	Pitch float64
	X, Y  float64
	// At is the event timestamp in unix milliseconds, 0 for now
	At int64
}

func (p Pointer) sample() gesture.Sample {
	at := time.Now()
	if p.At > 0 {
		at = time.UnixMilli(p.At)
	}
	return gesture.Sample{X: p.X, Y: p.Y, At: at}
}

// PointerDown starts a gesture
func (s *Shell) PointerDown(p Pointer) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.Down(p.Target, p.Index, p.Pitch, p.sample())
}

// PointerMove feeds a sample to the drag in progress
func (s *Shell) PointerMove(p Pointer) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.Move(p.sample())
}

// PointerUp releases the pointer and returns what the gesture resolved to
func (s *Shell) PointerUp(p Pointer) gesture.Resolution {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	return s.gestures.Up(p.sample())
}

// ElementRemoved cancels a drag whose target left the page
func (s *Shell) ElementRemoved(target gesture.Target, index int) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.ElementRemoved(target, index)
}

// CancelGesture abandons any drag in progress
func (s *Shell) CancelGesture(reason string) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.Cancel(reason)
}

// SetViewport records the page size
func (s *Shell) SetViewport(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.SetViewport(gesture.Viewport{Width: width, Height: height})
}

// OpenDrawer opens the app drawer from a button
func (s *Shell) OpenDrawer() {
	if !s.AppsEnabled() {
		return
	}
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.gestures.SetDrawer(gesture.DrawerOpen)
	s.dockVisible = false
	s.emitDrawerLocked()
}

// CloseDrawer closes the app drawer and hides the dock
func (s *Shell) CloseDrawer() {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	if s.gestures.Drawer() == gesture.DrawerClosed && !s.dockVisible {
		return
	}
	s.gestures.SetDrawer(gesture.DrawerClosed)
	s.dockVisible = false
	s.emitDrawerLocked()
}

// Minimize minimizes the active embed, if any
func (s *Shell) Minimize() bool {
	return s.Embeds.Minimize()
}

func (s *Shell) emitDrawerLocked() {
	s.projector.Emit(types.EventDrawer, types.DrawerView{
		Open:        s.gestures.Drawer() == gesture.DrawerOpen,
		DockVisible: s.dockVisible,
		AppsEnabled: s.AppsEnabled(),
	})
}

// dispatcher carries out recognized gestures. The recognizer calls it while
// the shell holds inputMu.
type dispatcher struct{ s *Shell }

func (d dispatcher) OpenDrawer() {
	d.s.dockVisible = false
	d.s.emitDrawerLocked()
}

func (d dispatcher) CloseDrawer() {
	d.s.dockVisible = false
	d.s.emitDrawerLocked()
}

func (d dispatcher) MinimizeEmbed() {
	d.s.Embeds.Minimize()
	d.s.dockVisible = false
	d.s.emitDrawerLocked()
}

func (d dispatcher) ShowDock(visible bool) {
	if d.s.dockVisible == visible {
		return
	}
	d.s.dockVisible = visible
	d.s.emitDrawerLocked()
}

func (d dispatcher) SwitchWallpaper(dir string) {
	direction, err := wallpaper.ParseDirection(dir)
	if err == nil {
		err = d.s.History.Switch(context.Background(), direction)
	}
	if err != nil {
		d.s.logger.Warn("Swipe not applied", zap.String("direction", dir), zap.Error(err))
	}
}

func (d dispatcher) ReorderDot(from, to int) {
	if err := d.s.History.Reorder(context.Background(), from, to); err != nil {
		d.s.logger.Warn("Dot reorder failed", zap.Int("from", from), zap.Int("to", to), zap.Error(err))
	}
}

// SelectDot counts the tap first; a tap that does not remove the entry
// selects it.
func (d dispatcher) SelectDot(index int) {
	ctx := context.Background()
	removed, err := d.s.History.Tap(ctx, index)
	if err == nil && !removed {
		err = d.s.History.Jump(ctx, index)
	}
	if err != nil {
		d.s.logger.Warn("Dot selection failed", zap.Int("index", index), zap.Error(err))
	}
}

func (d dispatcher) Feedback(f gesture.Feedback) {
	d.s.projector.Emit(types.EventDrag, f)
}

// surface answers the recognizer's questions about the rest of the shell
type surface struct{ s *Shell }

func (u surface) EmbedActive() bool { return u.s.Embeds.HasActive() }
func (u surface) AppsEnabled() bool { return u.s.AppsEnabled() }
func (u surface) HistoryCount() int { return u.s.History.Len() }
