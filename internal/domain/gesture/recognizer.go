package gesture

import (
	"math"

	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Options configures a Recognizer
type Options struct {
	Viewport Viewport
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// Recognizer turns raw pointer samples into drawer, embed, history and
// wallpaper-swipe gestures. At most one drag is tracked at a time.
//
// Not safe for concurrent use; the shell serialises input.
type Recognizer struct {
	dispatcher Dispatcher
	surface    Surface
	viewport   Viewport
	drawer     DrawerState
	state      State
	drag       *Drag
	last       Resolution
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewRecognizer creates an idle recognizer with the drawer closed
func NewRecognizer(dispatcher Dispatcher, surface Surface, opts Options) *Recognizer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognizer{
		dispatcher: dispatcher,
		surface:    surface,
		viewport:   opts.Viewport,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// State returns the current state
func (r *Recognizer) State() State { return r.state }

// Drawer returns the resting drawer state
func (r *Recognizer) Drawer() DrawerState { return r.drawer }

// SetDrawer records a drawer change made outside a gesture (button, app launch)
func (r *Recognizer) SetDrawer(d DrawerState) { r.drawer = d }

// SetViewport updates the page size used for percentages
func (r *Recognizer) SetViewport(v Viewport) { r.viewport = v }

// Viewport returns the current page size
func (r *Recognizer) Viewport() Viewport { return r.viewport }

// Last returns the most recent resolution
func (r *Recognizer) Last() Resolution { return r.last }

// Tracking returns the drag in progress, or nil
func (r *Recognizer) Tracking() *Drag {
	if r.state != StateTracking {
		return nil
	}
	return r.drag
}

// Down starts tracking a pointer. index is the dot index for TargetDot and
// pitch its slot width in pixels (0 for the default). A second pointer-down
// while a drag is in progress cancels that drag and starts nothing.
func (r *Recognizer) Down(target Target, index int, pitch float64, p Sample) {
	if r.state == StateTracking {
		r.Cancel("second pointer")
		return
	}

	kind, ok := r.classifyDown(target)
	if !ok {
		return
	}

	drag := newDrag(target, index, p, r.drawer)
	drag.Kind = kind
	if pitch > 0 {
		drag.DotPitch = pitch
	}
	r.drag = drag
	r.state = StateTracking

	r.logger.Debug("Gesture started",
		zap.String("target", string(target)),
		zap.String("kind", kind.String()))
}

func (r *Recognizer) classifyDown(target Target) (Kind, bool) {
	switch target {
	case TargetDot:
		return KindHistory, true
	case TargetHandle:
		if r.surface.EmbedActive() {
			return KindEmbed, true
		}
		if r.drawer == DrawerClosed && !r.surface.AppsEnabled() {
			return 0, false
		}
		return KindDrawer, true
	case TargetDrawer:
		if r.drawer != DrawerOpen {
			return 0, false
		}
		return KindDrawer, true
	case TargetEmbedZone:
		if !r.surface.EmbedActive() {
			return 0, false
		}
		return KindEmbed, true
	case TargetBackground:
		return KindPending, true
	}
	return 0, false
}

// Move feeds a sample to the drag in progress
func (r *Recognizer) Move(p Sample) {
	if r.state != StateTracking {
		return
	}
	d := r.drag
	d.sample(p, r.viewport.Height)

	if d.Kind == KindPending {
		dx, dy := math.Abs(d.DX()), math.Abs(d.DY())
		if math.Max(dx, dy) <= SlopPx {
			return
		}
		d.Kind = r.classifyAxis(dy > dx)
		r.logger.Debug("Gesture classified", zap.String("kind", d.Kind.String()))
	}

	if f, ok := r.feedback(d); ok {
		r.dispatcher.Feedback(f)
	}
}

func (r *Recognizer) classifyAxis(vertical bool) Kind {
	if !vertical {
		return KindSwipe
	}
	switch {
	case r.surface.EmbedActive():
		return KindEmbed
	case r.drawer == DrawerOpen:
		return KindDrawer
	case r.surface.AppsEnabled():
		return KindDrawer
	}
	return KindInert
}

func (r *Recognizer) feedback(d *Drag) (Feedback, bool) {
	f := Feedback{Kind: d.Kind.String()}
	switch d.Kind {
	case KindDrawer, KindEmbed:
		progress := d.Up(r.viewport.Height)
		if d.Kind == KindDrawer && d.Drawer == DrawerOpen {
			progress = -progress
		}
		f.Progress = clamp(progress, 0, 100)
		f.DockVisible = d.Kind == KindDrawer && d.Drawer == DrawerClosed && f.Progress > DockThreshold
	case KindSwipe:
		f.OffsetX = d.DX()
	case KindHistory:
		f.Shift = d.Shift()
		f.OffsetX = d.DX()
	default:
		return f, false
	}
	return f, true
}

// Up releases the pointer and resolves the drag
func (r *Recognizer) Up(p Sample) Resolution {
	if r.state != StateTracking {
		return Resolution{State: StateIdle, Name: StateIdle.String(), Action: ActionNone}
	}
	d := r.drag
	if p != d.Last {
		d.sample(p, r.viewport.Height)
	}

	var res Resolution
	switch d.Kind {
	case KindDrawer:
		res = r.resolveDrawer(d)
	case KindEmbed:
		res = r.resolveEmbed(d)
	case KindHistory:
		res = r.resolveHistory(d)
	case KindSwipe:
		res = r.resolveSwipe(d)
	default:
		res = Resolution{State: StateIdle, Action: ActionNone}
	}
	return r.finish(res)
}

func (r *Recognizer) resolveDrawer(d *Drag) Resolution {
	res := Resolution{State: StateResolvedDrawer}
	distance := d.Up(r.viewport.Height)
	velocity := d.Velocity()

	if d.Drawer == DrawerOpen {
		if -distance > CommitThreshold || -velocity > FlickVelocity {
			r.drawer = DrawerClosed
			r.dispatcher.CloseDrawer()
			res.Action = ActionCloseDrawer
			return res
		}
		r.dispatcher.Feedback(Feedback{Kind: d.Kind.String(), Reset: true})
		res.Action = ActionRevert
		return res
	}

	switch {
	case distance > CommitThreshold || velocity > FlickVelocity:
		r.drawer = DrawerOpen
		r.dispatcher.OpenDrawer()
		res.Action = ActionOpenDrawer
	case distance > DockThreshold:
		r.dispatcher.ShowDock(true)
		res.Action = ActionShowDock
	default:
		r.dispatcher.ShowDock(false)
		r.dispatcher.Feedback(Feedback{Kind: d.Kind.String(), Reset: true})
		res.Action = ActionRevert
	}
	return res
}

func (r *Recognizer) resolveEmbed(d *Drag) Resolution {
	res := Resolution{State: StateResolvedEmbed}
	distance := d.Up(r.viewport.Height)

	switch {
	case distance > CommitThreshold || d.Velocity() > FlickVelocity:
		r.dispatcher.MinimizeEmbed()
		res.Action = ActionMinimizeEmbed
	case distance > DockThreshold:
		r.dispatcher.ShowDock(true)
		res.Action = ActionShowDock
	default:
		r.dispatcher.ShowDock(false)
		r.dispatcher.Feedback(Feedback{Kind: d.Kind.String(), Reset: true})
		res.Action = ActionRevert
	}
	return res
}

func (r *Recognizer) resolveHistory(d *Drag) Resolution {
	res := Resolution{State: StateResolvedHistory, From: d.Index}
	shift := d.Shift()
	if shift == 0 {
		r.dispatcher.SelectDot(d.Index)
		res.Action = ActionSelect
		res.To = d.Index
		return res
	}

	last := r.surface.HistoryCount() - 1
	to := d.Index + shift
	if to < 0 {
		to = 0
	}
	if to > last {
		to = last
	}
	res.To = to
	if to == d.Index || last < 0 {
		r.dispatcher.Feedback(Feedback{Kind: d.Kind.String(), Reset: true})
		res.Action = ActionRevert
		return res
	}
	r.dispatcher.ReorderDot(d.Index, to)
	res.Action = ActionReorder
	return res
}

func (r *Recognizer) resolveSwipe(d *Drag) Resolution {
	// swipes have no resolved state of their own; they act on history
	res := Resolution{State: StateResolvedHistory}
	dx := d.DX()
	switch {
	case dx > SwipeThreshold:
		r.dispatcher.SwitchWallpaper("left")
		res.Action = ActionSwipeLeft
	case dx < -SwipeThreshold:
		r.dispatcher.SwitchWallpaper("right")
		res.Action = ActionSwipeRight
	default:
		r.dispatcher.Feedback(Feedback{Kind: d.Kind.String(), Reset: true})
		res.Action = ActionRevert
	}
	return res
}

func (r *Recognizer) finish(res Resolution) Resolution {
	res.Name = res.State.String()
	r.last = res
	r.metrics.RecordGesture(res.Name, string(res.Action))
	r.logger.Debug("Gesture resolved",
		zap.String("state", res.Name),
		zap.String("action", string(res.Action)))

	r.state = StateIdle
	r.drag = nil
	return res
}

// Cancel abandons the drag in progress and snaps the page back. No
// transition is dispatched.
func (r *Recognizer) Cancel(reason string) {
	if r.state != StateTracking {
		return
	}
	kind := r.drag.Kind
	r.state = StateCancelled
	if kind != KindPending && kind != KindInert {
		r.dispatcher.Feedback(Feedback{Kind: kind.String(), Reset: true})
	}
	r.logger.Debug("Gesture cancelled", zap.String("reason", reason))
	r.finish(Resolution{State: StateCancelled, Action: ActionNone})
}

// ElementRemoved cancels the drag if its target left the page. index picks
// the dot for TargetDot and is ignored otherwise.
func (r *Recognizer) ElementRemoved(target Target, index int) {
	if r.state != StateTracking || r.drag.Target != target {
		return
	}
	if target == TargetDot && r.drag.Index != index {
		return
	}
	r.Cancel("target removed")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
