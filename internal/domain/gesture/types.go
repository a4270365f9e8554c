package gesture

import "time"

// Target is what a pointer-down landed on
type Target string

const (
	TargetHandle     Target = "drawer_handle"
	TargetDrawer     Target = "drawer"
	TargetEmbedZone  Target = "embed_zone"
	TargetBackground Target = "background"
	TargetDot        Target = "history_dot"
	TargetOther      Target = "other"
)

// State of the recognizer
type State int

const (
	StateIdle State = iota
	StateTracking
	StateResolvedDrawer
	StateResolvedEmbed
	StateResolvedHistory
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateResolvedDrawer:
		return "resolved_drawer"
	case StateResolvedEmbed:
		return "resolved_embed"
	case StateResolvedHistory:
		return "resolved_history"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Kind is the classification of a drag. Once set it never changes.
type Kind int

const (
	KindPending Kind = iota // background drag still inside the slop
	KindDrawer
	KindEmbed
	KindHistory
	KindSwipe
	KindInert // classified, but nothing may act on it
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindDrawer:
		return "drawer"
	case KindEmbed:
		return "embed"
	case KindHistory:
		return "history"
	case KindSwipe:
		return "swipe"
	case KindInert:
		return "inert"
	}
	return "unknown"
}

// DrawerState is the resting state of the app drawer
type DrawerState int

const (
	DrawerClosed DrawerState = iota
	DrawerOpen
)

func (d DrawerState) String() string {
	if d == DrawerOpen {
		return "open"
	}
	return "closed"
}

// Action is what a resolved gesture did
type Action string

const (
	ActionNone          Action = "none"
	ActionOpenDrawer    Action = "open_drawer"
	ActionCloseDrawer   Action = "close_drawer"
	ActionMinimizeEmbed Action = "minimize_embed"
	ActionShowDock      Action = "show_dock"
	ActionRevert        Action = "revert"
	ActionSwipeLeft     Action = "swipe_left"
	ActionSwipeRight    Action = "swipe_right"
	ActionReorder       Action = "reorder"
	ActionSelect        Action = "select"
)

// Resolution is the outcome of a release or cancellation
type Resolution struct {
	State  State  `json:"-"`
	Name   string `json:"state"`
	Action Action `json:"action"`
	From   int    `json:"from,omitempty"`
	To     int    `json:"to,omitempty"`
}

// Sample is one pointer position
type Sample struct {
	X, Y float64
	At   time.Time
}

// Viewport is the page size in CSS pixels
type Viewport struct {
	Width, Height float64
}

// Feedback is the live projection of a drag in progress
type Feedback struct {
	Kind        string  `json:"kind"`
	Progress    float64 `json:"progress"`
	DockVisible bool    `json:"dock_visible"`
	OffsetX     float64 `json:"offset_x,omitempty"`
	Shift       int     `json:"shift,omitempty"`
	Reset       bool    `json:"reset,omitempty"`
}

// Dispatcher carries out resolved gestures
type Dispatcher interface {
	OpenDrawer()
	CloseDrawer()
	MinimizeEmbed()
	ShowDock(visible bool)
	SwitchWallpaper(dir string)
	ReorderDot(from, to int)
	SelectDot(index int)
	Feedback(f Feedback)
}

// Surface answers questions about the rest of the shell at pointer-down
type Surface interface {
	EmbedActive() bool
	AppsEnabled() bool
	HistoryCount() int
}
