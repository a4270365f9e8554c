package types

import (
	"encoding/json"
	"time"
)

// SessionState is the lifecycle state of an embedded app session
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionMinimized SessionState = "minimized"
)

// Transition names the animation the renderer should play for a frame
type Transition string

const (
	TransitionOpen     Transition = "open"
	TransitionRestore  Transition = "restore"
	TransitionMinimize Transition = "minimize"
	TransitionClose    Transition = "close"
)

// EmbedSession is the read model of one iframe-hosted mini-app
type EmbedSession struct {
	URL      string       `json:"url"`
	AppID    string       `json:"app_id"`
	FrameID  string       `json:"frame_id"`
	State    SessionState `json:"state"`
	OpenedAt time.Time    `json:"opened_at"`
}

// Envelope is a cross-document message addressed to an embedded app.
// Payload is forwarded verbatim.
type Envelope struct {
	TargetApp string          `json:"targetApp"`
	Payload   json.RawMessage `json:"payload"`
}

// App describes one mini-app of the catalog
type App struct {
	Name       string    `json:"name" yaml:"name"`
	URL        string    `json:"url" yaml:"url"`
	Icon       string    `json:"icon" yaml:"icon"`
	Usage      int       `json:"usage" yaml:"-"`
	LastOpened time.Time `json:"last_opened,omitempty" yaml:"-"`
}
