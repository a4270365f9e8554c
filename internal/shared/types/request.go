package types

// SwitchRequest moves the history position
type SwitchRequest struct {
	Direction string `json:"direction" binding:"required,oneof=left right none"`
}

// ReorderRequest moves a history entry
type ReorderRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// StyleChangeRequest carries one style control change
type StyleChangeRequest struct {
	Key     string      `json:"key" binding:"required"`
	Value   interface{} `json:"value"`
	EntryID string      `json:"entry_id,omitempty"`
}

// OpenEmbedRequest opens (or restores) a mini-app
type OpenEmbedRequest struct {
	URL string `json:"url" binding:"required"`
}

// LoadReportRequest reports the outcome of an iframe load observed by the page
type LoadReportRequest struct {
	URL     string `json:"url" binding:"required"`
	Failed  bool   `json:"failed"`
	Refused bool   `json:"refused"`
	Body    string `json:"body,omitempty"`
}

// MessageRequest relays a postMessage envelope. The sender's origin comes
// from the request's Origin header.
type MessageRequest struct {
	Data Envelope `json:"data"`
}

// WeatherRefreshRequest carries the page's geolocation result
type WeatherRefreshRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Denied    bool     `json:"denied"`
	Timezone  string   `json:"timezone"`
}

// SettingRequest sets one persisted setting
type SettingRequest struct {
	Value interface{} `json:"value"`
}

// WSMessage represents an inbound WebSocket message
type WSMessage struct {
	Type     string      `json:"type"`
	Target   string      `json:"target,omitempty"`
	Index    int         `json:"index,omitempty"`
	X        float64     `json:"x,omitempty"`
	Y        float64     `json:"y,omitempty"`
	T        int64       `json:"t,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Height   float64     `json:"height,omitempty"`
	DotPitch float64     `json:"dot_pitch,omitempty"`
	Key      string      `json:"key,omitempty"`
	Value    interface{} `json:"value,omitempty"`
	EntryID  string      `json:"entry_id,omitempty"`
	Origin   string      `json:"origin,omitempty"`
	Data     *Envelope   `json:"data,omitempty"`
}

// Event is an outbound projection frame pushed to connected pages
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Seq  uint64      `json:"seq"`
}
