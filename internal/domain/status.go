package domain

import "time"

type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// PreviewFrame holds either the latest program image (a data URI) or the
// placeholder error shown instead of it.
type PreviewFrame struct {
	ImageData string    `json:"image_data,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f PreviewFrame) HasImage() bool {
	return f.ImageData != "" && f.Error == ""
}

// PanelState is the full snapshot rendered by every operator surface.
type PanelState struct {
	Connection ConnectionStatus `json:"connection"`
	Preview    PreviewFrame     `json:"preview"`
	Previewing bool             `json:"previewing"`
	Relays     RelaySnapshot    `json:"relays"`
	Scenes     SceneList        `json:"scenes"`
}

// Event is a state change pushed to live panels.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	EventState      = "state"
	EventRelays     = "relays"
	EventConnection = "connection"
	EventPreview    = "preview"
	EventScenes     = "scenes"
	EventToast      = "toast"
)
