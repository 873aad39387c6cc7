// Package overlay fans commands out to the on-screen overlay clients (the trigger button,
// haptics and speech on the device) over websocket.
package overlay

import "github.com/yoockh/yoosight/internal/models"

// Outbound command types.
const (
	CmdState             = "state"
	CmdHaptic            = "haptic"
	CmdSpeak             = "speak"
	CmdStopSpeech        = "stop_speech"
	CmdRequestPermission = "request_permission"
	CmdTap               = "tap"
	CmdLabel             = "label"
	CmdError             = "error"
)

// Inbound message types.
const (
	MsgTrigger          = "trigger"
	MsgToggle           = "toggle"
	MsgInterrupt        = "interrupt"
	MsgPermissionResult = "permission_result"
	MsgWindowState      = "window_state"
	MsgSpeechState      = "speech_state"
)

// Command is one server to client message. Only the fields relevant to Type are set.
type Command struct {
	Type string `json:"type"`

	// state
	SessionID string              `json:"session_id,omitempty"`
	State     models.SessionState `json:"state,omitempty"`
	From      models.SessionState `json:"from,omitempty"`
	Language  string              `json:"language,omitempty"`

	// haptic
	Effect models.HapticEffect `json:"effect,omitempty"`

	// speak, label
	Text  string  `json:"text,omitempty"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
	Flush bool    `json:"flush,omitempty"`

	// tap
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// error, failed state
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Inbound is one client to server message.
type Inbound struct {
	Type string `json:"type"`

	Language string `json:"language,omitempty"`

	SessionID string `json:"session_id,omitempty"`
	Granted   bool   `json:"granted,omitempty"`
	Payload   string `json:"payload,omitempty"`

	Package      string   `json:"package,omitempty"`
	Texts        []string `json:"texts,omitempty"`
	ScreenWidth  int      `json:"screen_width,omitempty"`
	ScreenHeight int      `json:"screen_height,omitempty"`

	Speaking bool `json:"speaking,omitempty"`
}
