package models

import "time"

// SessionState is the capture-session lifecycle.
type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateAwaitingPermission SessionState = "awaiting_permission"
	StateCapturing          SessionState = "capturing"
	StateFrameReady         SessionState = "frame_ready"
	StateAnalyzing          SessionState = "analyzing"
	StateSpeaking           SessionState = "speaking"
	StateFailed             SessionState = "failed"
	StateComplete           SessionState = "complete"
)

// Terminal reports whether no further transition can leave s.
func (s SessionState) Terminal() bool {
	return s == StateFailed || s == StateComplete
}

// Active reports whether s is one of the non-terminal in-flight states.
func (s SessionState) Active() bool {
	switch s {
	case StateAwaitingPermission, StateCapturing, StateFrameReady, StateAnalyzing, StateSpeaking:
		return true
	}
	return false
}

var forward = map[SessionState]SessionState{
	StateIdle:               StateAwaitingPermission,
	StateAwaitingPermission: StateCapturing,
	StateCapturing:          StateFrameReady,
	StateFrameReady:         StateAnalyzing,
	StateAnalyzing:          StateSpeaking,
	StateSpeaking:           StateComplete,
}

// CanTransition allows the linear path plus a direct jump to Failed from any non-terminal state.
func CanTransition(from, to SessionState) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return forward[from] == to
}

// CaptureSession is one trigger-to-speech unit of work.
type CaptureSession struct {
	ID              string       `json:"session_id"`
	State           SessionState `json:"state"`
	LanguageCode    string       `json:"language"`
	FramePath       string       `json:"-"`
	AccumulatedText string       `json:"text,omitempty"`
	Chunks          int          `json:"chunks"`

	FailureCode   string `json:"failure_code,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Transition is published to observers for every accepted state change.
type Transition struct {
	From    SessionState   `json:"from"`
	To      SessionState   `json:"to"`
	Session CaptureSession `json:"session"`
	At      time.Time      `json:"at"`
}
