package models

import "time"

// EventType names a signal on the capture event bus.
type EventType string

const (
	EventPermissionResult EventType = "permission_result"
	EventFrameReady       EventType = "frame_ready"
	EventCaptureFailed    EventType = "capture_failed"
)

// Event is the wire shape of every bus signal. Only the fields relevant to Type are set.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`

	// permission_result
	Granted bool   `json:"granted,omitempty"`
	Payload string `json:"payload,omitempty"`

	// frame_ready
	Path string `json:"path,omitempty"`

	// capture_failed
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`

	At time.Time `json:"at"`
}

func PermissionResult(sessionID string, granted bool, payload string) Event {
	return Event{Type: EventPermissionResult, SessionID: sessionID, Granted: granted, Payload: payload, At: time.Now().UTC()}
}

func FrameReady(sessionID, path string) Event {
	return Event{Type: EventFrameReady, SessionID: sessionID, Path: path, At: time.Now().UTC()}
}

func CaptureFailed(sessionID, code, reason string) Event {
	return Event{Type: EventCaptureFailed, SessionID: sessionID, Code: code, Reason: reason, At: time.Now().UTC()}
}

// AnalysisEventKind tags one element of an analysis stream.
type AnalysisEventKind string

const (
	AnalysisChunk    AnalysisEventKind = "chunk"
	AnalysisComplete AnalysisEventKind = "complete"
	AnalysisError    AnalysisEventKind = "error"
)

// AnalysisEvent is a chunk, or the terminal Complete/Error of a description stream.
type AnalysisEvent struct {
	Kind AnalysisEventKind
	Text string
	Err  error
}
