package models

// HapticEffect mirrors the predefined vibration effects the overlay clients support.
type HapticEffect string

const (
	HapticTick        HapticEffect = "tick"
	HapticHeavyClick  HapticEffect = "heavy_click"
	HapticDoubleClick HapticEffect = "double_click"
)

type FeedbackKind string

const (
	FeedbackHaptic     FeedbackKind = "haptic"
	FeedbackSpeech     FeedbackKind = "speech"
	FeedbackStopSpeech FeedbackKind = "stop_speech"
)

// FeedbackEvent is a transient haptic or speech action. It is never persisted.
type FeedbackEvent struct {
	Kind   FeedbackKind
	Effect HapticEffect

	Text  string
	Voice string
	Rate  float64
	Flush bool
}
