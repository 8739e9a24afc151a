package session

import "log/slog"

// HapticEvent is one of the closed set of discrete side-channel event kinds.
type HapticEvent string

const (
	EventLight   HapticEvent = "light"
	EventMedium  HapticEvent = "medium"
	EventHeavy   HapticEvent = "heavy"
	EventSuccess HapticEvent = "success"
	EventWarning HapticEvent = "warning"
	EventError   HapticEvent = "error"
)

// Haptics is the discrete haptic/notification side-channel invoked on rep
// completion, rest-over, and safety-gate violations. The concrete delivery
// mechanism is platform code outside this module.
type Haptics interface {
	Trigger(e HapticEvent)
}

// NopHaptics discards all events.
type NopHaptics struct{}

func (NopHaptics) Trigger(HapticEvent) {}

// LogHaptics logs events; the default delivery in headless deployments.
type LogHaptics struct {
	Log *slog.Logger
}

func (h LogHaptics) Trigger(e HapticEvent) {
	h.Log.Debug("haptic event", "kind", string(e))
}
