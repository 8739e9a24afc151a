package session

import "github.com/claude/posecoach/internal/workout"

// Snapshot is the read-only view of the controller exposed to external
// consumers (UI, dashboard, HTTP API).
type Snapshot struct {
	State         string               `json:"state"`
	Paused        bool                 `json:"paused"`
	Exercise      workout.ExerciseType `json:"exercise,omitempty"`
	Level         workout.Level        `json:"level,omitempty"`
	CurrentSet    int                  `json:"current_set"`
	CurrentRep    int                  `json:"current_rep"`
	TargetReps    int                  `json:"target_reps"`
	TargetSets    int                  `json:"target_sets"`
	RestRemaining int                  `json:"rest_remaining"`
	LiveAccuracy  float64              `json:"live_accuracy"`
	LiveFeedback  string               `json:"live_feedback,omitempty"`
	DroppedFrames int                  `json:"dropped_frames"`
	LastError     string               `json:"last_error,omitempty"`
}

// Snapshot returns a consistent copy of the controller's observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:         c.state.String(),
		Paused:        c.paused,
		CurrentRep:    c.currentRep,
		RestRemaining: c.restRemaining,
		LiveAccuracy:  c.liveAccuracy,
		LiveFeedback:  c.liveFeedback,
		DroppedFrames: c.droppedFrames,
	}
	if c.session != nil {
		snap.Exercise = c.session.Exercise
		snap.Level = c.session.Level
		snap.CurrentSet = c.currentSet.Number
		snap.TargetReps = c.cfg.TargetReps
		snap.TargetSets = c.cfg.TargetSets
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}
	return snap
}

// Session returns the underlying session, or nil before the first start.
// Exposed for persistence retry/export paths after a record failure.
func (c *Controller) Session() *workout.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
