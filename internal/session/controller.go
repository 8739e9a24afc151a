// Package session implements the active-session controller: the single
// consumer of the landmark stream that feeds frames to the detector,
// accumulates reps into sets, runs the rest countdown between sets, and
// finalizes the session.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/posecoach/internal/detect"
	"github.com/claude/posecoach/internal/pose"
	"github.com/claude/posecoach/internal/workout"
)

// State is the controller lifecycle state.
type State int

const (
	NotStarted State = iota
	Active
	Resting
	Completed
	Cancelled
)

var stateNames = [...]string{"not_started", "active", "resting", "completed", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Recorder receives finalized sessions for persistence and aggregation.
// Calls are fire-and-forget from the controller's perspective: errors are
// surfaced through the snapshot, never retried.
type Recorder interface {
	RecordSession(ctx context.Context, s *workout.Session) error
}

// Controller orchestrates one in-progress workout. All mutations — frame
// arrival, rest-timer tick, pause/resume/cancel — are serialized through a
// single mutex, so a tick can never race a frame against shared state.
type Controller struct {
	mu       sync.Mutex
	log      *slog.Logger
	recorder Recorder
	haptics  Haptics

	state    State
	paused   bool
	session  *workout.Session
	detector detect.Detector
	cfg      workout.Config

	currentSet    workout.SetData
	currentRep    int
	restRemaining int
	restStop      chan struct{}
	noRestTimer   bool

	liveAccuracy  float64
	liveFeedback  string
	droppedFrames int
	lastErr       error

	// now is replaceable in tests for deterministic countdowns.
	now func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithHaptics sets the discrete haptic/notification side-channel.
func WithHaptics(h Haptics) Option {
	return func(c *Controller) { c.haptics = h }
}

// WithoutRestTimer disables the internal 1 Hz rest ticker; the owner drives
// the countdown through TickRest instead.
func WithoutRestTimer() Option {
	return func(c *Controller) { c.noRestTimer = true }
}

// New creates a controller. The recorder receives each finalized session
// exactly once.
func New(recorder Recorder, log *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		log:      log,
		recorder: recorder,
		haptics:  NopHaptics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resolves the workout configuration for the level and begins the
// session. Starting while a session is in progress is a no-op.
func (c *Controller) Start(t workout.ExerciseType, l workout.Level) error {
	cfg, err := workout.ResolveConfig(t, l)
	if err != nil {
		return err
	}
	return c.StartWithConfig(t, l, cfg)
}

// StartWithConfig begins a session with an explicit configuration, for
// custom workouts that override the level defaults.
func (c *Controller) StartWithConfig(t workout.ExerciseType, l workout.Level, cfg workout.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Active || c.state == Resting {
		c.log.Warn("start ignored: session in progress", "state", c.state.String())
		return nil
	}
	det, err := detect.New(t, cfg)
	if err != nil {
		return err
	}

	start := c.now()
	c.session = workout.NewSession(t, l, cfg, start)
	c.detector = det
	c.cfg = cfg
	c.state = Active
	c.paused = false
	c.currentRep = 0
	c.currentSet = workout.SetData{Number: 1, StartTime: start, TargetReps: cfg.TargetReps}
	c.restRemaining = 0
	c.liveAccuracy = 0
	c.liveFeedback = ""
	c.droppedFrames = 0
	c.lastErr = nil

	c.log.Info("session started",
		"exercise", string(t), "level", string(l),
		"target_reps", cfg.TargetReps, "target_sets", cfg.TargetSets)
	return nil
}

// HandleFrame consumes one landmark frame. Frames arriving while the
// controller cannot consume them are counted as dropped, never buffered.
func (c *Controller) HandleFrame(f *pose.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Active || c.paused {
		c.droppedFrames++
		return
	}

	res := c.detector.Process(f)
	c.liveAccuracy = res.FormAccuracy
	c.liveFeedback = res.Feedback

	if res.Completed && !res.Valid() {
		// Completed but below the form bar: surfaced, never counted.
		c.haptics.Trigger(EventWarning)
		return
	}
	if !res.Valid() {
		return
	}

	c.currentRep++
	c.currentSet.Reps = append(c.currentSet.Reps, workout.RepData{
		Number:       c.currentRep,
		Timestamp:    f.Timestamp,
		FormAccuracy: res.FormAccuracy,
		Valid:        true,
		Feedback:     res.Feedback,
		Metrics:      res.Metrics,
	})
	c.haptics.Trigger(EventSuccess)

	if c.currentRep >= c.cfg.TargetReps {
		c.finishSetLocked()
	}
}

// finishSetLocked finalizes the current set and either completes the
// session or enters the rest period.
func (c *Controller) finishSetLocked() {
	c.currentSet.Finalize(c.now())
	c.session.Sets = append(c.session.Sets, c.currentSet)

	if len(c.session.Sets) >= c.cfg.TargetSets {
		c.finalizeLocked()
		return
	}

	c.state = Resting
	c.restRemaining = c.cfg.RestSeconds
	c.detector.Reset()
	c.log.Info("set complete, resting",
		"set", c.currentSet.Number, "rest_seconds", c.restRemaining)
	c.startRestTimerLocked()
}

// TickRest decrements the rest countdown by one second. Called by the
// internal 1 Hz ticker, or by the owner when the timer is external. Ticks
// outside the resting state, or while paused, are no-ops.
func (c *Controller) TickRest() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Resting || c.paused {
		return
	}

	c.restRemaining--
	if c.restRemaining > 0 {
		return
	}

	c.stopRestTimerLocked()
	nextSet := c.currentSet.Number + 1
	c.currentSet = workout.SetData{Number: nextSet, StartTime: c.now(), TargetReps: c.cfg.TargetReps}
	c.currentRep = 0
	c.state = Active
	c.haptics.Trigger(EventMedium)
	c.log.Info("rest over", "set", nextSet)
}

// Pause suspends frame consumption and the rest countdown without losing
// session state. Pausing outside an active session is a no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active && c.state != Resting {
		return
	}
	c.paused = true
	c.log.Info("session paused", "state", c.state.String())
}

// Resume lifts a pause. Resuming while resting restarts the countdown from
// its last value.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.log.Info("session resumed", "state", c.state.String())
}

// Cancel stops consumption and the rest timer, discards the in-progress
// set, and persists the session as incomplete so partial data survives.
// The rest timer is stopped before Cancel returns.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Active && c.state != Resting {
		return
	}

	c.stopRestTimerLocked()
	end := c.now()
	c.session.EndTime = &end
	c.state = Cancelled
	c.paused = false
	c.log.Info("session cancelled",
		"completed_sets", len(c.session.Sets), "discarded_reps", len(c.currentSet.Reps))
	c.recordLocked(c.session)
}

// finalizeLocked stamps the end time, marks the session complete, and hands
// it to the recorder exactly once.
func (c *Controller) finalizeLocked() {
	end := c.now()
	c.session.EndTime = &end
	c.session.Completed = true
	c.state = Completed
	c.stopRestTimerLocked()
	c.haptics.Trigger(EventSuccess)
	c.log.Info("session complete",
		"exercise", string(c.session.Exercise),
		"valid_reps", c.session.TotalValidReps(),
		"avg_accuracy", c.session.AverageFormAccuracy())
	c.recordLocked(c.session)
}

// recordLocked hands the session to the recorder without blocking frame
// consumption. A failure is kept readable; no retry is attempted.
func (c *Controller) recordLocked(s *workout.Session) {
	go func() {
		if err := c.recorder.RecordSession(context.Background(), s); err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			c.log.Error("session record failed", "error", err)
			c.haptics.Trigger(EventError)
		}
	}()
}

func (c *Controller) startRestTimerLocked() {
	if c.noRestTimer {
		return
	}
	stop := make(chan struct{})
	c.restStop = stop
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				c.TickRest()
			}
		}
	}()
}

func (c *Controller) stopRestTimerLocked() {
	if c.restStop != nil {
		close(c.restStop)
		c.restStop = nil
	}
}
