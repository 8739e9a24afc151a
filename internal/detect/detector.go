// Package detect implements the per-exercise repetition detectors: finite
// state machines that consume landmark frames one at a time and emit at most
// one completed repetition per frame.
package detect

import (
	"fmt"

	"github.com/claude/posecoach/internal/pose"
	"github.com/claude/posecoach/internal/workout"
)

// State is the detector state vocabulary. Each exercise variant uses its own
// subset and transition rules.
type State int

const (
	Idle State = iota
	Starting
	InProgress
	Holding
	Completing
	Completed
)

var stateNames = [...]string{"idle", "starting", "in_progress", "holding", "completing", "completed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Result is the per-frame detector output. Completed is true only on the
// exact frame where the completing transition fires; every other frame
// carries an evolving form-accuracy estimate and optional coaching feedback.
type Result struct {
	Completed    bool               `json:"completed"`
	FormAccuracy float64            `json:"form_accuracy"`
	Feedback     string             `json:"feedback,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Valid reports whether the result is a countable repetition: completed
// with form accuracy at or above the acceptance threshold.
func (r Result) Valid() bool {
	return r.Completed && r.FormAccuracy >= workout.MinFormAccuracy
}

// missing returns the zero-confidence diagnostic result for a frame where a
// required landmark could not be detected. Detector state is left unchanged
// by the caller.
func missing(p pose.Point) Result {
	return Result{Feedback: "Cannot detect " + p.String()}
}

// firstMissing returns the first of the given points that is not validly
// detected in the frame, so the diagnostic names the landmark that actually
// failed. Falls back to the first point when all are present.
func firstMissing(f *pose.Frame, points ...pose.Point) pose.Point {
	for _, p := range points {
		if _, ok := f.Landmark(p); !ok {
			return p
		}
	}
	return points[0]
}

// Detector converts a frame sequence into repetition events. Implementations
// are not safe for concurrent use; the session controller serializes access.
type Detector interface {
	// Process consumes one frame and returns the per-frame result.
	Process(f *pose.Frame) Result
	// Reset returns the detector to Idle, discarding in-flight rep state.
	Reset()
}

// bufferSize is the number of recent frames retained for metric smoothing.
const bufferSize = 10

// frameBuffer keeps the most recent frames in FIFO order.
type frameBuffer struct {
	frames []*pose.Frame
}

func (b *frameBuffer) push(f *pose.Frame) {
	b.frames = append(b.frames, f)
	if len(b.frames) > bufferSize {
		b.frames = b.frames[1:]
	}
}

func (b *frameBuffer) reset() {
	b.frames = nil
}

// smoothedDistance averages a landmark pair distance over the buffered
// frames, skipping frames where the pair is not measurable.
func (b *frameBuffer) smoothedDistance(a, c pose.Point) (float64, bool) {
	var sum float64
	n := 0
	for _, f := range b.frames {
		if d, ok := pose.Distance(f, a, c); ok {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// New creates a freshly initialized detector for an exercise type. One
// instance serves exactly one active session.
func New(t workout.ExerciseType, cfg workout.Config) (Detector, error) {
	switch t {
	case workout.ChinTuck:
		return newChinTuck(cfg), nil
	case workout.PushUp:
		return newPushUp(), nil
	case workout.FacePull:
		return newFacePull(), nil
	case workout.NeckCurl:
		return newNeckCurl(), nil
	default:
		return nil, fmt.Errorf("no detector for exercise type %q", t)
	}
}
