package detect

import (
	"time"

	"github.com/claude/posecoach/internal/pose"
)

// Face pull tempo gate: completions spaced closer than this are downgraded
// with cautionary feedback, encoding "controlled tempo required".
const facePullMinInterval = 1500 * time.Millisecond

// rushedFacePullAccuracy is the downgraded score for a rushed completion.
// Below the validity threshold, so a rushed rep does not count.
const rushedFacePullAccuracy = 0.55

// facePull is the tempo-gated cyclic detector. The pulled phase is the
// wrist raised above shoulder height; a full pulled-to-released cycle emits
// one repetition.
type facePull struct {
	pulled         bool
	peakLift       float64 // highest wrist rise above the shoulder this cycle
	lastCompletion time.Time
}

func newFacePull() *facePull {
	return &facePull{}
}

func (d *facePull) Reset() {
	d.pulled = false
	d.peakLift = 0
	d.lastCompletion = time.Time{}
}

// wristAboveShoulder compares wrist and shoulder height on whichever side
// is fully detected.
func wristAboveShoulder(f *pose.Frame) (bool, float64, bool) {
	if w, ok := f.Landmark(pose.LeftWrist); ok {
		if s, ok := f.Landmark(pose.LeftShoulder); ok {
			return w.Y < s.Y, s.Y - w.Y, true
		}
	}
	if w, ok := f.Landmark(pose.RightWrist); ok {
		if s, ok := f.Landmark(pose.RightShoulder); ok {
			return w.Y < s.Y, s.Y - w.Y, true
		}
	}
	return false, 0, false
}

func (d *facePull) Process(f *pose.Frame) Result {
	above, lift, ok := wristAboveShoulder(f)
	if !ok {
		return missing(firstMissing(f,
			pose.LeftWrist, pose.LeftShoulder,
			pose.RightWrist, pose.RightShoulder))
	}

	if !d.pulled && above {
		d.pulled = true
		d.peakLift = lift
		return Result{FormAccuracy: 0.9, Feedback: "Squeeze, then release with control"}
	}

	if d.pulled && above && lift > d.peakLift {
		d.peakLift = lift
	}

	if d.pulled && !above {
		d.pulled = false
		now := f.Timestamp
		rushed := !d.lastCompletion.IsZero() && now.Sub(d.lastCompletion) < facePullMinInterval
		d.lastCompletion = now

		res := Result{
			Completed:    true,
			FormAccuracy: 1.0,
			Metrics:      map[string]float64{"pullHeight": d.peakLift},
		}
		if rushed {
			res.FormAccuracy = rushedFacePullAccuracy
			res.Feedback = "Slow down — controlled tempo builds the movement"
		}
		return res
	}

	if d.pulled {
		return Result{FormAccuracy: 0.9, Feedback: "Release with control"}
	}
	return Result{FormAccuracy: 0.8, Feedback: "Pull your hands up to face height"}
}
