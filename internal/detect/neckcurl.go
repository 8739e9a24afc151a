package detect

import (
	"time"

	"github.com/claude/posecoach/internal/pose"
)

// Neck curl safety gate. Cervical flexion under load must be slow; reps
// completed faster than this interval are flagged as high injury risk and
// scored below 0.5 so they never count, but they are always surfaced.
const neckCurlMinInterval = 3 * time.Second

const (
	unsafeNeckCurlAccuracy = 0.30
	neckCurlWarning        = "TOO FAST — high injury risk. Slow down immediately."

	// Vertical nose-to-shoulder offsets with hysteresis so head bob near the
	// threshold does not chatter between phases.
	neckCurlFlexOffset    = 0.12
	neckCurlReleaseOffset = 0.18
)

// neckCurl is the safety-gated cyclic detector: the same two-phase cycle
// shape as the face pull, driven by the vertical nose-to-shoulder offset,
// with a materially larger minimum-interval gate.
type neckCurl struct {
	curled         bool
	lastCompletion time.Time
}

func newNeckCurl() *neckCurl {
	return &neckCurl{}
}

func (d *neckCurl) Reset() {
	d.curled = false
	d.lastCompletion = time.Time{}
}

// noseLift is the vertical offset between the nose and the nearer detected
// shoulder.
func noseLift(f *pose.Frame) (float64, bool) {
	if off, ok := pose.VerticalOffset(f, pose.Nose, pose.LeftShoulder); ok {
		return off, true
	}
	return pose.VerticalOffset(f, pose.Nose, pose.RightShoulder)
}

func (d *neckCurl) Process(f *pose.Frame) Result {
	lift, ok := noseLift(f)
	if !ok {
		return missing(firstMissing(f, pose.Nose, pose.LeftShoulder, pose.RightShoulder))
	}

	if !d.curled && lift < neckCurlFlexOffset {
		d.curled = true
		return Result{FormAccuracy: 0.9, Feedback: "Lower back down slowly"}
	}

	if d.curled && lift > neckCurlReleaseOffset {
		d.curled = false
		now := f.Timestamp
		unsafe := !d.lastCompletion.IsZero() && now.Sub(d.lastCompletion) < neckCurlMinInterval
		d.lastCompletion = now

		res := Result{
			Completed:    true,
			FormAccuracy: 1.0,
			Metrics:      map[string]float64{"noseLift": lift},
		}
		if unsafe {
			res.FormAccuracy = unsafeNeckCurlAccuracy
			res.Feedback = neckCurlWarning
		}
		return res
	}

	if d.curled {
		return Result{FormAccuracy: 0.9, Feedback: "Lower back down slowly"}
	}
	return Result{FormAccuracy: 0.8, Feedback: "Curl your chin toward your chest"}
}
