package detect

import (
	"time"

	"github.com/claude/posecoach/internal/pose"
	"github.com/claude/posecoach/internal/workout"
)

// Chin tuck thresholds. The retraction ratios and alignment target are
// carried over from the reference tuning, not re-derived.
const (
	tuckStartRatio    = 0.80 // metric below this fraction of baseline = movement initiated
	tuckReleaseRatio  = 0.95 // metric back above this fraction = rep released
	tuckAlignTarget   = 0.05 // ear/shoulder horizontal offset for a full tuck
	tuckAlignLost     = 0.10 // offset drift at which the hold is considered released
	tuckTiltTolerance = 0.03 // ear-to-ear vertical offset before tilt penalty
	tuckAlignPenalty  = 4.0  // accuracy penalty per unit of residual offset
	tuckTiltPenalty   = 3.0  // accuracy penalty per unit of head tilt
)

// chinTuck is the isometric-hold detector. The neck metric is the nose to
// shoulder distance averaged over the frames buffered since the last state
// transition, so single-frame estimator noise cannot fire a transition; the
// buffer clears on every transition to keep edges from lagging behind the
// previous phase. A repetition is a retraction below the start ratio, an
// aligned hold sustained for the configured duration, and a release back to
// baseline.
type chinTuck struct {
	cfg        workout.Config
	state      State
	baseline   float64
	holdStart  time.Time
	heldOffset float64 // worst alignment seen during the hold, scored at completion
	buf        frameBuffer
}

func newChinTuck(cfg workout.Config) *chinTuck {
	return &chinTuck{cfg: cfg, state: Idle}
}

func (d *chinTuck) Reset() {
	d.state = Idle
	d.baseline = 0
	d.holdStart = time.Time{}
	d.heldOffset = 0
	d.buf.reset()
}

// smoothedNeck averages the nose-to-shoulder distance over the buffered
// frames, requiring both shoulders so the metric does not jump when one side
// drops out.
func (d *chinTuck) smoothedNeck() (float64, bool) {
	left, okL := d.buf.smoothedDistance(pose.Nose, pose.LeftShoulder)
	right, okR := d.buf.smoothedDistance(pose.Nose, pose.RightShoulder)
	if !okL || !okR {
		return 0, false
	}
	return (left + right) / 2, true
}

// alignment is the horizontal ear-to-shoulder offset, taking the better
// detected side. Measured raw per frame: losing the hold must register
// immediately, not after a smoothing delay.
func alignment(f *pose.Frame) (float64, bool) {
	if off, ok := pose.HorizontalOffset(f, pose.LeftEar, pose.LeftShoulder); ok {
		return off, true
	}
	return pose.HorizontalOffset(f, pose.RightEar, pose.RightShoulder)
}

// transition moves to the next state and clears the smoothing window.
func (d *chinTuck) transition(s State) {
	d.state = s
	d.buf.reset()
}

func (d *chinTuck) Process(f *pose.Frame) Result {
	for _, p := range []pose.Point{pose.Nose, pose.LeftShoulder, pose.RightShoulder} {
		if _, ok := f.Landmark(p); !ok {
			return missing(p)
		}
	}
	offset, ok := alignment(f)
	if !ok {
		return missing(firstMissing(f, pose.LeftEar, pose.RightEar))
	}

	d.buf.push(f)
	metric, ok := d.smoothedNeck()
	if !ok {
		return missing(pose.Nose)
	}

	switch d.state {
	case Idle:
		d.baseline = metric
		d.transition(Starting)
		return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Tuck your chin straight back"}

	case Starting:
		if metric < d.baseline*tuckStartRatio {
			d.transition(InProgress)
		}
		return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Tuck your chin straight back"}

	case InProgress:
		if offset < tuckAlignTarget {
			d.transition(Holding)
			d.holdStart = f.Timestamp
			d.heldOffset = offset
			return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Hold it there"}
		}
		return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Pull back a little further"}

	case Holding:
		if offset >= tuckAlignLost {
			// Alignment lost before the hold completed: the hold restarts.
			d.transition(InProgress)
			return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Keep holding, don't release early"}
		}
		if offset > d.heldOffset {
			d.heldOffset = offset
		}
		held := f.Timestamp.Sub(d.holdStart)
		if held >= time.Duration(d.cfg.HoldSeconds)*time.Second {
			d.transition(Completing)
			return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Great hold, now release slowly"}
		}
		return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Hold it there"}

	case Completing:
		if metric >= d.baseline*tuckReleaseRatio {
			accuracy := d.completionAccuracy(f)
			held := d.heldOffset
			d.Reset()
			return Result{
				Completed:    true,
				FormAccuracy: accuracy,
				Metrics: map[string]float64{
					"neckDistance": metric,
					"alignment":    held,
				},
			}
		}
		return Result{FormAccuracy: d.liveAccuracy(offset), Feedback: "Release slowly"}
	}

	return Result{}
}

// liveAccuracy is the evolving estimate shown while a rep is in flight,
// driven by how close the alignment is to target.
func (d *chinTuck) liveAccuracy(offset float64) float64 {
	acc := 1 - offset*tuckAlignPenalty
	if acc < 0 {
		return 0
	}
	return acc
}

// completionAccuracy scores the finished rep, penalizing the worst alignment
// seen during the hold and head tilt measured at release time.
func (d *chinTuck) completionAccuracy(f *pose.Frame) float64 {
	acc := 1.0
	if d.heldOffset > tuckAlignTarget {
		acc -= (d.heldOffset - tuckAlignTarget) * tuckAlignPenalty
	}
	if tilt, ok := pose.VerticalOffset(f, pose.LeftEar, pose.RightEar); ok && tilt > tuckTiltTolerance {
		acc -= (tilt - tuckTiltTolerance) * tuckTiltPenalty
	}
	if acc < 0 {
		return 0
	}
	return acc
}
