package detect

import (
	"github.com/claude/posecoach/internal/pose"
)

// Push-up thresholds at the sampled elbow joint.
const (
	pushUpDownAngle = 90.0  // elbow angle at or below this = bottom of the rep
	pushUpUpAngle   = 160.0 // elbow angle at or above this = lockout
	bodyLineTarget  = 180.0 // shoulder-hip-knee angle for a straight body
	bodyLineSlack   = 15.0  // degrees of sag/pike tolerated before penalty
)

// pushUp is the cyclic two-phase detector: a full up-down-up elbow cycle
// emits one repetition. Form is penalized when the shoulder-hip-knee line
// deviates from straight.
type pushUp struct {
	inDownPhase bool
}

func newPushUp() *pushUp {
	return &pushUp{}
}

func (d *pushUp) Reset() {
	d.inDownPhase = false
}

// elbowAngle samples whichever arm is fully detected, preferring the left.
func elbowAngle(f *pose.Frame) (float64, bool) {
	if a, ok := pose.Angle(f, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist); ok {
		return a, true
	}
	return pose.Angle(f, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
}

// bodyLineAngle measures the straight-line check across shoulder, hip and
// knee on whichever side is detected.
func bodyLineAngle(f *pose.Frame) (float64, bool) {
	if a, ok := pose.Angle(f, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee); ok {
		return a, true
	}
	return pose.Angle(f, pose.RightShoulder, pose.RightHip, pose.RightKnee)
}

func (d *pushUp) Process(f *pose.Frame) Result {
	angle, ok := elbowAngle(f)
	if !ok {
		return missing(firstMissing(f,
			pose.LeftElbow, pose.LeftShoulder, pose.LeftWrist,
			pose.RightElbow, pose.RightShoulder, pose.RightWrist))
	}

	accuracy, feedback := d.formScore(f)

	if !d.inDownPhase && angle <= pushUpDownAngle {
		d.inDownPhase = true
		return Result{FormAccuracy: accuracy, Feedback: "Push back up"}
	}

	if d.inDownPhase && angle >= pushUpUpAngle {
		d.inDownPhase = false
		return Result{
			Completed:    true,
			FormAccuracy: accuracy,
			Feedback:     feedback,
			Metrics:      map[string]float64{"elbowAngle": angle},
		}
	}

	return Result{FormAccuracy: accuracy, Feedback: feedback}
}

// formScore rates the body line. A sagging or piked hip line beyond the
// slack costs accuracy proportionally.
func (d *pushUp) formScore(f *pose.Frame) (float64, string) {
	line, ok := bodyLineAngle(f)
	if !ok {
		// Arms are visible but the torso line is not; score conservatively
		// without blocking the rep count.
		return 0.7, "Keep your whole body in view"
	}
	deviation := bodyLineTarget - line
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= bodyLineSlack {
		return 1.0, ""
	}
	accuracy := 1.0 - (deviation-bodyLineSlack)/90.0
	if accuracy < 0 {
		accuracy = 0
	}
	return accuracy, "Keep your body straight"
}
