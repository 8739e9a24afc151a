// Package pose defines the body-landmark data model delivered by the
// platform pose-estimation service and pure geometry helpers over it.
package pose

import "time"

// Point identifies one of the 17 tracked body keypoints.
type Point int

const (
	Nose Point = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumPoints = 17
)

var pointNames = map[Point]string{
	Nose:          "nose",
	LeftEye:       "left eye",
	RightEye:      "right eye",
	LeftEar:       "left ear",
	RightEar:      "right ear",
	LeftShoulder:  "left shoulder",
	RightShoulder: "right shoulder",
	LeftElbow:     "left elbow",
	RightElbow:    "right elbow",
	LeftWrist:     "left wrist",
	RightWrist:    "right wrist",
	LeftHip:       "left hip",
	RightHip:      "right hip",
	LeftKnee:      "left knee",
	RightKnee:     "right knee",
	LeftAnkle:     "left ankle",
	RightAnkle:    "right ankle",
}

// String returns the human-readable keypoint name used in coaching feedback.
func (p Point) String() string {
	if name, ok := pointNames[p]; ok {
		return name
	}
	return "unknown keypoint"
}

// MinConfidence is the per-landmark confidence floor below which a landmark
// is treated as not detected.
const MinConfidence = 0.5

// Landmark is one estimated keypoint position, normalized to [0,1] in both
// axes, with the estimator's confidence score.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the landmark is usable: confident enough and inside
// the normalized frame bounds.
func (l Landmark) Valid() bool {
	return l.Confidence > MinConfidence &&
		l.X >= 0 && l.X <= 1 &&
		l.Y >= 0 && l.Y <= 1
}

// Frame is one timestamped snapshot of the landmark set. Frames are produced
// by the estimation service at ~30 Hz and are never mutated by consumers.
type Frame struct {
	Landmarks  map[Point]Landmark `json:"landmarks"`
	Timestamp  time.Time          `json:"timestamp"`
	Confidence float64            `json:"confidence"`
}

// Landmark returns the named landmark and whether it is present and valid.
func (f *Frame) Landmark(p Point) (Landmark, bool) {
	l, ok := f.Landmarks[p]
	if !ok || !l.Valid() {
		return Landmark{}, false
	}
	return l, true
}
