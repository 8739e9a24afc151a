package detect

import (
	"testing"
	"time"

	"github.com/claude/posecoach/internal/pose"
	"github.com/claude/posecoach/internal/workout"
)

// frameAt builds a frame with the given landmarks, all at 0.9 confidence.
func frameAt(ts time.Time, points map[pose.Point][2]float64) *pose.Frame {
	lm := make(map[pose.Point]pose.Landmark, len(points))
	for p, xy := range points {
		lm[p] = pose.Landmark{X: xy[0], Y: xy[1], Confidence: 0.9}
	}
	return &pose.Frame{Landmarks: lm, Timestamp: ts, Confidence: 0.9}
}

// TestFactory verifies that every exercise type maps to a detector and that
// unknown types are rejected.
func TestFactory(t *testing.T) {
	for _, ex := range workout.Exercises {
		cfg, err := workout.ResolveConfig(ex, workout.Beginner)
		if err != nil {
			t.Fatal(err)
		}
		d, err := New(ex, cfg)
		if err != nil {
			t.Fatalf("New(%s): %v", ex, err)
		}
		if d == nil {
			t.Fatalf("New(%s): nil detector", ex)
		}
	}

	if _, err := New("burpee", workout.Config{}); err == nil {
		t.Error("expected error for unknown exercise type")
	}
}

// TestResultValid verifies the rep validity predicate:
// valid iff completed and form accuracy >= 0.60.
func TestResultValid(t *testing.T) {
	cases := []struct {
		name string
		r    Result
		want bool
	}{
		{"completed high accuracy", Result{Completed: true, FormAccuracy: 0.9}, true},
		{"completed at threshold", Result{Completed: true, FormAccuracy: 0.60}, true},
		{"completed low accuracy", Result{Completed: true, FormAccuracy: 0.59}, false},
		{"not completed", Result{Completed: false, FormAccuracy: 1.0}, false},
	}
	for _, tc := range cases {
		if got := tc.r.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestFrameBufferEviction verifies that the smoothing buffer retains only
// the most recent frames, evicting FIFO.
func TestFrameBufferEviction(t *testing.T) {
	var buf frameBuffer
	base := time.Now()
	for i := 0; i < bufferSize+5; i++ {
		buf.push(frameAt(base.Add(time.Duration(i)*time.Second), map[pose.Point][2]float64{
			pose.Nose: {0.5, 0.5},
		}))
	}
	if len(buf.frames) != bufferSize {
		t.Fatalf("buffer length = %d, want %d", len(buf.frames), bufferSize)
	}
	oldest := buf.frames[0].Timestamp
	if want := base.Add(5 * time.Second); !oldest.Equal(want) {
		t.Errorf("oldest buffered frame = %v, want %v", oldest, want)
	}
}
