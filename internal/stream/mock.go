package stream

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/claude/posecoach/internal/pose"
)

// MockSource fabricates a sinusoidal push-up motion for development and
// demos: the elbow angle swings between lockout and the bottom of the rep
// at a fixed cadence. Not a model of real estimator noise.
type MockSource struct {
	mu          sync.Mutex
	fps         int
	minConf     float64
	initialized bool
	stop        chan struct{}
	delivered   int64
	dropped     int64
	started     time.Time
}

// CycleSeconds is the duration of one synthetic rep cycle.
const CycleSeconds = 4.0

// NewMockSource creates an unstarted mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

func (m *MockSource) Initialize(targetFPS int, minConfidence float64) error {
	if targetFPS <= 0 {
		return fmt.Errorf("invalid target fps %d", targetFPS)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fps = targetFPS
	m.minConf = minConfidence
	m.initialized = true
	return nil
}

func (m *MockSource) Subscribe(h FrameHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return fmt.Errorf("mock source: subscribe before initialize")
	}
	if m.stop != nil {
		return fmt.Errorf("mock source: already subscribed")
	}

	stop := make(chan struct{})
	m.stop = stop
	m.started = time.Now()

	interval := time.Second / time.Duration(m.fps)
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-t.C:
				f := m.frameAt(now)
				// Source contract: sub-threshold frames never reach the
				// subscriber, they only count as dropped.
				if f.Confidence < m.minConf {
					m.mu.Lock()
					m.dropped++
					m.mu.Unlock()
					continue
				}
				m.mu.Lock()
				m.delivered++
				m.mu.Unlock()
				h(f)
			}
		}
	}()
	return nil
}

func (m *MockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func (m *MockSource) Metrics() PerfMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fps float64
	if elapsed := time.Since(m.started).Seconds(); elapsed > 0 && m.delivered > 0 {
		fps = float64(m.delivered) / elapsed
	}
	return PerfMetrics{ActualFPS: fps, DroppedFrames: m.dropped}
}

// frameAt synthesizes the landmark set for one tick. The elbow angle swings
// sinusoidally between 80 and 170 degrees over the cycle.
func (m *MockSource) frameAt(now time.Time) *pose.Frame {
	phase := math.Mod(time.Since(m.started).Seconds(), CycleSeconds) / CycleSeconds
	angle := 125 + 45*math.Cos(2*math.Pi*phase) // 170 at rest, 80 at the bottom
	rad := angle * math.Pi / 180

	lm := func(x, y float64) pose.Landmark {
		return pose.Landmark{X: x, Y: y, Confidence: 0.95}
	}

	elbow := lm(0.5, 0.5)
	return &pose.Frame{
		Timestamp:  now,
		Confidence: 0.95,
		Landmarks: map[pose.Point]pose.Landmark{
			pose.Nose:          lm(0.5, 0.15),
			pose.LeftEar:       lm(0.46, 0.17),
			pose.RightEar:      lm(0.54, 0.17),
			pose.LeftShoulder:  lm(0.5, 0.3),
			pose.RightShoulder: lm(0.56, 0.3),
			pose.LeftElbow:     elbow,
			pose.RightElbow:    lm(0.56, 0.5),
			pose.LeftWrist:     lm(elbow.X+0.2*math.Sin(rad), elbow.Y-0.2*math.Cos(rad)),
			pose.RightWrist:    lm(0.56+0.2*math.Sin(rad), 0.5-0.2*math.Cos(rad)),
			pose.LeftHip:       lm(0.5, 0.6),
			pose.RightHip:      lm(0.56, 0.6),
			pose.LeftKnee:      lm(0.5, 0.9),
			pose.RightKnee:     lm(0.56, 0.9),
		},
	}
}
