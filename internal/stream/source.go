// Package stream defines the contract with the platform pose-estimation
// collaborator: a subscribable push source of landmark frames plus advisory
// performance telemetry.
package stream

import (
	"github.com/claude/posecoach/internal/pose"
)

// FrameHandler consumes one frame. The source calls it sequentially; a
// handler that cannot keep up must drop, never buffer.
type FrameHandler func(f *pose.Frame)

// PerfMetrics is advisory telemetry from the estimation service. The core
// treats it as informational, never correctness-affecting.
type PerfMetrics struct {
	ActualFPS     float64 `json:"actual_fps"`
	LatencyMillis float64 `json:"latency_ms"`
	MemoryBytes   int64   `json:"memory_bytes"`
	DroppedFrames int64   `json:"dropped_frames"`
}

// Source is the landmark-estimation collaborator. Frames below the
// configured confidence threshold are filtered inside the source and never
// reach subscribers.
type Source interface {
	// Initialize configures the target frame rate and the overall-confidence
	// floor. Must be called before Subscribe.
	Initialize(targetFPS int, minConfidence float64) error
	// Subscribe registers the single frame consumer and starts delivery.
	Subscribe(h FrameHandler) error
	// Stop halts frame delivery synchronously.
	Stop()
	// Metrics returns current performance telemetry.
	Metrics() PerfMetrics
}
