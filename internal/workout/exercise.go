// Package workout defines the exercise domain model: exercise types,
// difficulty levels, resolved workout configurations, and the session and
// program aggregates built from detected repetitions.
package workout

import "fmt"

// ExerciseType identifies one supported exercise.
type ExerciseType string

const (
	ChinTuck ExerciseType = "chin_tuck"
	PushUp   ExerciseType = "push_up"
	FacePull ExerciseType = "face_pull"
	NeckCurl ExerciseType = "neck_curl"
)

// Exercises lists all supported exercise types.
var Exercises = []ExerciseType{ChinTuck, PushUp, FacePull, NeckCurl}

// Valid reports whether t is a known exercise type.
func (t ExerciseType) Valid() bool {
	switch t {
	case ChinTuck, PushUp, FacePull, NeckCurl:
		return true
	}
	return false
}

// Level is the user's difficulty level for one exercise.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == Beginner || l == Intermediate || l == Advanced
}

// Next returns the next level up. Advanced is terminal: progression never
// skips a level and never advances past it.
func (l Level) Next() Level {
	switch l {
	case Beginner:
		return Intermediate
	case Intermediate:
		return Advanced
	default:
		return Advanced
	}
}

// Config is the resolved per-(exercise, level) workout configuration.
// Pure derived data, never mutated.
type Config struct {
	TargetReps  int `json:"target_reps"`
	TargetSets  int `json:"target_sets"`
	RestSeconds int `json:"rest_seconds"`
	// HoldSeconds applies to isometric exercises only; zero elsewhere.
	HoldSeconds int `json:"hold_seconds"`
	// RepCap is the valid-rep count a mastery session must reach for
	// auto-progression.
	RepCap int `json:"rep_cap"`
}

var configs = map[ExerciseType]map[Level]Config{
	ChinTuck: {
		Beginner:     {TargetReps: 5, TargetSets: 2, RestSeconds: 30, HoldSeconds: 3, RepCap: 8},
		Intermediate: {TargetReps: 8, TargetSets: 3, RestSeconds: 30, HoldSeconds: 5, RepCap: 12},
		Advanced:     {TargetReps: 12, TargetSets: 3, RestSeconds: 20, HoldSeconds: 8, RepCap: 15},
	},
	PushUp: {
		Beginner:     {TargetReps: 5, TargetSets: 2, RestSeconds: 60, RepCap: 10},
		Intermediate: {TargetReps: 10, TargetSets: 3, RestSeconds: 60, RepCap: 15},
		Advanced:     {TargetReps: 15, TargetSets: 4, RestSeconds: 45, RepCap: 25},
	},
	FacePull: {
		Beginner:     {TargetReps: 8, TargetSets: 2, RestSeconds: 45, RepCap: 12},
		Intermediate: {TargetReps: 12, TargetSets: 3, RestSeconds: 45, RepCap: 15},
		Advanced:     {TargetReps: 15, TargetSets: 3, RestSeconds: 30, RepCap: 20},
	},
	NeckCurl: {
		Beginner:     {TargetReps: 5, TargetSets: 2, RestSeconds: 45, RepCap: 8},
		Intermediate: {TargetReps: 8, TargetSets: 3, RestSeconds: 45, RepCap: 12},
		Advanced:     {TargetReps: 12, TargetSets: 3, RestSeconds: 30, RepCap: 15},
	},
}

// ResolveConfig returns the configuration for an exercise at a level.
func ResolveConfig(t ExerciseType, l Level) (Config, error) {
	levels, ok := configs[t]
	if !ok {
		return Config{}, fmt.Errorf("unknown exercise type %q", t)
	}
	cfg, ok := levels[l]
	if !ok {
		return Config{}, fmt.Errorf("unknown level %q for exercise %q", l, t)
	}
	return cfg, nil
}
