package workout

import (
	"time"

	"github.com/google/uuid"
)

// MinFormAccuracy is the form score a detected repetition must reach to
// count as valid.
const MinFormAccuracy = 0.60

// MasteryFormAccuracy is the session-average form score a mastery session
// must reach for auto-progression.
const MasteryFormAccuracy = 0.85

// RepData is one validated repetition within a set.
type RepData struct {
	Number       int                `json:"number"`
	Timestamp    time.Time          `json:"timestamp"`
	FormAccuracy float64            `json:"form_accuracy"`
	Valid        bool               `json:"valid"`
	Feedback     string             `json:"feedback,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// SetData is an ordered run of reps produced between two rest periods.
type SetData struct {
	Number      int       `json:"number"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Reps        []RepData `json:"reps"`
	AvgAccuracy float64   `json:"avg_accuracy"`
	ValidReps   int       `json:"valid_reps"`
	TargetReps  int       `json:"target_reps"`
}

// Finalize computes the set's average accuracy and valid-rep count.
func (s *SetData) Finalize(end time.Time) {
	s.EndTime = end
	s.ValidReps = 0
	var sum float64
	for _, r := range s.Reps {
		sum += r.FormAccuracy
		if r.Valid {
			s.ValidReps++
		}
	}
	if len(s.Reps) > 0 {
		s.AvgAccuracy = sum / float64(len(s.Reps))
	}
}

// Session is one exercise instance. It is mutated only by the active
// session controller and becomes immutable once Completed is set and the
// session is handed to the program aggregator.
type Session struct {
	ID        uuid.UUID    `json:"id"`
	Exercise  ExerciseType `json:"exercise"`
	Level     Level        `json:"level"`
	StartTime time.Time    `json:"start_time"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Sets      []SetData    `json:"sets"`
	Config    Config       `json:"config"`
	Completed bool         `json:"completed"`
	Notes     string       `json:"notes,omitempty"`
}

// NewSession creates a session for an exercise at a level with its resolved
// configuration.
func NewSession(t ExerciseType, l Level, cfg Config, start time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Exercise:  t,
		Level:     l,
		StartTime: start,
		Config:    cfg,
	}
}

// TotalValidReps returns the number of valid reps across all sets.
func (s *Session) TotalValidReps() int {
	total := 0
	for _, set := range s.Sets {
		total += set.ValidReps
	}
	return total
}

// AverageFormAccuracy returns the mean form accuracy over all reps in the
// session, or zero when the session has no reps.
func (s *Session) AverageFormAccuracy() float64 {
	var sum float64
	count := 0
	for _, set := range s.Sets {
		for _, r := range set.Reps {
			sum += r.FormAccuracy
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// IsMastery reports whether the session qualifies for auto-progression:
// the rep cap was reached with high average form accuracy.
func (s *Session) IsMastery() bool {
	return s.TotalValidReps() >= s.Config.RepCap &&
		s.AverageFormAccuracy() >= MasteryFormAccuracy
}

// ExerciseProgress is the durable per-exercise aggregate state.
type ExerciseProgress struct {
	Exercise       ExerciseType `json:"exercise"`
	Level          Level        `json:"level"`
	Streak         int          `json:"streak"`
	PersonalRecord *Session     `json:"personal_record,omitempty"`
}

// Program is the durable per-user aggregate: level, streak, and personal
// record per exercise type.
type Program struct {
	Progress map[ExerciseType]*ExerciseProgress `json:"progress"`
}

// NewProgram creates a program with every exercise at beginner level.
func NewProgram() *Program {
	p := &Program{Progress: make(map[ExerciseType]*ExerciseProgress, len(Exercises))}
	for _, t := range Exercises {
		p.Progress[t] = &ExerciseProgress{Exercise: t, Level: Beginner}
	}
	return p
}

// For returns the progress entry for an exercise, creating it at beginner
// level if absent.
func (p *Program) For(t ExerciseType) *ExerciseProgress {
	if e, ok := p.Progress[t]; ok {
		return e
	}
	e := &ExerciseProgress{Exercise: t, Level: Beginner}
	p.Progress[t] = e
	return e
}
