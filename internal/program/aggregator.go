// Package program maintains the long-term workout aggregate: per-exercise
// difficulty level, session history, streaks, personal records, and
// auto-progression between levels.
package program

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/posecoach/internal/workout"
)

// masteryWindow is the number of consecutive mastery sessions required
// before the level advances one step.
const masteryWindow = 3

// Store persists sessions and program state. Implementations live in
// internal/storage (Postgres and local SQLite).
type Store interface {
	SaveSession(ctx context.Context, s *workout.Session) error
	ListSessions(ctx context.Context, t workout.ExerciseType) ([]*workout.Session, error)
	LoadProgram(ctx context.Context) (*workout.Program, error)
	SaveProgram(ctx context.Context, p *workout.Program) error
}

// Aggregator records completed sessions and keeps the derived program state
// current. It owns an in-memory copy of the history so that streak, record,
// and volume queries never block on the store.
type Aggregator struct {
	mu      sync.Mutex
	store   Store
	log     *slog.Logger
	program *workout.Program
	history map[workout.ExerciseType][]*workout.Session
}

// New loads the program and history from the store. A store with no saved
// program yields a fresh one with every exercise at beginner level.
func New(ctx context.Context, store Store, log *slog.Logger) (*Aggregator, error) {
	prog, err := store.LoadProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}
	if prog == nil {
		prog = workout.NewProgram()
	}

	history := make(map[workout.ExerciseType][]*workout.Session)
	for _, t := range workout.Exercises {
		sessions, err := store.ListSessions(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("loading %s history: %w", t, err)
		}
		history[t] = sessions
	}

	return &Aggregator{store: store, log: log, program: prog, history: history}, nil
}

// RecordSession appends a session to the history and persists it. For
// completed sessions it also recomputes the streak, updates the personal
// record, and evaluates auto-progression. Persistence errors are returned
// but the in-memory aggregate stays updated so a retry remains possible.
func (a *Aggregator) RecordSession(ctx context.Context, s *workout.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history[s.Exercise] = append(a.history[s.Exercise], s)

	if s.Completed {
		prog := a.program.For(s.Exercise)
		prog.Streak = a.streakLocked(s.Exercise, s.StartTime)

		if prog.PersonalRecord == nil || s.TotalValidReps() > prog.PersonalRecord.TotalValidReps() {
			prog.PersonalRecord = s
			a.log.Info("new personal record",
				"exercise", string(s.Exercise), "valid_reps", s.TotalValidReps())
		}

		a.evaluateProgressionLocked(s.Exercise)
	}

	if err := a.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if err := a.store.SaveProgram(ctx, a.program); err != nil {
		return fmt.Errorf("saving program: %w", err)
	}
	return nil
}

// Program returns a point-in-time copy of the per-exercise progress.
func (a *Aggregator) Program() map[workout.ExerciseType]workout.ExerciseProgress {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[workout.ExerciseType]workout.ExerciseProgress, len(a.program.Progress))
	for t, p := range a.program.Progress {
		out[t] = *p
	}
	return out
}

// Level returns the current difficulty level for an exercise.
func (a *Aggregator) Level(t workout.ExerciseType) workout.Level {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.program.For(t).Level
}

// completedDesc returns the completed sessions for an exercise sorted by
// start time, newest first.
func (a *Aggregator) completedDesc(t workout.ExerciseType) []*workout.Session {
	var out []*workout.Session
	for _, s := range a.history[t] {
		if s.Completed {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// streakLocked counts the consecutive-day chain of completed sessions for
// an exercise, measured backwards from the given reference session date.
// The chain breaks at the first gap of more than one day.
func (a *Aggregator) streakLocked(t workout.ExerciseType, from time.Time) int {
	sessions := a.completedDesc(t)
	if len(sessions) == 0 {
		return 0
	}

	day := func(ts time.Time) time.Time {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	}

	refDay := day(from)
	streak := 0
	prev := refDay
	for _, s := range sessions {
		d := day(s.StartTime)
		if d.After(refDay) {
			continue
		}
		switch {
		case d.Equal(prev):
			if streak == 0 {
				streak = 1
			}
		case prev.AddDate(0, 0, -1).Equal(d):
			// Calendar-day comparison, not a fixed 24h duration: a DST
			// fall-back makes the midnight gap 25 hours.
			streak++
		default:
			return streak
		}
		prev = d
	}
	return streak
}

// evaluateProgressionLocked advances the level one step when the most
// recent mastery-window sessions all qualify. Levels never skip and never
// advance past advanced.
func (a *Aggregator) evaluateProgressionLocked(t workout.ExerciseType) {
	prog := a.program.For(t)
	if prog.Level == workout.Advanced {
		return
	}

	recent := a.completedDesc(t)
	if len(recent) < masteryWindow {
		return
	}
	for _, s := range recent[:masteryWindow] {
		if !s.IsMastery() {
			return
		}
	}

	next := prog.Level.Next()
	a.log.Info("level advanced",
		"exercise", string(t), "from", string(prog.Level), "to", string(next))
	prog.Level = next
}
