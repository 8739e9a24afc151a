package program

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/posecoach/internal/workout"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store for aggregator tests.
type memStore struct {
	sessions map[workout.ExerciseType][]*workout.Session
	program  *workout.Program
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[workout.ExerciseType][]*workout.Session)}
}

func (m *memStore) SaveSession(_ context.Context, s *workout.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.Exercise] = append(m.sessions[s.Exercise], s)
	return nil
}

func (m *memStore) ListSessions(_ context.Context, t workout.ExerciseType) ([]*workout.Session, error) {
	return m.sessions[t], nil
}

func (m *memStore) LoadProgram(_ context.Context) (*workout.Program, error) {
	return m.program, nil
}

func (m *memStore) SaveProgram(_ context.Context, p *workout.Program) error {
	m.program = p
	return nil
}

func newTestAggregator(t *testing.T) (*Aggregator, *memStore) {
	t.Helper()
	store := newMemStore()
	agg, err := New(context.Background(), store, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return agg, store
}

// completedSession builds a completed session with the given number of
// valid reps at a uniform form accuracy.
func completedSession(t workout.ExerciseType, start time.Time, validReps int, accuracy float64) *workout.Session {
	cfg, _ := workout.ResolveConfig(t, workout.Beginner)
	s := workout.NewSession(t, workout.Beginner, cfg, start)
	set := workout.SetData{Number: 1, StartTime: start, TargetReps: validReps}
	for i := 0; i < validReps; i++ {
		set.Reps = append(set.Reps, workout.RepData{
			Number: i + 1, Timestamp: start, FormAccuracy: accuracy, Valid: true,
		})
	}
	set.Finalize(start.Add(time.Minute))
	s.Sets = []workout.SetData{set}
	end := start.Add(2 * time.Minute)
	s.EndTime = &end
	s.Completed = true
	return s
}

// TestStreakConsecutiveDays verifies the streak algorithm on the day
// pattern {1,2,3,5}: measured from day 5 the streak is 1; measured from
// day 3 it is 3.
func TestStreakConsecutiveDays(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for _, dayOffset := range []int{0, 1, 2} { // days 1, 2, 3
		s := completedSession(workout.PushUp, base.AddDate(0, 0, dayOffset), 5, 0.8)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got := agg.Program()[workout.PushUp].Streak; got != 3 {
		t.Errorf("streak after days 1-3 = %d, want 3", got)
	}

	// Day 5: the gap from day 3 breaks the chain.
	s := completedSession(workout.PushUp, base.AddDate(0, 0, 4), 5, 0.8)
	if err := agg.RecordSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	if got := agg.Program()[workout.PushUp].Streak; got != 1 {
		t.Errorf("streak after day 5 = %d, want 1", got)
	}
}

// TestStreakAcrossDSTFallBack verifies the consecutive-day check compares
// calendar days rather than a fixed 24h duration. In 2026 US clocks fall
// back on November 1, so the local-midnight gap into November 2 is 25
// hours; sessions on Oct 31, Nov 1 and Nov 2 still form a 3-day streak.
func TestStreakAcrossDSTFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable:", err)
	}

	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 31, 9, 0, 0, 0, loc)
	for _, dayOffset := range []int{0, 1, 2} { // Oct 31, Nov 1, Nov 2
		s := completedSession(workout.PushUp, base.AddDate(0, 0, dayOffset), 5, 0.8)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got := agg.Program()[workout.PushUp].Streak; got != 3 {
		t.Errorf("streak across fall-back = %d, want 3", got)
	}
}

// TestPersonalRecord verifies the record tracks the highest valid-rep
// session and ignores lower ones.
func TestPersonalRecord(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	for i, reps := range []int{5, 9, 7} {
		s := completedSession(workout.PushUp, base.AddDate(0, 0, i), reps, 0.8)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	pr := agg.Program()[workout.PushUp].PersonalRecord
	if pr == nil {
		t.Fatal("expected a personal record")
	}
	if got := pr.TotalValidReps(); got != 9 {
		t.Errorf("personal record reps = %d, want 9", got)
	}
}

// TestAutoProgression verifies that three consecutive mastery sessions
// (rep cap reached at 0.90 accuracy) advance the level exactly one step.
func TestAutoProgression(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	cfg, _ := workout.ResolveConfig(workout.PushUp, workout.Beginner)
	for i := 0; i < 3; i++ {
		s := completedSession(workout.PushUp, base.AddDate(0, 0, i), cfg.RepCap, 0.90)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got := agg.Level(workout.PushUp); got != workout.Intermediate {
		t.Errorf("level = %s, want intermediate (exactly one step)", got)
	}
}

// TestNoProgressionOnWeakMiddleSession verifies that a sub-mastery session
// inside the window blocks advancement.
func TestNoProgressionOnWeakMiddleSession(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	cfg, _ := workout.ResolveConfig(workout.PushUp, workout.Beginner)
	accuracies := []float64{0.90, 0.80, 0.90}
	for i, acc := range accuracies {
		s := completedSession(workout.PushUp, base.AddDate(0, 0, i), cfg.RepCap, acc)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got := agg.Level(workout.PushUp); got != workout.Beginner {
		t.Errorf("level = %s, want beginner (0.80 session blocks progression)", got)
	}
}

// TestProgressionNeverPassesAdvanced verifies saturation at the top level.
func TestProgressionNeverPassesAdvanced(t *testing.T) {
	store := newMemStore()
	prog := workout.NewProgram()
	prog.For(workout.PushUp).Level = workout.Advanced
	store.program = prog

	agg, err := New(context.Background(), store, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	cfg, _ := workout.ResolveConfig(workout.PushUp, workout.Advanced)
	for i := 0; i < 3; i++ {
		s := completedSession(workout.PushUp, base.AddDate(0, 0, i), cfg.RepCap, 0.95)
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if got := agg.Level(workout.PushUp); got != workout.Advanced {
		t.Errorf("level = %s, want advanced (no level past advanced)", got)
	}
}

// TestIncompleteSessionsExcluded verifies that cancelled sessions are kept
// in history but do not feed streaks, records, or progression.
func TestIncompleteSessionsExcluded(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	s := completedSession(workout.PushUp, base, 20, 0.95)
	s.Completed = false
	if err := agg.RecordSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	prog := agg.Program()[workout.PushUp]
	if prog.Streak != 0 {
		t.Errorf("streak = %d, want 0 for incomplete session", prog.Streak)
	}
	if prog.PersonalRecord != nil {
		t.Error("incomplete session must not set a personal record")
	}
}

// TestWeeklyStats verifies trailing-window volume and consistency.
func TestWeeklyStats(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Now()

	// Two sessions inside the window on different days, one outside.
	recent1 := completedSession(workout.PushUp, now.Add(-24*time.Hour), 10, 0.8)
	recent2 := completedSession(workout.NeckCurl, now.Add(-48*time.Hour), 6, 0.8)
	old := completedSession(workout.PushUp, now.Add(-10*24*time.Hour), 50, 0.8)
	for _, s := range []*workout.Session{recent1, recent2, old} {
		if err := agg.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	stats := agg.Weekly()
	if stats.TotalValidReps != 16 {
		t.Errorf("weekly volume = %d, want 16", stats.TotalValidReps)
	}
	if stats.SessionCount != 2 {
		t.Errorf("session count = %d, want 2", stats.SessionCount)
	}
	if stats.ActiveDays != 2 {
		t.Errorf("active days = %d, want 2", stats.ActiveDays)
	}
	want := 2.0 / 7.0
	if diff := stats.ConsistencyRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("consistency = %v, want %v", stats.ConsistencyRate, want)
	}
}
