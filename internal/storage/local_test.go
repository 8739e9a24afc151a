package storage

import (
	"context"
	"testing"
	"time"

	"github.com/claude/posecoach/internal/workout"
)

func openTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := OpenLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func sampleSession(t *testing.T, start time.Time) *workout.Session {
	t.Helper()
	cfg, err := workout.ResolveConfig(workout.PushUp, workout.Beginner)
	if err != nil {
		t.Fatal(err)
	}
	s := workout.NewSession(workout.PushUp, workout.Beginner, cfg, start)
	set := workout.SetData{Number: 1, StartTime: start, TargetReps: 2}
	set.Reps = []workout.RepData{
		{Number: 1, Timestamp: start, FormAccuracy: 0.9, Valid: true,
			Metrics: map[string]float64{"elbowAngle": 165}},
		{Number: 2, Timestamp: start.Add(2 * time.Second), FormAccuracy: 0.8, Valid: true},
	}
	set.Finalize(start.Add(5 * time.Second))
	s.Sets = []workout.SetData{set}
	end := start.Add(time.Minute)
	s.EndTime = &end
	s.Completed = true
	return s
}

// TestLocalSessionRoundTrip verifies that a saved session is returned by
// ListSessions with its sets, reps, and metrics intact.
func TestLocalSessionRoundTrip(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	s := sampleSession(t, time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC))
	if err := l.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := l.ListSessions(ctx, workout.PushUp)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("sessions = %d, want 1", len(got))
	}
	loaded := got[0]
	if loaded.ID != s.ID {
		t.Errorf("id = %s, want %s", loaded.ID, s.ID)
	}
	if !loaded.Completed {
		t.Error("completed flag lost")
	}
	if loaded.TotalValidReps() != 2 {
		t.Errorf("valid reps = %d, want 2", loaded.TotalValidReps())
	}
	if len(loaded.Sets) != 1 || len(loaded.Sets[0].Reps) != 2 {
		t.Fatalf("sets/reps shape lost: %+v", loaded.Sets)
	}
	if got := loaded.Sets[0].Reps[0].Metrics["elbowAngle"]; got != 165 {
		t.Errorf("elbowAngle metric = %v, want 165", got)
	}
}

// TestLocalSaveIdempotent verifies that re-saving the same session ID does
// not duplicate it.
func TestLocalSaveIdempotent(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	s := sampleSession(t, time.Now())
	if err := l.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := l.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := l.ListSessions(ctx, workout.PushUp)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("sessions = %d, want 1 after duplicate save", len(got))
	}
}

// TestLocalProgramRoundTrip verifies program state persistence including
// the personal-record session reference.
func TestLocalProgramRoundTrip(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	// No program saved yet.
	prog, err := l.LoadProgram(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prog != nil {
		t.Fatal("expected nil program before first save")
	}

	s := sampleSession(t, time.Now())
	if err := l.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	prog = workout.NewProgram()
	entry := prog.For(workout.PushUp)
	entry.Level = workout.Intermediate
	entry.Streak = 4
	entry.PersonalRecord = s
	if err := l.SaveProgram(ctx, prog); err != nil {
		t.Fatal(err)
	}

	loaded, err := l.LoadProgram(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected saved program")
	}
	got := loaded.For(workout.PushUp)
	if got.Level != workout.Intermediate {
		t.Errorf("level = %s, want intermediate", got.Level)
	}
	if got.Streak != 4 {
		t.Errorf("streak = %d, want 4", got.Streak)
	}
	if got.PersonalRecord == nil || got.PersonalRecord.ID != s.ID {
		t.Error("personal record reference lost")
	}
}
