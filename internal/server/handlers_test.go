package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/posecoach/internal/program"
	"github.com/claude/posecoach/internal/session"
	"github.com/claude/posecoach/internal/workout"
)

const testAPIKey = "test-key"

// stubStore satisfies program.Store with no persistence.
type stubStore struct{}

func (stubStore) SaveSession(ctx context.Context, s *workout.Session) error { return nil }
func (stubStore) ListSessions(ctx context.Context, t workout.ExerciseType) ([]*workout.Session, error) {
	return nil, nil
}
func (stubStore) LoadProgram(ctx context.Context) (*workout.Program, error) { return nil, nil }
func (stubStore) SaveProgram(ctx context.Context, p *workout.Program) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg, err := program.New(context.Background(), stubStore{}, log)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := session.New(agg, log, session.WithoutRestTimer())
	return New(ctrl, agg, nil, testAPIKey, log)
}

func doRequest(t *testing.T, srv *Server, method, path, body string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// TestSessionStateIdle verifies that the snapshot endpoint reports a
// not-started session before any workout begins.
func TestSessionStateIdle(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/session", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != session.NotStarted.String() {
		t.Errorf("state = %q, want %q", snap.State, session.NotStarted)
	}
}

// TestStartSession verifies that a valid start request activates a session
// with the exercise's configured targets.
func TestStartSession(t *testing.T) {
	srv := newTestServer(t)

	body := `{"exercise": "push_up", "level": "beginner"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/session/start", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != session.Active.String() {
		t.Errorf("state = %q, want %q", snap.State, session.Active)
	}
	if snap.Exercise != workout.PushUp {
		t.Errorf("exercise = %q, want %q", snap.Exercise, workout.PushUp)
	}
	if snap.TargetReps != 5 {
		t.Errorf("target reps = %d, want 5", snap.TargetReps)
	}
}

// TestStartDefaultsLevel verifies that omitting the level uses the
// program's current level for the exercise.
func TestStartDefaultsLevel(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/session/start", `{"exercise": "chin_tuck"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Level != workout.Beginner {
		t.Errorf("level = %q, want %q", snap.Level, workout.Beginner)
	}
}

// TestStartRejectsUnknownExercise verifies that an unrecognized exercise
// type yields a 400 rather than starting an undefined workout.
func TestStartRejectsUnknownExercise(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/session/start", `{"exercise": "bench_press"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestStartRequiresAPIKey verifies that session control is rejected
// without the X-API-Key header while the read-only snapshot stays open.
func TestStartRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/session/start", `{"exercise": "push_up"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/session", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("snapshot status = %d, want 200", rec.Code)
	}
}

// TestPauseResumeCancel verifies the control endpoints drive the session
// through pause, resume, and cancellation.
func TestPauseResumeCancel(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/v1/session/start", `{"exercise": "push_up"}`, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/session/pause", "", true)
	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if !snap.Paused {
		t.Error("expected paused after pause")
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/session/resume", "", true)
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Paused {
		t.Error("expected unpaused after resume")
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/session/cancel", "", true)
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != session.Cancelled.String() {
		t.Errorf("state = %q, want %q", snap.State, session.Cancelled)
	}
}

// TestProgramEndpoint verifies the full program snapshot lists every exercise.
func TestProgramEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/program", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var prog map[workout.ExerciseType]workout.ExerciseProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &prog); err != nil {
		t.Fatal(err)
	}
	for _, ex := range workout.Exercises {
		if _, ok := prog[ex]; !ok {
			t.Errorf("program missing exercise %q", ex)
		}
	}
}

// TestExerciseProgramUnknown verifies that an unknown exercise in the path
// yields a 404.
func TestExerciseProgramUnknown(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/program/deadlift", "", false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestWeeklyStatsEndpoint verifies the stats endpoint returns a well-formed
// body even with no recorded sessions.
func TestWeeklyStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats/weekly", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats program.WeeklyStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.SessionCount != 0 {
		t.Errorf("session count = %d, want 0", stats.SessionCount)
	}
}

// TestStreamMetricsWithoutSource verifies the metrics endpoint degrades
// gracefully when no landmark source is attached.
func TestStreamMetricsWithoutSource(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stream/metrics", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
