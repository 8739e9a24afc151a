package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/posecoach/internal/workout"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Local is a single-user SQLite store for on-device deployments where no
// Postgres is available. Sessions are stored whole as JSON documents with
// denormalized aggregate columns for queries.
type Local struct {
	db *sql.DB
}

// OpenLocal opens (or creates) the SQLite store at dir/posecoach.db.
func OpenLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "posecoach.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id               TEXT PRIMARY KEY,
			exercise         TEXT NOT NULL,
			start_time       TIMESTAMP NOT NULL,
			completed        INTEGER NOT NULL,
			total_valid_reps INTEGER NOT NULL,
			avg_accuracy     REAL NOT NULL,
			payload          TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_exercise ON sessions (exercise, start_time)`,
		`CREATE TABLE IF NOT EXISTS program (
			exercise          TEXT PRIMARY KEY,
			level             TEXT NOT NULL,
			streak            INTEGER NOT NULL,
			record_session_id TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating local schema: %w", err)
		}
	}

	return &Local{db: db}, nil
}

// Close closes the local database.
func (l *Local) Close() error {
	return l.db.Close()
}

// SaveSession stores the session as a JSON document. Saving an existing ID
// again is a no-op.
func (l *Local) SaveSession(ctx context.Context, s *workout.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, exercise, start_time, completed, total_valid_reps, avg_accuracy, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), string(s.Exercise), s.StartTime.UTC().Format(time.RFC3339Nano),
		boolToInt(s.Completed), s.TotalValidReps(), s.AverageFormAccuracy(), string(payload))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// ListSessions returns all stored sessions for an exercise, ordered by
// start time ascending.
func (l *Local) ListSessions(ctx context.Context, t workout.ExerciseType) ([]*workout.Session, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT payload FROM sessions WHERE exercise = ? ORDER BY start_time ASC`,
		string(t))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*workout.Session
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var s workout.Session
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// LoadProgram reads the program state, or nil when none has been saved.
func (l *Local) LoadProgram(ctx context.Context) (*workout.Program, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT exercise, level, streak, record_session_id FROM program`)
	if err != nil {
		return nil, fmt.Errorf("querying program: %w", err)
	}
	defer rows.Close()

	prog := &workout.Program{Progress: make(map[workout.ExerciseType]*workout.ExerciseProgress)}
	records := make(map[workout.ExerciseType]string)
	for rows.Next() {
		var exercise, level string
		var streak int
		var recordID sql.NullString
		if err := rows.Scan(&exercise, &level, &streak, &recordID); err != nil {
			return nil, fmt.Errorf("scanning program row: %w", err)
		}
		t := workout.ExerciseType(exercise)
		prog.Progress[t] = &workout.ExerciseProgress{
			Exercise: t,
			Level:    workout.Level(level),
			Streak:   streak,
		}
		if recordID.Valid {
			records[t] = recordID.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(prog.Progress) == 0 {
		return nil, nil
	}

	for t, idStr := range records {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		sessions, err := l.ListSessions(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, s := range sessions {
			if s.ID == id {
				prog.Progress[t].PersonalRecord = s
				break
			}
		}
	}
	return prog, nil
}

// SaveProgram upserts the per-exercise program state.
func (l *Local) SaveProgram(ctx context.Context, p *workout.Program) error {
	for t, prog := range p.Progress {
		var recordID any
		if prog.PersonalRecord != nil {
			recordID = prog.PersonalRecord.ID.String()
		}
		_, err := l.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO program (exercise, level, streak, record_session_id)
			 VALUES (?, ?, ?, ?)`,
			string(t), string(prog.Level), prog.Streak, recordID)
		if err != nil {
			return fmt.Errorf("upserting program for %s: %w", t, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
