package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/posecoach/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveSession inserts a session with its sets and reps in one transaction.
// Re-saving an existing session ID is a no-op, so a retry after a partial
// failure stays idempotent.
func (db *DB) SaveSession(ctx context.Context, s *workout.Session) error {
	cfgJSON, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, exercise, level, start_time, end_time, completed, notes,
		 total_valid_reps, avg_accuracy, config)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, string(s.Exercise), string(s.Level), s.StartTime, s.EndTime, s.Completed, s.Notes,
		s.TotalValidReps(), s.AverageFormAccuracy(), cfgJSON)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil // already saved
	}

	if err := insertSets(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertSets(ctx context.Context, tx pgx.Tx, s *workout.Session) error {
	for _, set := range s.Sets {
		_, err := tx.Exec(ctx,
			`INSERT INTO session_sets (session_id, number, start_time, end_time,
			 avg_accuracy, valid_reps, target_reps)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, set.Number, set.StartTime, set.EndTime,
			set.AvgAccuracy, set.ValidReps, set.TargetReps)
		if err != nil {
			return fmt.Errorf("inserting set %d: %w", set.Number, err)
		}

		if len(set.Reps) == 0 {
			continue
		}
		query := `INSERT INTO session_reps (session_id, set_number, number, time, accuracy, valid, feedback, metrics) VALUES `
		args := make([]any, 0, len(set.Reps)*8)
		valueStrings := make([]string, 0, len(set.Reps))
		for i, r := range set.Reps {
			base := i * 8
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			))
			metricsJSON, err := json.Marshal(r.Metrics)
			if err != nil {
				return fmt.Errorf("encoding rep metrics: %w", err)
			}
			args = append(args, s.ID, set.Number, r.Number, r.Timestamp, r.FormAccuracy, r.Valid, r.Feedback, metricsJSON)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return fmt.Errorf("inserting reps for set %d: %w", set.Number, err)
		}
	}
	return nil
}

// ListSessions retrieves all sessions for an exercise with their sets and
// reps, ordered by start time ascending.
func (db *DB) ListSessions(ctx context.Context, t workout.ExerciseType) ([]*workout.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise, level, start_time, end_time, completed, notes, config
		 FROM sessions
		 WHERE exercise = $1
		 ORDER BY start_time ASC`,
		string(t))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*workout.Session
	for rows.Next() {
		var s workout.Session
		var exercise, level string
		var cfgJSON []byte
		if err := rows.Scan(&s.ID, &exercise, &level, &s.StartTime, &s.EndTime, &s.Completed, &s.Notes, &cfgJSON); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Exercise = workout.ExerciseType(exercise)
		s.Level = workout.Level(level)
		if err := json.Unmarshal(cfgJSON, &s.Config); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if err := db.loadSets(ctx, s); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (db *DB) loadSets(ctx context.Context, s *workout.Session) error {
	setRows, err := db.Pool.Query(ctx,
		`SELECT number, start_time, end_time, avg_accuracy, valid_reps, target_reps
		 FROM session_sets WHERE session_id = $1 ORDER BY number ASC`,
		s.ID)
	if err != nil {
		return fmt.Errorf("querying sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var set workout.SetData
		if err := setRows.Scan(&set.Number, &set.StartTime, &set.EndTime,
			&set.AvgAccuracy, &set.ValidReps, &set.TargetReps); err != nil {
			return fmt.Errorf("scanning set: %w", err)
		}
		s.Sets = append(s.Sets, set)
	}
	if err := setRows.Err(); err != nil {
		return err
	}

	repRows, err := db.Pool.Query(ctx,
		`SELECT set_number, number, time, accuracy, valid, feedback, metrics
		 FROM session_reps WHERE session_id = $1 ORDER BY set_number ASC, number ASC`,
		s.ID)
	if err != nil {
		return fmt.Errorf("querying reps: %w", err)
	}
	defer repRows.Close()

	for repRows.Next() {
		var r workout.RepData
		var setNumber int
		var metricsJSON []byte
		if err := repRows.Scan(&setNumber, &r.Number, &r.Timestamp, &r.FormAccuracy, &r.Valid, &r.Feedback, &metricsJSON); err != nil {
			return fmt.Errorf("scanning rep: %w", err)
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &r.Metrics); err != nil {
				return fmt.Errorf("decoding rep metrics: %w", err)
			}
		}
		for i := range s.Sets {
			if s.Sets[i].Number == setNumber {
				s.Sets[i].Reps = append(s.Sets[i].Reps, r)
				break
			}
		}
	}
	return repRows.Err()
}

// LoadProgram reads the per-exercise program state, resolving each personal
// record to its full session. Returns nil when no program has been saved.
func (db *DB) LoadProgram(ctx context.Context) (*workout.Program, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise, level, streak, record_session_id FROM program`)
	if err != nil {
		return nil, fmt.Errorf("querying program: %w", err)
	}
	defer rows.Close()

	prog := &workout.Program{Progress: make(map[workout.ExerciseType]*workout.ExerciseProgress)}
	records := make(map[workout.ExerciseType]uuid.UUID)
	for rows.Next() {
		var exercise, level string
		var streak int
		var recordID *uuid.UUID
		if err := rows.Scan(&exercise, &level, &streak, &recordID); err != nil {
			return nil, fmt.Errorf("scanning program row: %w", err)
		}
		t := workout.ExerciseType(exercise)
		prog.Progress[t] = &workout.ExerciseProgress{
			Exercise: t,
			Level:    workout.Level(level),
			Streak:   streak,
		}
		if recordID != nil {
			records[t] = *recordID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(prog.Progress) == 0 {
		return nil, nil
	}

	for t, id := range records {
		sessions, err := db.ListSessions(ctx, t)
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
func (db *DB) SaveProgram(ctx context.Context, p *workout.Program) error {
	for t, prog := range p.Progress {
		var recordID *uuid.UUID
		if prog.PersonalRecord != nil {
			id := prog.PersonalRecord.ID
			recordID = &id
		}
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO program (exercise, level, streak, record_session_id)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (exercise) DO UPDATE
			 SET level = EXCLUDED.level, streak = EXCLUDED.streak,
			     record_session_id = EXCLUDED.record_session_id`,
			string(t), string(prog.Level), prog.Streak, recordID)
		if err != nil {
			return fmt.Errorf("upserting program for %s: %w", t, err)
		}
	}
	return nil
}
