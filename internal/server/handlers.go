package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/posecoach/internal/workout"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

type startRequest struct {
	Exercise workout.ExerciseType `json:"exercise"`
	Level    workout.Level        `json:"level,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if !req.Exercise.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown exercise type"})
		return
	}

	// Default to the user's current level for the exercise.
	level := req.Level
	if level == "" {
		level = s.agg.Level(req.Exercise)
	}
	if !level.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown level"})
		return
	}

	if err := s.ctrl.Start(req.Exercise, level); err != nil {
		s.log.Error("session start failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Pause()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Resume()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Cancel()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agg.Program())
}

func (s *Server) handleExerciseProgram(w http.ResponseWriter, r *http.Request) {
	t := workout.ExerciseType(chi.URLParam(r, "exercise"))
	if !t.Valid() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise type"})
		return
	}

	prog := s.agg.Program()[t]
	history := s.agg.History(t)

	type sessionSummary struct {
		ID          string  `json:"id"`
		StartTime   string  `json:"start_time"`
		ValidReps   int     `json:"valid_reps"`
		AvgAccuracy float64 `json:"avg_accuracy"`
	}
	summaries := make([]sessionSummary, 0, len(history))
	for _, sess := range history {
		summaries = append(summaries, sessionSummary{
			ID:          sess.ID.String(),
			StartTime:   sess.StartTime.Format("2006-01-02T15:04:05Z07:00"),
			ValidReps:   sess.TotalValidReps(),
			AvgAccuracy: sess.AverageFormAccuracy(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"progress": prog,
		"sessions": summaries,
	})
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agg.Weekly())
}

func (s *Server) handleStreamMetrics(w http.ResponseWriter, r *http.Request) {
	if s.src == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no stream attached"})
		return
	}
	writeJSON(w, http.StatusOK, s.src.Metrics())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
