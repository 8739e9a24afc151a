package mcp

import (
	"context"
	"time"

	"github.com/claude/posecoach/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Get the full workout program: current level, day streak, and personal record for every exercise."),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query recorded workout sessions for an exercise. Returns per-session valid rep counts, average form accuracy, and completion status."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise type"), mcp.Enum("chin_tuck", "push_up", "face_pull", "neck_curl")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetWeeklyStats = mcp.NewTool("get_weekly_stats",
	mcp.WithDescription("Get the last 7 days of training: total valid reps, session count, active days, and consistency rate."),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Get the personal-record session per exercise: the session with the most valid reps."),
	mcp.WithString("exercise", mcp.Description("Limit to one exercise type"), mcp.Enum("chin_tuck", "push_up", "face_pull", "neck_curl")),
)

// sessionSummary is the compact per-session view returned by get_sessions.
type sessionSummary struct {
	ID          string  `json:"id"`
	StartTime   string  `json:"start_time"`
	Level       string  `json:"level"`
	Completed   bool    `json:"completed"`
	ValidReps   int     `json:"valid_reps"`
	AvgAccuracy float64 `json:"avg_accuracy"`
	Sets        int     `json:"sets"`
}

func summarize(s *workout.Session) sessionSummary {
	return sessionSummary{
		ID:          s.ID.String(),
		StartTime:   s.StartTime.Format(time.RFC3339),
		Level:       string(s.Level),
		Completed:   s.Completed,
		ValidReps:   s.TotalValidReps(),
		AvgAccuracy: s.AverageFormAccuracy(),
		Sets:        len(s.Sets),
	}
}

// --- Tool handlers ---

func (h *handlers) getProgram(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.agg.Program())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	t := workout.ExerciseType(exercise)
	if !t.Valid() {
		return mcp.NewToolResultError("unknown exercise type: " + exercise), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	summaries := []sessionSummary{}
	for _, s := range h.agg.History(t) {
		if s.StartTime.Before(start) || s.StartTime.After(end) {
			continue
		}
		summaries = append(summaries, summarize(s))
	}

	result, err := mcp.NewToolResultJSON(summaries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklyStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.agg.Weekly())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("exercise", "")
	if filter != "" && !workout.ExerciseType(filter).Valid() {
		return mcp.NewToolResultError("unknown exercise type: " + filter), nil
	}

	records := map[workout.ExerciseType]*sessionSummary{}
	for t, prog := range h.agg.Program() {
		if filter != "" && t != workout.ExerciseType(filter) {
			continue
		}
		if prog.PersonalRecord == nil {
			records[t] = nil
			continue
		}
		s := summarize(prog.PersonalRecord)
		records[t] = &s
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
