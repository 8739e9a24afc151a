package program

import (
	"time"

	"github.com/claude/posecoach/internal/workout"
)

// statsWindow is the trailing window for derived statistics.
const statsWindow = 7 * 24 * time.Hour

// WeeklyStats is the dashboard-facing derived view over the trailing week.
type WeeklyStats struct {
	TotalValidReps  int     `json:"total_valid_reps"`
	SessionCount    int     `json:"session_count"`
	ActiveDays      int     `json:"active_days"`
	ConsistencyRate float64 `json:"consistency_rate"`
}

// WeeklyVolume returns the total valid reps across completed sessions of
// all exercises in the trailing seven days.
func (a *Aggregator) WeeklyVolume() int {
	return a.weeklyStats(time.Now()).TotalValidReps
}

// ConsistencyRate returns the fraction of the trailing seven days with at
// least one completed session.
func (a *Aggregator) ConsistencyRate() float64 {
	return a.weeklyStats(time.Now()).ConsistencyRate
}

// Weekly returns the full trailing-week statistics view.
func (a *Aggregator) Weekly() WeeklyStats {
	return a.weeklyStats(time.Now())
}

func (a *Aggregator) weeklyStats(now time.Time) WeeklyStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := now.Add(-statsWindow)
	days := make(map[string]struct{})
	var stats WeeklyStats

	for _, sessions := range a.history {
		for _, s := range sessions {
			if !s.Completed || s.StartTime.Before(cutoff) {
				continue
			}
			stats.SessionCount++
			stats.TotalValidReps += s.TotalValidReps()
			days[s.StartTime.Format("2006-01-02")] = struct{}{}
		}
	}

	stats.ActiveDays = len(days)
	stats.ConsistencyRate = float64(stats.ActiveDays) / 7.0
	return stats
}

// History returns the sessions recorded for an exercise, newest first.
func (a *Aggregator) History(t workout.ExerciseType) []*workout.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.completedDesc(t)
}
