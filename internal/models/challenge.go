package models

import "time"

type Goals struct {
	TotalDistance  *float64 `json:"totalDistance,omitempty"`
	TotalWorkouts  *int     `json:"totalWorkouts,omitempty"`
	CaloriesBurned *float64 `json:"caloriesBurned,omitempty"`
	TotalMinutes   *float64 `json:"totalMinutes,omitempty"`
	TotalSessions  *int     `json:"totalSessions,omitempty"`
}

// Target returns the goal value for kind. A kind that is absent or not positive
// is not tracked.
func (g Goals) Target(kind GoalKind) (float64, bool) {
	var v float64
	switch kind {
	case GoalDistance:
		if g.TotalDistance == nil {
			return 0, false
		}
		v = *g.TotalDistance
	case GoalWorkouts:
		if g.TotalWorkouts == nil {
			return 0, false
		}
		v = float64(*g.TotalWorkouts)
	case GoalCalories:
		if g.CaloriesBurned == nil {
			return 0, false
		}
		v = *g.CaloriesBurned
	case GoalMinutes:
		if g.TotalMinutes == nil {
			return 0, false
		}
		v = *g.TotalMinutes
	case GoalSessions:
		if g.TotalSessions == nil {
			return 0, false
		}
		v = float64(*g.TotalSessions)
	default:
		return 0, false
	}
	return v, v > 0
}

// Kinds lists the tracked goal kinds in GoalKinds order.
func (g Goals) Kinds() []GoalKind {
	var kinds []GoalKind
	for _, kind := range GoalKinds {
		if _, ok := g.Target(kind); ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

type Rewards struct {
	Points int    `json:"points"`
	Badge  string `json:"badge,omitempty"`
}

type Challenge struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     Category   `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	Duration     int        `json:"duration"`
	Goals        Goals      `json:"goals"`
	Rewards      Rewards    `json:"rewards"`
	Participants int        `json:"participants"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
