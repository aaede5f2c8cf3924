package models

import "time"

// Progress is the per-enrollment snapshot. The optional pairs exist only when
// the matching goal kind was tracked at join time or a delta created them.
type Progress struct {
	CurrentDay        int      `json:"currentDay"`
	TotalDays         int      `json:"totalDays"`
	CompletedWorkouts int      `json:"completedWorkouts"`
	TotalWorkouts     int      `json:"totalWorkouts"`
	CurrentDistance   *float64 `json:"currentDistance,omitempty"`
	TotalDistance     *float64 `json:"totalDistance,omitempty"`
	CurrentCalories   *float64 `json:"currentCalories,omitempty"`
	TotalCalories     *float64 `json:"totalCalories,omitempty"`
	CurrentMinutes    *float64 `json:"currentMinutes,omitempty"`
	TotalMinutes      *float64 `json:"totalMinutes,omitempty"`
	CurrentSessions   *int     `json:"currentSessions,omitempty"`
	TotalSessions     *int     `json:"totalSessions,omitempty"`
}

// Pair returns the current and total values for kind. Missing current values
// read as 0, missing totals as 0 (untracked).
func (p Progress) Pair(kind GoalKind) (current, total float64) {
	switch kind {
	case GoalDistance:
		return deref(p.CurrentDistance), deref(p.TotalDistance)
	case GoalWorkouts:
		return float64(p.CompletedWorkouts), float64(p.TotalWorkouts)
	case GoalCalories:
		return deref(p.CurrentCalories), deref(p.TotalCalories)
	case GoalMinutes:
		return deref(p.CurrentMinutes), deref(p.TotalMinutes)
	case GoalSessions:
		return float64(derefInt(p.CurrentSessions)), float64(derefInt(p.TotalSessions))
	}
	return 0, 0
}

// Clone returns a deep copy so callers can mutate without aliasing stored records.
func (p Progress) Clone() Progress {
	out := p
	out.CurrentDistance = cloneFloat(p.CurrentDistance)
	out.TotalDistance = cloneFloat(p.TotalDistance)
	out.CurrentCalories = cloneFloat(p.CurrentCalories)
	out.TotalCalories = cloneFloat(p.TotalCalories)
	out.CurrentMinutes = cloneFloat(p.CurrentMinutes)
	out.TotalMinutes = cloneFloat(p.TotalMinutes)
	out.CurrentSessions = cloneInt(p.CurrentSessions)
	out.TotalSessions = cloneInt(p.TotalSessions)
	return out
}

type UserChallenge struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	ChallengeID  string          `json:"challengeId"`
	Status       ChallengeStatus `json:"status"`
	Progress     Progress        `json:"progress"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	JoinedAt     time.Time       `json:"joinedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	LastSyncedAt *time.Time      `json:"lastSyncedAt,omitempty"`
}

// SyncCursor is the instant after which external activity has not been counted yet.
func (uc *UserChallenge) SyncCursor() time.Time {
	if uc.LastSyncedAt != nil {
		return *uc.LastSyncedAt
	}
	return uc.JoinedAt
}

// ProgressDelta is an incremental update. All values are non-negative when present.
type ProgressDelta struct {
	Distance         *float64 `json:"distance,omitempty"`
	Calories         *float64 `json:"calories,omitempty"`
	Minutes          *float64 `json:"minutes,omitempty"`
	Sessions         *int     `json:"sessions,omitempty"`
	WorkoutCompleted bool     `json:"workoutCompleted,omitempty"`
}

func (d ProgressDelta) IsEmpty() bool {
	return d.Distance == nil && d.Calories == nil && d.Minutes == nil && d.Sessions == nil && !d.WorkoutCompleted
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
