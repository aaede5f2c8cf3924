package models

type Category string

const (
	CategoryRunning  Category = "running"
	CategoryYoga     Category = "yoga"
	CategoryStrength Category = "strength"
	CategoryHIIT     Category = "hiit"
	CategoryCycling  Category = "cycling"
	CategorySwimming Category = "swimming"
)

var Categories = []Category{
	CategoryRunning,
	CategoryYoga,
	CategoryStrength,
	CategoryHIIT,
	CategoryCycling,
	CategorySwimming,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

type ChallengeStatus string

const (
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
	StatusAbandoned ChallengeStatus = "abandoned"
)

// Terminal reports whether no further transitions are defined for the status.
func (s ChallengeStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type GoalKind string

const (
	GoalDistance GoalKind = "totalDistance"
	GoalWorkouts GoalKind = "totalWorkouts"
	GoalCalories GoalKind = "caloriesBurned"
	GoalMinutes  GoalKind = "totalMinutes"
	GoalSessions GoalKind = "totalSessions"
)

// GoalKinds is the fixed evaluation order used by the aggregator and formatters.
var GoalKinds = []GoalKind{
	GoalDistance,
	GoalWorkouts,
	GoalCalories,
	GoalMinutes,
	GoalSessions,
}
