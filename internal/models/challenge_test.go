package models

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

func drawOptionalFloat(t *rapid.T, label string) *float64 {
	if !rapid.Bool().Draw(t, label+"Present") {
		return nil
	}
	return Float64(rapid.Float64Range(-10, 500).Draw(t, label))
}

func drawOptionalInt(t *rapid.T, label string) *int {
	if !rapid.Bool().Draw(t, label+"Present") {
		return nil
	}
	return Int(rapid.IntRange(-3, 60).Draw(t, label))
}

func TestProperty1_GoalKindsOnlyPositiveTargets(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		goals := Goals{
			TotalDistance:  drawOptionalFloat(t, "distance"),
			TotalWorkouts:  drawOptionalInt(t, "workouts"),
			CaloriesBurned: drawOptionalFloat(t, "calories"),
			TotalMinutes:   drawOptionalFloat(t, "minutes"),
			TotalSessions:  drawOptionalInt(t, "sessions"),
		}

		kinds := goals.Kinds()
		seen := make(map[GoalKind]bool)
		for _, kind := range kinds {
			target, ok := goals.Target(kind)
			if !ok || target <= 0 {
				t.Fatalf("kind %s listed with target %v", kind, target)
			}
			seen[kind] = true
		}
		for _, kind := range GoalKinds {
			if _, ok := goals.Target(kind); ok && !seen[kind] {
				t.Fatalf("tracked kind %s missing from Kinds()", kind)
			}
		}
	})
}

func TestGoalsJSONOmitsAbsentKinds(t *testing.T) {
	goals := Goals{TotalDistance: Float64(50), TotalWorkouts: Int(5)}
	data, err := json.Marshal(goals)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"totalDistance":50,"totalWorkouts":5}` {
		t.Errorf("unexpected goals JSON: %s", data)
	}
}

func TestProgressCloneDoesNotAlias(t *testing.T) {
	p := Progress{CurrentDistance: Float64(1), TotalDistance: Float64(10), CurrentSessions: Int(2)}
	c := p.Clone()
	*c.CurrentDistance = 7
	*c.CurrentSessions = 9

	if *p.CurrentDistance != 1 {
		t.Errorf("clone aliased CurrentDistance: %v", *p.CurrentDistance)
	}
	if *p.CurrentSessions != 2 {
		t.Errorf("clone aliased CurrentSessions: %v", *p.CurrentSessions)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("active must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusAbandoned.Terminal() {
		t.Error("completed and abandoned must be terminal")
	}
}
