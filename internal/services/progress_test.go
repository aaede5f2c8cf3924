package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
	"pgregory.net/rapid"
)

func TestCalculateProgressNoCriteria(t *testing.T) {
	if got := CalculateProgress(models.Progress{CurrentDay: 3, TotalDays: 10}); got != 0 {
		t.Errorf("expected 0 without tracked goals, got %d", got)
	}
}

func TestCalculateProgressMeanAndRounding(t *testing.T) {
	tests := []struct {
		name     string
		progress models.Progress
		want     int
	}{
		{
			name:     "workouts only",
			progress: models.Progress{CompletedWorkouts: 1, TotalWorkouts: 4},
			want:     25,
		},
		{
			name: "distance and workouts weigh equally",
			progress: models.Progress{
				CompletedWorkouts: 1, TotalWorkouts: 5,
				CurrentDistance: models.Float64(25), TotalDistance: models.Float64(50),
			},
			want: 35,
		},
		{
			name:     "half rounds up",
			progress: models.Progress{CompletedWorkouts: 1, TotalWorkouts: 8},
			want:     13,
		},
		{
			name: "just below half rounds down",
			progress: models.Progress{
				CurrentMinutes: models.Float64(12.49), TotalMinutes: models.Float64(100),
			},
			want: 12,
		},
		{
			name: "ratio above target is not clamped before averaging",
			progress: models.Progress{
				CurrentDistance: models.Float64(150), TotalDistance: models.Float64(100),
				CompletedWorkouts: 0, TotalWorkouts: 10,
			},
			want: 75,
		},
		{
			name: "final mean is clamped",
			progress: models.Progress{
				CurrentCalories: models.Float64(900), TotalCalories: models.Float64(100),
			},
			want: 100,
		},
		{
			name: "sessions count as a criterion",
			progress: models.Progress{
				CurrentSessions: models.Int(7), TotalSessions: models.Int(21),
				CurrentMinutes: models.Float64(0), TotalMinutes: models.Float64(420),
			},
			want: 17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateProgress(tt.progress); got != tt.want {
				t.Errorf("CalculateProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProperty4_ProgressAlwaysClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		optional := func(label string) *float64 {
			if !rapid.Bool().Draw(rt, label+"_present") {
				return nil
			}
			return models.Float64(rapid.Float64Range(0, 10000).Draw(rt, label))
		}

		p := models.Progress{
			CompletedWorkouts: rapid.IntRange(0, 500).Draw(rt, "completed"),
			TotalWorkouts:     rapid.IntRange(0, 100).Draw(rt, "totalWorkouts"),
			CurrentDistance:   optional("currentDistance"),
			TotalDistance:     optional("totalDistance"),
			CurrentCalories:   optional("currentCalories"),
			TotalCalories:     optional("totalCalories"),
			CurrentMinutes:    optional("currentMinutes"),
			TotalMinutes:      optional("totalMinutes"),
		}

		got := CalculateProgress(p)
		if got < 0 || got > 100 {
			rt.Fatalf("percentage %d out of range for %+v", got, p)
		}
	})
}

func TestApplyDeltaScenario(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	uc := NewUserChallenge("u1", challengeX(), now)

	p := uc.Progress
	if p.CurrentDay != 1 || p.TotalDays != 10 || p.CompletedWorkouts != 0 || p.TotalWorkouts != 5 {
		t.Fatalf("unexpected seeded counters: %+v", p)
	}
	if p.CurrentDistance == nil || *p.CurrentDistance != 0 || p.TotalDistance == nil || *p.TotalDistance != 50 {
		t.Fatalf("unexpected seeded distance pair: %+v", p)
	}
	if p.TotalCalories != nil || p.TotalMinutes != nil || p.TotalSessions != nil {
		t.Fatalf("untracked pairs must not be seeded: %+v", p)
	}

	result, err := ApplyDelta(uc, models.ProgressDelta{Distance: models.Float64(25), WorkoutCompleted: true}, now)
	if err != nil {
		t.Fatal(err)
	}

	if *result.Progress.CurrentDistance != 25 {
		t.Errorf("expected currentDistance 25, got %v", *result.Progress.CurrentDistance)
	}
	if result.Progress.CompletedWorkouts != 1 || result.Progress.CurrentDay != 2 {
		t.Errorf("expected 1 workout on day 2, got %+v", result.Progress)
	}
	if result.Percentage != 35 {
		t.Errorf("expected 35%%, got %d", result.Percentage)
	}
	if result.Status != models.StatusActive || uc.CompletedAt != nil {
		t.Errorf("expected challenge to stay active, got %s", result.Status)
	}
}

func TestApplyDeltaCreatesMissingField(t *testing.T) {
	uc := NewUserChallenge("u1", challengeX(), time.Now())

	result, err := ApplyDelta(uc, models.ProgressDelta{Calories: models.Float64(300)}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if result.Progress.CurrentCalories == nil || *result.Progress.CurrentCalories != 300 {
		t.Fatalf("expected currentCalories 300, got %v", result.Progress.CurrentCalories)
	}
	if result.Progress.TotalCalories != nil {
		t.Error("total must stay absent for an untracked kind")
	}
	if result.Percentage != 0 {
		t.Errorf("untracked kind must not move percentage, got %d", result.Percentage)
	}
}

func TestApplyDeltaRejectsNegativeWithoutMutation(t *testing.T) {
	uc := NewUserChallenge("u1", challengeX(), time.Now())
	before := uc.Progress.Clone()

	_, err := ApplyDelta(uc, models.ProgressDelta{
		Distance:         models.Float64(10),
		Calories:         models.Float64(-1),
		WorkoutCompleted: true,
	}, time.Now())
	if !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("expected ErrInvalidDelta, got %v", err)
	}
	if *uc.Progress.CurrentDistance != *before.CurrentDistance || uc.Progress.CompletedWorkouts != before.CompletedWorkouts {
		t.Error("rejected delta must not be partially applied")
	}
}

func TestApplyDeltaRejectsRunningTotalOverflow(t *testing.T) {
	tests := []struct {
		name  string
		delta models.ProgressDelta
	}{
		{name: "sessions", delta: models.ProgressDelta{Sessions: models.Int(math.MaxInt)}},
		{name: "distance", delta: models.ProgressDelta{Distance: models.Float64(1e308)}},
		{name: "calories", delta: models.ProgressDelta{Calories: models.Float64(math.MaxFloat64)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUserChallenge("u1", challengeX(), time.Now())
			if _, err := ApplyDelta(uc, tt.delta, time.Now()); err != nil {
				t.Fatalf("first delta should fit, got %v", err)
			}
			before := uc.Progress.Clone()

			_, err := ApplyDelta(uc, tt.delta, time.Now())
			if !errors.Is(err, ErrInvalidDelta) {
				t.Fatalf("expected ErrInvalidDelta, got %v", err)
			}
			if uc.Progress.CurrentSessions != nil && *uc.Progress.CurrentSessions != *before.CurrentSessions {
				t.Errorf("sessions changed to %d", *uc.Progress.CurrentSessions)
			}
			if uc.Progress.CurrentDistance != nil && *uc.Progress.CurrentDistance != *before.CurrentDistance {
				t.Errorf("distance changed to %v", *uc.Progress.CurrentDistance)
			}
			if uc.Progress.CurrentCalories != nil && *uc.Progress.CurrentCalories != *before.CurrentCalories {
				t.Errorf("calories changed to %v", *uc.Progress.CurrentCalories)
			}
		})
	}
}

func TestApplyDeltaOnTerminalRecord(t *testing.T) {
	for _, status := range []models.ChallengeStatus{models.StatusCompleted, models.StatusAbandoned} {
		uc := NewUserChallenge("u1", challengeX(), time.Now())
		uc.Status = status
		if _, err := ApplyDelta(uc, models.ProgressDelta{WorkoutCompleted: true}, time.Now()); !errors.Is(err, ErrNotJoined) {
			t.Errorf("%s: expected ErrNotJoined, got %v", status, err)
		}
		if uc.Progress.CompletedWorkouts != 0 {
			t.Errorf("%s: terminal record was mutated", status)
		}
	}
}

func TestProperty5_CurrentDayNeverExceedsTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		duration := rapid.IntRange(1, 30).Draw(rt, "duration")
		workouts := rapid.IntRange(0, 60).Draw(rt, "workouts")

		c := &models.Challenge{ID: "d", Duration: duration, Goals: models.Goals{TotalDistance: models.Float64(1e9)}}
		uc := NewUserChallenge("u", c, time.Now())

		for i := 0; i < workouts; i++ {
			if _, err := ApplyDelta(uc, models.ProgressDelta{WorkoutCompleted: true}, time.Now()); err != nil {
				rt.Fatal(err)
			}
		}

		if uc.Progress.CurrentDay > uc.Progress.TotalDays {
			rt.Fatalf("currentDay %d exceeds totalDays %d", uc.Progress.CurrentDay, uc.Progress.TotalDays)
		}
		if uc.Progress.CompletedWorkouts != workouts {
			rt.Fatalf("expected %d workouts, got %d", workouts, uc.Progress.CompletedWorkouts)
		}
	})
}

func TestProperty6_CompletionTransition(t *testing.T) {
	c := &models.Challenge{ID: "w", Duration: 2, Goals: models.Goals{TotalWorkouts: models.Int(2)}}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	uc := NewUserChallenge("u", c, now)

	first, err := ApplyDelta(uc, models.ProgressDelta{WorkoutCompleted: true}, now)
	if err != nil {
		t.Fatal(err)
	}
	if first.Percentage != 50 || first.Completed {
		t.Fatalf("expected 50%% and active after first workout, got %+v", first)
	}

	done := now.Add(time.Hour)
	second, err := ApplyDelta(uc, models.ProgressDelta{WorkoutCompleted: true}, done)
	if err != nil {
		t.Fatal(err)
	}
	if second.Percentage != 100 || !second.Completed || uc.Status != models.StatusCompleted {
		t.Fatalf("expected completion, got %+v", second)
	}
	if uc.CompletedAt == nil || !uc.CompletedAt.Equal(done) {
		t.Errorf("expected completedAt %v, got %v", done, uc.CompletedAt)
	}
	if uc.Progress.CurrentDay != 2 {
		t.Errorf("expected currentDay capped at 2, got %d", uc.Progress.CurrentDay)
	}
}
