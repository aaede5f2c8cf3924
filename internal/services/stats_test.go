package services

import (
	"context"
	"testing"

	"github.com/ad/go-telegram-fitness/internal/models"
)

func TestStatsForUser(t *testing.T) {
	short := &models.Challenge{ID: "s", Duration: 1, Goals: models.Goals{TotalWorkouts: models.Int(1)}, Rewards: models.Rewards{Points: 40}}
	env := newTestEnv(t, challengeX(), short, &models.Challenge{ID: "a", Duration: 3, Goals: models.Goals{TotalWorkouts: models.Int(3)}})
	env.login(t, "u1")
	ctx := context.Background()

	for _, id := range []string{"X", "s", "a"} {
		if _, err := env.membership.Join(ctx, "u1", id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.membership.UpdateProgress(ctx, "u1", "s", models.ProgressDelta{WorkoutCompleted: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.membership.UpdateProgress(ctx, "u1", "X", models.ProgressDelta{Distance: models.Float64(25), WorkoutCompleted: true}); err != nil {
		t.Fatal(err)
	}
	if err := env.membership.Leave(ctx, "u1", "a"); err != nil {
		t.Fatal(err)
	}

	stats, err := env.stats.ForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	want := UserStats{Active: 1, Completed: 1, Abandoned: 1, Points: 40, AverageProgress: 35}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}
}

func TestStatsEmpty(t *testing.T) {
	env := newTestEnv(t)
	stats, err := env.stats.ForUser(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if *stats != (UserStats{}) {
		t.Errorf("expected zero stats, got %+v", *stats)
	}
}
