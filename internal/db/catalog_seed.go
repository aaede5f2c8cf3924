package db

import (
	"context"
	"log"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

// InitializeDefaultChallenges seeds the catalog once, when it is empty.
func InitializeDefaultChallenges(ctx context.Context, repo *ChallengeRepository) error {
	seeded, err := repo.SeedIfEmpty(ctx, DefaultChallenges(time.Now()))
	if err != nil {
		return err
	}
	if seeded {
		log.Printf("[CATALOG] Seeded default challenges")
	}
	return nil
}

func DefaultChallenges(now time.Time) []*models.Challenge {
	var challenges []*models.Challenge

	challenges = append(challenges, &models.Challenge{
		ID:          "1",
		Title:       "30-Day Running Streak",
		Description: "Run every day for a month and cover 100 km in total",
		Category:    models.CategoryRunning,
		Difficulty:  models.DifficultyIntermediate,
		Duration:    30,
		Goals: models.Goals{
			TotalDistance: models.Float64(100),
			TotalWorkouts: models.Int(30),
		},
		Rewards:      models.Rewards{Points: 500, Badge: "Marathon Starter"},
		Participants: 1247,
	})

	challenges = append(challenges, &models.Challenge{
		ID:          "2",
		Title:       "Yoga Flow",
		Description: "Build a daily practice with 21 sessions of mindful movement",
		Category:    models.CategoryYoga,
		Difficulty:  models.DifficultyBeginner,
		Duration:    21,
		Goals: models.Goals{
			TotalSessions: models.Int(21),
			TotalMinutes:  models.Float64(420),
		},
		Rewards:      models.Rewards{Points: 300, Badge: "Zen Master"},
		Participants: 892,
	})

	challenges = append(challenges, &models.Challenge{
		ID:          "3",
		Title:       "Strength Builder",
		Description: "Six weeks of progressive strength training",
		Category:    models.CategoryStrength,
		Difficulty:  models.DifficultyAdvanced,
		Duration:    42,
		Goals: models.Goals{
			TotalWorkouts: models.Int(24),
		},
		Rewards:      models.Rewards{Points: 750, Badge: "Iron Will"},
		Participants: 634,
	})

	challenges = append(challenges, &models.Challenge{
		ID:          "4",
		Title:       "HIIT Burn",
		Description: "Two weeks of short, intense interval sessions",
		Category:    models.CategoryHIIT,
		Difficulty:  models.DifficultyIntermediate,
		Duration:    14,
		Goals: models.Goals{
			TotalWorkouts:  models.Int(10),
			CaloriesBurned: models.Float64(5000),
		},
		Rewards:      models.Rewards{Points: 400, Badge: "Calorie Crusher"},
		Participants: 1056,
	})

	challenges = append(challenges, &models.Challenge{
		ID:          "5",
		Title:       "Century Ride",
		Description: "Ride 200 km over three weeks",
		Category:    models.CategoryCycling,
		Difficulty:  models.DifficultyIntermediate,
		Duration:    21,
		Goals: models.Goals{
			TotalDistance: models.Float64(200),
		},
		Rewards:      models.Rewards{Points: 450, Badge: "Road Warrior"},
		Participants: 418,
	})

	challenges = append(challenges, &models.Challenge{
		ID:          "6",
		Title:       "Pool Sprint",
		Description: "Swim 10 km and log 600 minutes in the water",
		Category:    models.CategorySwimming,
		Difficulty:  models.DifficultyBeginner,
		Duration:    28,
		Goals: models.Goals{
			TotalDistance: models.Float64(10),
			TotalMinutes:  models.Float64(600),
		},
		Rewards:      models.Rewards{Points: 350, Badge: "Dolphin"},
		Participants: 275,
	})

	for _, c := range challenges {
		c.CreatedAt = now
	}
	return challenges
}
