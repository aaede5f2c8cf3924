package services

import (
	"context"
	"math"

	"github.com/ad/go-telegram-fitness/internal/models"
)

type UserStats struct {
	Active          int
	Completed       int
	Abandoned       int
	Points          int
	AverageProgress int
}

// StatsService summarizes a user's enrollments. Points come from completed
// challenges that are still in the catalog.
type StatsService struct {
	membership *MembershipService
	catalog    *CatalogService
}

func NewStatsService(membership *MembershipService, catalog *CatalogService) *StatsService {
	return &StatsService{membership: membership, catalog: catalog}
}

func (s *StatsService) ForUser(ctx context.Context, userID string) (*UserStats, error) {
	records, err := s.membership.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	index, err := s.catalog.ByID(ctx)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{}
	activeSum := 0
	for _, r := range records {
		switch r.Status {
		case models.StatusActive:
			stats.Active++
			activeSum += CalculateProgress(r.Progress)
		case models.StatusCompleted:
			stats.Completed++
			if c, ok := index[r.ChallengeID]; ok {
				stats.Points += c.Rewards.Points
			}
		case models.StatusAbandoned:
			stats.Abandoned++
		}
	}
	if stats.Active > 0 {
		stats.AverageProgress = int(math.Floor(float64(activeSum)/float64(stats.Active) + 0.5))
	}
	return stats, nil
}
