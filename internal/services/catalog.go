package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
)

type CatalogFilter struct {
	Category   models.Category
	Difficulty models.Difficulty
	Search     string
}

type CatalogService struct {
	repo *db.ChallengeRepository
}

func NewCatalogService(repo *db.ChallengeRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) EnsureSeeded(ctx context.Context) error {
	return db.InitializeDefaultChallenges(ctx, s.repo)
}

func (s *CatalogService) List(ctx context.Context, filter CatalogFilter) ([]*models.Challenge, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []*models.Challenge
	for _, c := range all {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && c.Difficulty != filter.Difficulty {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// Get returns ErrChallengeNotFound for an unknown id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, db.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge %s: %w", id, err)
	}
	return c, nil
}

// ByID indexes the whole catalog for view joins.
func (s *CatalogService) ByID(ctx context.Context) (map[string]*models.Challenge, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("index challenges: %w", err)
	}
	index := make(map[string]*models.Challenge, len(all))
	for _, c := range all {
		index[c.ID] = c
	}
	return index, nil
}

// AdjustParticipants moves the participant counter of id by delta, floored at zero.
func (s *CatalogService) AdjustParticipants(ctx context.Context, id string, delta int) (int, error) {
	n, err := s.repo.AdjustParticipants(ctx, id, delta)
	if errors.Is(err, db.ErrRecordNotFound) {
		return 0, ErrChallengeNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust participants of %s: %w", id, err)
	}
	return n, nil
}
