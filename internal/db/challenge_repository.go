package db

import (
	"context"
	"errors"
	"sync"

	"github.com/ad/go-telegram-fitness/internal/models"
)

var ErrRecordNotFound = errors.New("record not found")

// ChallengeRepository stores the catalog as one JSON array under KeyChallenges.
type ChallengeRepository struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewChallengeRepository(store DocumentStore) *ChallengeRepository {
	return &ChallengeRepository{store: store}
}

func (r *ChallengeRepository) GetAll(ctx context.Context) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	if _, err := getJSON(ctx, r.store, KeyChallenges, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	challenges, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *ChallengeRepository) SaveAll(ctx context.Context, challenges []*models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return setJSON(ctx, r.store, KeyChallenges, challenges)
}

// AdjustParticipants adds delta to the participant counter of id and returns
// the new value. The counter never drops below zero.
func (r *ChallengeRepository) AdjustParticipants(ctx context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	challenges, err := r.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	for _, c := range challenges {
		if c.ID != id {
			continue
		}
		c.Participants += delta
		if c.Participants < 0 {
			c.Participants = 0
		}
		if err := setJSON(ctx, r.store, KeyChallenges, challenges); err != nil {
			return 0, err
		}
		return c.Participants, nil
	}
	return 0, ErrRecordNotFound
}

// SeedIfEmpty writes defaults when the catalog has no challenges. It reports
// whether anything was written.
func (r *ChallengeRepository) SeedIfEmpty(ctx context.Context, defaults []*models.Challenge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.GetAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := setJSON(ctx, r.store, KeyChallenges, defaults); err != nil {
		return false, err
	}
	return true, nil
}

// MergeDefaults refreshes the definitions of known challenges from defaults and
// appends the ones missing from the catalog. Participant counters and creation
// times of existing challenges are kept.
func (r *ChallengeRepository) MergeDefaults(ctx context.Context, defaults []*models.Challenge) (added, updated int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	challenges, err := r.GetAll(ctx)
	if err != nil {
		return 0, 0, err
	}

	byID := make(map[string]*models.Challenge, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
	}

	for _, def := range defaults {
		existing, ok := byID[def.ID]
		if !ok {
			challenges = append(challenges, def)
			byID[def.ID] = def
			added++
			continue
		}
		existing.Title = def.Title
		existing.Description = def.Description
		existing.Category = def.Category
		existing.Difficulty = def.Difficulty
		existing.Duration = def.Duration
		existing.Goals = def.Goals
		existing.Rewards = def.Rewards
		updated++
	}

	if err := setJSON(ctx, r.store, KeyChallenges, challenges); err != nil {
		return 0, 0, err
	}
	return added, updated, nil
}
