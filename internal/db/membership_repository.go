package db

import (
	"context"
	"sync"

	"github.com/ad/go-telegram-fitness/internal/models"
)

// MembershipRepository stores every user's enrollments as one JSON object
// (user id -> array of records) under KeyUserChallenges.
type MembershipRepository struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewMembershipRepository(store DocumentStore) *MembershipRepository {
	return &MembershipRepository{store: store}
}

func (r *MembershipRepository) GetAll(ctx context.Context) (map[string][]*models.UserChallenge, error) {
	all := make(map[string][]*models.UserChallenge)
	if _, err := getJSON(ctx, r.store, KeyUserChallenges, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *MembershipRepository) GetForUser(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return all[userID], nil
}

// SaveForUser replaces userID's records, keeping other users' records intact.
func (r *MembershipRepository) SaveForUser(ctx context.Context, userID string, records []*models.UserChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		delete(all, userID)
	} else {
		all[userID] = records
	}
	return setJSON(ctx, r.store, KeyUserChallenges, all)
}
