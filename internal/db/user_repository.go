package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

type UserRepository struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewUserRepository(store DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) load(ctx context.Context) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if _, err := getJSON(ctx, r.store, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateOrUpdate upserts user, keeping the original CreatedAt of an existing record.
func (r *UserRepository) CreateOrUpdate(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if existing, ok := users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	users[user.ID] = user
	return setJSON(ctx, r.store, KeyUsers, users)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return user, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.User, 0, len(users))
	for _, u := range users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type SessionRepository struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewSessionRepository(store DocumentStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) load(ctx context.Context) (map[string]*models.Session, error) {
	sessions := make(map[string]*models.Session)
	if _, err := getJSON(ctx, r.store, KeySessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) Start(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load(ctx)
	if err != nil {
		return err
	}
	sessions[userID] = &models.Session{UserID: userID, LoggedInAt: at}
	return setJSON(ctx, r.store, KeySessions, sessions)
}

func (r *SessionRepository) End(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := sessions[userID]; !ok {
		return nil
	}
	delete(sessions, userID)
	return setJSON(ctx, r.store, KeySessions, sessions)
}

func (r *SessionRepository) Get(ctx context.Context, userID string) (*models.Session, error) {
	sessions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := sessions[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return session, nil
}
