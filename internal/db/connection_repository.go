package db

import (
	"context"
	"sync"

	"github.com/ad/go-telegram-fitness/internal/models"
)

// ConnectionRepository stores provider access tokens per user.
type ConnectionRepository struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewConnectionRepository(store DocumentStore) *ConnectionRepository {
	return &ConnectionRepository{store: store}
}

func (r *ConnectionRepository) load(ctx context.Context) (map[string]map[models.Provider]*models.Connection, error) {
	all := make(map[string]map[models.Provider]*models.Connection)
	if _, err := getJSON(ctx, r.store, KeyConnections, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *ConnectionRepository) Save(ctx context.Context, userID string, conn *models.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	if all[userID] == nil {
		all[userID] = make(map[models.Provider]*models.Connection)
	}
	all[userID][conn.Provider] = conn
	return setJSON(ctx, r.store, KeyConnections, all)
}

func (r *ConnectionRepository) Get(ctx context.Context, userID string, provider models.Provider) (*models.Connection, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	conn, ok := all[userID][provider]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return conn, nil
}

func (r *ConnectionRepository) ListForUser(ctx context.Context, userID string) ([]*models.Connection, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var conns []*models.Connection
	for _, provider := range []models.Provider{models.ProviderStrava, models.ProviderFitbit} {
		if conn, ok := all[userID][provider]; ok {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}
