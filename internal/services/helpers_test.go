package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
)

type fataler interface {
	Fatal(args ...any)
}

type testEnv struct {
	store      *failingStore
	auth       *AuthService
	catalog    *CatalogService
	membership *MembershipService
	stats      *StatsService
	challenges *db.ChallengeRepository
	records    *db.MembershipRepository
}

// failingStore wraps a memory store and fails writes to one key on demand.
type failingStore struct {
	db.DocumentStore
	mu      sync.Mutex
	failKey string
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failKey != "" && f.failKey == key
	f.mu.Unlock()
	if fail {
		return errors.New("write failed")
	}
	return f.DocumentStore.Set(ctx, key, value)
}

func (f *failingStore) failWrites(key string) {
	f.mu.Lock()
	f.failKey = key
	f.mu.Unlock()
}

func newTestEnv(t fataler, challenges ...*models.Challenge) *testEnv {
	store := &failingStore{DocumentStore: db.NewMemoryDocumentStore()}
	challengeRepo := db.NewChallengeRepository(store)
	membershipRepo := db.NewMembershipRepository(store)

	if len(challenges) == 0 {
		challenges = db.DefaultChallenges(time.Now())
	}
	if err := challengeRepo.SaveAll(context.Background(), challenges); err != nil {
		t.Fatal(err)
	}

	auth := NewAuthService(db.NewUserRepository(store), db.NewSessionRepository(store))
	catalog := NewCatalogService(challengeRepo)
	membership := NewMembershipService(auth, catalog, membershipRepo)

	return &testEnv{
		store:      store,
		auth:       auth,
		catalog:    catalog,
		membership: membership,
		stats:      NewStatsService(membership, catalog),
		challenges: challengeRepo,
		records:    membershipRepo,
	}
}

func (e *testEnv) login(t fataler, userID string) {
	if err := e.auth.Login(context.Background(), &models.User{ID: userID, Name: "User " + userID}); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) participants(t fataler, challengeID string) int {
	c, err := e.challenges.GetByID(context.Background(), challengeID)
	if err != nil {
		t.Fatal(err)
	}
	return c.Participants
}

func challengeX() *models.Challenge {
	return &models.Challenge{
		ID:       "X",
		Title:    "Scenario",
		Category: models.CategoryRunning,
		Duration: 10,
		Goals: models.Goals{
			TotalDistance: models.Float64(50),
			TotalWorkouts: models.Int(5),
		},
	}
}

type fakeSource struct {
	name  string
	mu    sync.Mutex
	calls int
	fn    func(since time.Time) (*models.Measurement, error)
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) RecentActivity(_ context.Context, _ string, since time.Time) (*models.Measurement, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(since)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
