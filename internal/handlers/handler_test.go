package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
	"github.com/ad/go-telegram-fitness/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
}

func (r *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, params)
	return &tgmodels.Message{ID: len(r.sent)}, nil
}

func (r *recordingSender) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return ""
	}
	return r.sent[len(r.sent)-1].Text
}

type stubSource struct {
	m   *models.Measurement
	err error
}

func (s *stubSource) Name() string { return "strava" }

func (s *stubSource) RecentActivity(context.Context, string, time.Time) (*models.Measurement, error) {
	return s.m, s.err
}

type handlerEnv struct {
	handler *BotHandler
	sender  *recordingSender
	admin   *recordingSender
	source  *stubSource
}

func setupHandler(t *testing.T) *handlerEnv {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryDocumentStore()

	challengeRepo := db.NewChallengeRepository(store)
	catalog := services.NewCatalogService(challengeRepo)
	if err := catalog.EnsureSeeded(ctx); err != nil {
		t.Fatal(err)
	}

	auth := services.NewAuthService(db.NewUserRepository(store), db.NewSessionRepository(store))
	membership := services.NewMembershipService(auth, catalog, db.NewMembershipRepository(store))
	source := &stubSource{m: &models.Measurement{}}
	syncService := services.NewSyncService(auth, membership, source)

	sender := &recordingSender{}
	admin := &recordingSender{}
	errMgr := services.NewErrorManager(admin, 1)

	handler := NewBotHandler(
		errMgr,
		services.NewMessageManager(sender, errMgr),
		auth,
		catalog,
		membership,
		syncService,
		services.NewStatsService(membership, catalog),
		db.NewConnectionRepository(store),
	)
	return &handlerEnv{handler: handler, sender: sender, admin: admin, source: source}
}

func (e *handlerEnv) send(text string) string {
	e.handler.HandleUpdate(context.Background(), nil, &tgmodels.Update{
		Message: &tgmodels.Message{
			From: &tgmodels.User{ID: 42, FirstName: "Alex", Username: "alex"},
			Chat: tgmodels.Chat{ID: 42},
			Text: text,
		},
	})
	return e.sender.last()
}

func TestCommandsRequireLogin(t *testing.T) {
	env := setupHandler(t)

	for _, cmd := range []string{"/join 1", "/leave 1", "/my", "/log 1 workout", "/sync 1", "/stats", "/connect strava abc"} {
		if got := env.send(cmd); !strings.Contains(got, "log in") {
			t.Errorf("%s: expected login prompt, got %q", cmd, got)
		}
	}
}

func TestJoinLogLeaveFlow(t *testing.T) {
	env := setupHandler(t)

	if got := env.send("/start"); !strings.Contains(got, "Welcome") {
		t.Fatalf("unexpected /start reply %q", got)
	}
	if got := env.send("/join 1"); !strings.HasPrefix(got, "✅ Joined!") {
		t.Fatalf("unexpected /join reply %q", got)
	}
	if got := env.send("/join 1"); !strings.Contains(got, "already joined") {
		t.Errorf("expected already joined, got %q", got)
	}
	if got := env.send("/log 1 distance=10 workout"); !strings.Contains(got, "Progress saved") || !strings.Contains(got, "Day 2 of 30") {
		t.Errorf("unexpected /log reply %q", got)
	}
	if got := env.send("/my"); !strings.Contains(got, "30-Day Running Streak") || !strings.Contains(got, "Distance: 10 / 100 km") {
		t.Errorf("unexpected /my reply %q", got)
	}
	if got := env.send("/leave 1"); !strings.Contains(got, "left") {
		t.Errorf("unexpected /leave reply %q", got)
	}
	if got := env.send("/stats"); !strings.Contains(got, "Abandoned: 1") {
		t.Errorf("unexpected /stats reply %q", got)
	}
}

func TestLogRejectsBadInput(t *testing.T) {
	env := setupHandler(t)
	env.send("/start")
	env.send("/join 1")

	for _, cmd := range []string{"/log 1 distance=-3", "/log 1 distance=abc", "/log 1 speed=5", "/log 1 fast"} {
		if got := env.send(cmd); !strings.Contains(got, "non-negative") {
			t.Errorf("%s: expected invalid delta message, got %q", cmd, got)
		}
	}
	if got := env.send("/log 1"); !strings.Contains(got, "Usage") {
		t.Errorf("expected usage, got %q", got)
	}
}

func TestSyncCommand(t *testing.T) {
	env := setupHandler(t)
	env.send("/start")
	env.send("/join 1")

	if got := env.send("/sync 1"); !strings.Contains(got, "Nothing to sync") {
		t.Errorf("expected nothing to sync, got %q", got)
	}

	env.source.m = &models.Measurement{Distance: models.Float64(12)}
	if got := env.send("/sync 1"); !strings.Contains(got, "distance from strava") {
		t.Errorf("expected sync report, got %q", got)
	}

	env.source.m, env.source.err = nil, errors.New("down")
	if got := env.send("/sync 1"); !strings.Contains(got, "Nothing to sync") {
		t.Errorf("expected nothing to sync when source fails, got %q", got)
	}
}

func TestConnectCommand(t *testing.T) {
	env := setupHandler(t)
	env.send("/start")

	if got := env.send("/connect garmin abc"); !strings.Contains(got, "Unknown provider") {
		t.Errorf("expected unknown provider, got %q", got)
	}
	if got := env.send("/connect Fitbit abc"); !strings.Contains(got, "fitbit connected") {
		t.Errorf("expected fitbit connected, got %q", got)
	}
}

func TestChallengesCommand(t *testing.T) {
	env := setupHandler(t)

	if got := env.send("/challenges yoga"); !strings.Contains(got, "Yoga Flow") || strings.Contains(got, "Century Ride") {
		t.Errorf("unexpected category listing %q", got)
	}
	if got := env.send("/challenges@fitbot beginner"); !strings.Contains(got, "Pool Sprint") {
		t.Errorf("unexpected difficulty listing %q", got)
	}
	if got := env.send("/challenge 404"); !strings.Contains(got, "not found") {
		t.Errorf("expected not found, got %q", got)
	}
	if got := env.send("/challenge 3"); !strings.Contains(got, "Workouts: 24") {
		t.Errorf("unexpected details %q", got)
	}
}

func TestHandleUpdateRecoversPanic(t *testing.T) {
	env := setupHandler(t)
	env.handler.membership = nil

	env.send("/start")
	env.send("/join 1")

	if len(env.admin.sent) != 1 || !strings.Contains(env.admin.sent[0].Text, "Panic") {
		t.Errorf("expected panic report to admin, got %d messages", len(env.admin.sent))
	}
}

func TestParseDelta(t *testing.T) {
	delta, err := ParseDelta([]string{"distance=5.5", "calories=300", "minutes=45", "sessions=2", "WORKOUT"})
	if err != nil {
		t.Fatal(err)
	}
	if *delta.Distance != 5.5 || *delta.Calories != 300 || *delta.Minutes != 45 || *delta.Sessions != 2 || !delta.WorkoutCompleted {
		t.Errorf("unexpected delta %+v", delta)
	}

	if _, err := ParseDelta([]string{"sessions=-1"}); !errors.Is(err, services.ErrInvalidDelta) {
		t.Errorf("expected ErrInvalidDelta, got %v", err)
	}
}
