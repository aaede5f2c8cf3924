package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/handlers"
	"github.com/ad/go-telegram-fitness/internal/providers"
	"github.com/ad/go-telegram-fitness/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "github.com/joho/godotenv/autoload"
	_ "modernc.org/sqlite"
)

type config struct {
	BotToken     string
	AdminID      int64
	StoreDriver  string
	DBPath       string
	DatabaseURL  string
	StatusAddr   string
	StravaAPIURL string
	FitbitAPIURL string
	ProviderRPS  float64
}

func loadConfig(getenv func(string) string) (*config, error) {
	cfg := &config{
		BotToken:     getenv("BOT_TOKEN"),
		StoreDriver:  getenv("STORE_DRIVER"),
		DBPath:       getenv("DB_PATH"),
		DatabaseURL:  getenv("DATABASE_URL"),
		StatusAddr:   getenv("STATUS_ADDR"),
		StravaAPIURL: getenv("STRAVA_API_URL"),
		FitbitAPIURL: getenv("FITBIT_API_URL"),
	}

	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	if s := getenv("ADMIN_ID"); s != "" {
		adminID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
		}
		cfg.AdminID = adminID
	}

	if s := getenv("PROVIDER_RPS"); s != "" {
		rps, err := strconv.ParseFloat(s, 64)
		if err != nil || rps < 0 || math.IsNaN(rps) || math.IsInf(rps, 0) {
			return nil, fmt.Errorf("invalid PROVIDER_RPS: %q", s)
		}
		cfg.ProviderRPS = rps
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "fitness.db"
	}
	if cfg.StatusAddr == "" {
		cfg.StatusAddr = ":8080"
	}

	switch cfg.StoreDriver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// openStore returns the configured document store and a func releasing it.
func openStore(ctx context.Context, cfg *config) (db.DocumentStore, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return db.NewMemoryDocumentStore(), func() {}, nil
	case "postgres":
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db.NewPostgresDocumentStore(pool), pool.Close, nil
	}

	sqlDB, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.InitSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("initialize schema: %w", err)
	}
	dbQueue := db.NewDBQueue(sqlDB)
	return db.NewSQLiteDocumentStore(dbQueue), func() {
		dbQueue.Close()
		sqlDB.Close()
	}, nil
}

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	challengeRepo := db.NewChallengeRepository(store)
	membershipRepo := db.NewMembershipRepository(store)
	userRepo := db.NewUserRepository(store)
	sessionRepo := db.NewSessionRepository(store)
	connectionRepo := db.NewConnectionRepository(store)

	catalog := services.NewCatalogService(challengeRepo)
	if err := catalog.EnsureSeeded(ctx); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	services.InitMetrics()
	providers.InitMetrics()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	b, err := bot.New(cfg.BotToken, bot.WithHTTPClient(15*time.Second, httpClient))
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	auth := services.NewAuthService(userRepo, sessionRepo)
	membership := services.NewMembershipService(auth, catalog, membershipRepo)
	strava := providers.NewStrava(providers.Config{BaseURL: cfg.StravaAPIURL, RPS: cfg.ProviderRPS}, connectionRepo)
	fitbit := providers.NewFitbit(providers.Config{BaseURL: cfg.FitbitAPIURL, RPS: cfg.ProviderRPS}, connectionRepo)
	syncService := services.NewSyncService(auth, membership, strava, fitbit)
	statsService := services.NewStatsService(membership, catalog)

	errorManager := services.NewErrorManager(b, cfg.AdminID)
	msgManager := services.NewMessageManager(b, errorManager)

	handler := handlers.NewBotHandler(
		errorManager,
		msgManager,
		auth,
		catalog,
		membership,
		syncService,
		statsService,
		connectionRepo,
	)

	b.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
		return update.Message != nil
	}, handler.HandleUpdate, logMiddleware)

	statusServer := &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           handlers.NewStatusRouter(store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("Status server listening on %s", cfg.StatusAddr)
		if err := statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Status server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		statusServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Bot started. Admin ID: %d, store: %s", cfg.AdminID, cfg.StoreDriver)

	b.Start(ctx)
}

func formatUser(u tgmodels.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " @" + u.Username
	}
	return fmt.Sprintf("%s [%d]", name, u.ID)
}

func logMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		if update.Message != nil && update.Message.From != nil {
			log.Printf("[MSG] from=%s text=%q", formatUser(*update.Message.From), update.Message.Text)
		}
		next(ctx, b, update)
	}
}
