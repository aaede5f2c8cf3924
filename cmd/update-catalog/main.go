package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ad/go-telegram-fitness/internal/db"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./fitness.db"
	}

	database, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.InitSchema(database); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	queue := db.NewDBQueue(database)
	defer queue.Close()

	repo := db.NewChallengeRepository(db.NewSQLiteDocumentStore(queue))

	log.Println("Updating challenge catalog...")
	added, updated, err := repo.MergeDefaults(context.Background(), db.DefaultChallenges(time.Now()))
	if err != nil {
		log.Fatalf("Failed to update catalog: %v", err)
	}

	log.Printf("Catalog updated: %d added, %d refreshed", added, updated)
}
