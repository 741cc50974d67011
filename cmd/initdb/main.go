package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/anthropics/telegram-neurocat/internal/data"
)

// Creates the history database with its schema. Safe to re-run; existing
// tables are left untouched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbPath := os.Getenv("HISTORY_DB_PATH")
	if dbPath == "" {
		wd, _ := os.Getwd()
		dbPath = filepath.Join(wd, "group_history.db")
	}

	repo, err := data.NewHistoryRepo(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()

	fmt.Printf("Database ready: %s\n", dbPath)
}
