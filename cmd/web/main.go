package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/AdamBeresnev/league-app/internal/db"
	"github.com/AdamBeresnev/league-app/internal/isc"
	"github.com/AdamBeresnev/league-app/internal/middleware"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	// Unset means stalled matches wait for an administrator instead of
	// auto-validating.
	var timeout time.Duration
	if raw := os.Getenv("AUTO_VALIDATE_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal("Invalid AUTO_VALIDATE_TIMEOUT:", err)
		}
		timeout = parsed
	}

	var provider isc.Provider
	if baseURL := os.Getenv("ISC_BASE_URL"); baseURL != "" {
		provider = isc.NewClient(baseURL)
	}

	router := newRouter(sessionManager, timeout, provider)

	log.Println("Server starting on http://localhost:8080")
	if err := http.ListenAndServe(":8080", router); err != nil {
		log.Fatal(err)
	}
}
