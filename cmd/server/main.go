package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"promptstack/internal/logger"
	"promptstack/internal/middleware"
	"promptstack/internal/router"
	"promptstack/internal/store"
	"promptstack/internal/views"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env vars")
	}

	logg := logger.Initialize(os.Getenv("ENV"))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=promptstack port=5432 sslmode=disable"
	}

	st, err := store.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	logg.Info("database connection established")

	cache := views.New(500)

	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("promptstack_session", sessionStore))

	r.Use(middleware.LoadUser(st))

	router.RegisterRoutes(r, st, cache)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logg.Info("promptstack server starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
