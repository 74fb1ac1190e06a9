package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/highcard/backend/docs"
	"github.com/highcard/backend/internal/config"
	"github.com/highcard/backend/internal/database"
	"github.com/highcard/backend/internal/game"
	"github.com/highcard/backend/internal/handlers"
	mW "github.com/highcard/backend/internal/middleware"
	"github.com/highcard/backend/internal/services"
)

// @title High-Card Duel Backend API
// @version 1.0
// @description API for a two-party stake wagering game
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "High-Card Duel Backend API"
	docs.SwaggerInfo.Description = "API for a two-party stake wagering game"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// The archive and Redis are both optional: the wagering core runs
	// entirely in memory and only history, join codes and auth degrade
	// without them.
	db := database.InitDatabase()
	if db != nil {
		defer db.Close()
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	gameCfg := config.LoadGameConfig()

	session := game.NewSession(game.NewLedger())

	archiveService := services.NewGameArchiveService(db)
	stakeService := services.NewStakeService(session)
	gameService := services.NewGameService(session, archiveService, redisClient, gameCfg)
	authService := services.NewAuthService(db, redisClient)
	qrService := services.NewQRService(redisClient, gameCfg.JoinCodeTimeout)
	qrHandler := handlers.NewQRHandler(qrService, session)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints. The stake and game operations stay
		// unauthenticated: nothing binds a caller to the identity it names,
		// which is the contract being modeled.
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		r.Post("/stakes/deposit", stakeService.DepositStake)
		r.Post("/stakes/withdraw", stakeService.WithdrawStake)
		r.Get("/stakes/balance", stakeService.BalanceEnquiry)

		r.Post("/games", gameService.StartGame)
		r.Post("/games/join", gameService.JoinGame)
		r.Post("/games/reveal", gameService.RevealAndSettle)
		r.Delete("/games", gameService.ResetGame)
		r.Get("/games/current", gameService.CurrentGame)

		// Protected convenience endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)
			r.Get("/games/history", gameService.GameHistory)

			r.Post("/qr/generate", qrHandler.GenerateQR)
			r.Post("/qr/process", qrHandler.ProcessQR)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
