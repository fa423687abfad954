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

	"github.com/classpoints/backend/docs"
	"github.com/classpoints/backend/internal/audit"
	"github.com/classpoints/backend/internal/config"
	"github.com/classpoints/backend/internal/database"
	"github.com/classpoints/backend/internal/handlers"
	mW "github.com/classpoints/backend/internal/middleware"
	"github.com/classpoints/backend/internal/services"
	"github.com/classpoints/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Class Points API
// @version 1.0
// @description Student points ledger, prize redemption and leaderboards
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

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
	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	config.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
	viper.SetDefault("storage.driver", "postgres")

	// Initialize Swagger docs
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ledgerConfig := config.LoadLedgerConfig()
	auditLogger := audit.NewAuditLogger(nil)

	var (
		ledgerStore store.Store
		catalog     services.PrizeCatalog
		aggregates  services.AggregateSource
	)
	switch viper.GetString("storage.driver") {
	case "memory":
		log.Println("Using in-memory ledger store; balances will not survive a restart")
		ledgerStore = store.NewMemoryStore()
		catalog = services.NewStaticPrizeCatalog()
		aggregates = services.NewStaticAggregates()
	default:
		db := database.InitDatabase()
		defer db.Close()
		ledgerStore = store.NewPostgresStore(db)
		catalog = services.NewPostgresPrizeCatalog(db)
		aggregates = services.NewPostgresAggregates(db)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerService := services.NewLedgerService(ledgerStore, ledgerConfig, auditLogger)
	gateway := services.NewGateway(ledgerService, ledgerConfig.MaxManualDelta)
	redemptionService := services.NewRedemptionService(ledgerService, catalog, auditLogger)
	rankingService := services.NewRankingService(ledgerService, aggregates, redisClient, ledgerConfig)
	voucherService := services.NewVoucherService(ledgerService)

	ledgerService.Subscribe(rankingService)
	ledgerService.Subscribe(services.NewEventPublisher(redisClient, ledgerConfig.EventQueue))

	pointsHandler := handlers.NewPointsHandler(ledgerService, gateway)
	redemptionHandler := handlers.NewRedemptionHandler(ledgerService, redemptionService, voucherService)
	rankingHandler := handlers.NewRankingHandler(rankingService)

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			pointsHandler.Routes(r)
			redemptionHandler.Routes(r)
			rankingHandler.Routes(r)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

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
