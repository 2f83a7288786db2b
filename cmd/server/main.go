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

	"github.com/Asunoke/zayno/docs"
	"github.com/Asunoke/zayno/internal/database"
	"github.com/Asunoke/zayno/internal/handlers"
	mW "github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Zayno Ledger & Credit API
// @version 1.0
// @description Core banking API: ledger, transfers, deposit/withdrawal requests and tier-based credit
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

	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("redis.pool_size", "REDIS_POOL_SIZE")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("banking.deposit_expiry", "BANKING_DEPOSIT_EXPIRY")
	viper.BindEnv("banking.min_withdrawal", "BANKING_MIN_WITHDRAWAL")
	viper.BindEnv("banking.qr_code_ttl", "BANKING_QR_CODE_TTL")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Zayno Ledger & Credit API"
	docs.SwaggerInfo.Description = "Core banking API: ledger, transfers, deposit/withdrawal requests and tier-based credit"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	notifier := services.NewNotifier(redisClient)
	ledgerService := services.NewLedgerService(db)
	scoringService := services.NewScoringService(db)
	settlementService := services.NewSettlementService()
	authService := services.NewAuthService(db, redisClient)
	accountService := services.NewAccountService(db)
	transferService := services.NewTransferService(db, redisClient, ledgerService)
	depositService := services.NewDepositService(db, ledgerService, notifier)
	withdrawalService := services.NewWithdrawalService(db, ledgerService, notifier, settlementService)
	loanService := services.NewLoanService(db, ledgerService)
	qrService := services.NewQRService(db, redisClient)

	depositHandler := handlers.NewDepositHandler(depositService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	qrHandler := handlers.NewQRHandler(qrService)

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
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
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/accounts/me", accountService.GetProfile)
			r.Get("/accounts/lookup/{zynId}", accountService.LookupByZynID)

			r.Post("/transfers", transferService.CreateTransfer)
			r.Get("/transactions", transferService.GetHistory)

			r.Post("/deposits", depositHandler.Create)
			r.Get("/deposits", depositHandler.List)
			r.Get("/deposits/{id}", depositHandler.Get)

			r.Post("/withdrawals", withdrawalHandler.Create)
			r.Get("/withdrawals", withdrawalHandler.List)
			r.Delete("/withdrawals/{id}", withdrawalHandler.Cancel)

			r.Get("/loans/eligibility", loanService.GetEligibility)
			r.Post("/loans/quote", loanService.GetQuote)
			r.Post("/loans/repay", loanService.Repay)

			r.Post("/qr/generate", qrHandler.GenerateQR)
			r.Post("/qr/resolve", qrHandler.ResolveQR)

			// Back office (admin claim required)
			r.Group(func(r chi.Router) {
				r.Use(mW.AdminOnly)

				r.Get("/admin/accounts", accountService.ListAccounts)
				r.Patch("/admin/accounts/{id}/status", accountService.SetAccountStatus)
				r.Post("/admin/accounts/{id}/score", scoringService.RecalculateScore)
				r.Get("/admin/deposits", depositHandler.ListPending)
				r.Patch("/admin/deposits/{id}", depositHandler.Resolve)
				r.Get("/admin/withdrawals", withdrawalHandler.ListAll)
				r.Patch("/admin/withdrawals/{id}", withdrawalHandler.Resolve)
			})
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
