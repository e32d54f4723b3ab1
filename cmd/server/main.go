package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"paymate/internal/api"
	"paymate/internal/auth"
	"paymate/internal/service"
	"paymate/internal/storage/sqlite"
	"paymate/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	logging.Setup()

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./data/paymate.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			slog.Error("Invalid TOKEN_TTL_HOURS", "value", v)
			os.Exit(1)
		}
		tokenTTL = time.Duration(hours) * time.Hour
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	authSvc := service.NewAuthService(authenticator, jwtManager, store, slog.Default())
	expenseSvc := service.NewExpenseService(store)
	groupSvc := service.NewGroupService(store)
	paymentSvc := service.NewPaymentService(store, service.LocalGateway{})

	handlers := api.NewHandlers(authSvc, expenseSvc, groupSvc, paymentSvc)

	addr := fmt.Sprintf(":%s", port)
	slog.Info("Server starting", "addr", addr)
	if err := http.ListenAndServe(addr, handlers.Router(jwtManager)); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
