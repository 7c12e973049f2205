package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billbuddy/billbuddy/internal/api"
	"github.com/billbuddy/billbuddy/internal/auth"
	"github.com/billbuddy/billbuddy/internal/cache"
	"github.com/billbuddy/billbuddy/internal/mailer"
	"github.com/billbuddy/billbuddy/internal/middleware"
	"github.com/billbuddy/billbuddy/internal/service"
	"github.com/billbuddy/billbuddy/internal/storage/sqlite"
	"github.com/billbuddy/billbuddy/pkg/logging"
)

const (
	defaultPort   = "8080"
	tokenDuration = 24 * time.Hour
	balanceTTL    = 5 * time.Second
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/billbuddy.db")
	port := getEnv("PORT", defaultPort)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	var balanceCache cache.BalanceCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		balanceCache = cache.NewRedisCache(cache.RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		}, balanceTTL)
		slog.Info("Balance cache: redis", "addr", redisAddr)
	} else {
		balanceCache = cache.NewInMemoryCache(balanceTTL)
		slog.Info("Balance cache: in-memory")
	}
	defer balanceCache.Close()

	var m mailer.Mailer
	smtpMailer, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
	})
	if err != nil {
		slog.Warn("SMTP not configured, invite emails will be logged only")
		m = mailer.LogMailer{}
	} else {
		m = smtpMailer
	}

	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	groupService := service.NewGroupService(store, m)
	ledgerService := service.NewLedgerService(store, balanceCache)
	authService := service.NewAuthService(store, authenticator, jwtManager, groupService)

	mux := http.NewServeMux()
	api.New(authService, groupService, ledgerService, jwtManager).Routes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Logging(middleware.Metrics(corsMiddleware(mux)))

	addr := fmt.Sprintf(":%s", port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
