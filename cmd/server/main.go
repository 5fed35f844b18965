package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/handler"
	"github.com/yourorg/rentalhub/internal/infrastructure/logger"
	"github.com/yourorg/rentalhub/internal/infrastructure/redis"
	"github.com/yourorg/rentalhub/internal/observability/metrics"
	"github.com/yourorg/rentalhub/internal/observability/tracing"
	"github.com/yourorg/rentalhub/internal/relay"
	"github.com/yourorg/rentalhub/internal/reliability/retry"
	"github.com/yourorg/rentalhub/internal/repository"
	"github.com/yourorg/rentalhub/internal/security/audit"
	"github.com/yourorg/rentalhub/internal/security/auth"
	"github.com/yourorg/rentalhub/internal/security/middleware"
	"github.com/yourorg/rentalhub/internal/security/ratelimit"
	"github.com/yourorg/rentalhub/internal/service"
	"github.com/yourorg/rentalhub/internal/store"
	"github.com/yourorg/rentalhub/internal/worker"
	"github.com/yourorg/rentalhub/pkg/cache"
	"github.com/yourorg/rentalhub/pkg/config"
	"github.com/yourorg/rentalhub/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting RentalHub server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "rentalhub", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Connect to Postgres, retrying while the database comes up
	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "postgres connect",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, &database.Config{
				Host:            cfg.DBHost,
				Port:            cfg.DBPort,
				User:            cfg.DBUser,
				Password:        cfg.DBPassword,
				Database:        cfg.DBName,
				SSLMode:         cfg.DBSSLMode,
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			}, log)
		})
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Connect to Redis; listings fall back to the database without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = retry.Do(ctx, retry.DefaultConfig(), log, "redis connect",
			func(ctx context.Context) (*redis.Client, error) {
				return redis.NewClient(cfg.RedisURL)
			})
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, listing cache disabled")
	}

	// 6. Initialize the relational accessor and repositories
	st := store.New(pool.GetDB(), log)
	userRepo := repository.NewPostgresUserRepository(st, log)
	rentalRepo := repository.NewPostgresRentalRepository(st, log)
	messageRepo := repository.NewPostgresMessageRepository(st, log)
	statsRepo := repository.NewPostgresStatsRepository(st, log)

	// 7. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "rentalhub")
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Services
	var listingCache service.ListingCache
	if redisClient != nil {
		listingCache = redisClient
	}
	memCache := cache.New()

	authService := service.NewAuthService(userRepo, tokenManager, cfg.TokenTTL, log)
	rentalService := service.NewRentalService(rentalRepo, listingCache, cfg.ListingCacheTTL, cfg.NearbyMaxRadiusKm, log)
	chatService := service.NewChatService(messageRepo, userRepo, rentalRepo, log)
	statsService := service.NewStatsService(statsRepo, memCache, cfg.CountsCacheTTL, log)
	adminService := service.NewAdminService(userRepo, rentalRepo, statsRepo, rentalService, auditLogger, log)

	// 9. Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	rentalHandler := handler.NewRentalHandler(rentalService, log)
	chatHandler := handler.NewChatHandler(chatService, log)
	userHandler := handler.NewUserHandler(userRepo, log)
	adminHandler := handler.NewAdminHandler(adminService, log)
	statsHandler := handler.NewStatsHandler(statsService, log)
	healthHandler := handler.NewHealthHandler(pool, log)

	// 10. Websocket relay
	hub := relay.NewHub(log)
	go hub.Run()
	wsHandler := relay.NewHandler(hub, chatService, tokenManager, userRepo, cfg.CORSAllowedOrigins, log)

	// Middleware chains. Public routes skip auth; protected ones resolve
	// the user on every request.
	authed := middleware.RequireAuth(tokenManager, userRepo, log)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	landlordOrAdmin := middleware.RequireRole(domain.RoleLandlord, domain.RoleAdmin)
	limited := middleware.RateLimitMiddleware(rateLimiter, log)

	public := func(h http.HandlerFunc) http.Handler {
		return limited(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return authed(limited(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(adminOnly(limited(h)))
	}

	// 11. Routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", public(authHandler.Register))
	mux.Handle("POST /api/auth/login", public(authHandler.Login))

	mux.Handle("GET /api/rentals", public(rentalHandler.List))
	mux.Handle("GET /api/rentals/nearby", public(rentalHandler.Nearby))
	mux.Handle("GET /api/rentals/town/{town}", public(rentalHandler.ListByTown))
	mux.Handle("GET /api/rentals/mine", protected(rentalHandler.Mine))
	mux.Handle("GET /api/rentals/{id}", public(rentalHandler.Get))
	mux.Handle("POST /api/rentals", authed(landlordOrAdmin(limited(http.HandlerFunc(rentalHandler.Create)))))
	mux.Handle("PUT /api/rentals/{id}", protected(rentalHandler.Update))
	mux.Handle("DELETE /api/rentals/{id}", protected(rentalHandler.Delete))
	mux.Handle("PUT /api/rentals/{id}/book", protected(rentalHandler.Book))

	mux.Handle("POST /api/chat/send", protected(chatHandler.Send))
	mux.Handle("GET /api/chat/messages/recent/{id}", protected(chatHandler.Recent))
	mux.Handle("GET /api/chat/messages/{id}", protected(chatHandler.History))

	mux.Handle("GET /api/users/me", protected(userHandler.Me))
	mux.Handle("PUT /api/users/me", protected(userHandler.UpdateMe))
	mux.Handle("POST /api/users/location", protected(userHandler.SetLocation))
	mux.Handle("GET /api/users/{id}", public(userHandler.Get))

	mux.Handle("GET /api/admin/users", admin(adminHandler.ListUsers))
	mux.Handle("GET /api/admin/pending-users", admin(adminHandler.PendingUsers))
	mux.Handle("POST /api/admin/users/{id}/approve", admin(adminHandler.ApproveUser))
	mux.Handle("POST /api/admin/users/{id}/suspend", admin(adminHandler.SuspendUser))
	mux.Handle("DELETE /api/admin/users/{id}", admin(adminHandler.DeleteUser))
	mux.Handle("GET /api/admin/rentals", admin(adminHandler.ListRentals))
	mux.Handle("GET /api/admin/pending-rentals", admin(adminHandler.PendingRentals))
	mux.Handle("POST /api/admin/rentals/{id}/approve", admin(adminHandler.ApproveRental))
	mux.Handle("GET /api/admin/stats", admin(adminHandler.Stats))

	mux.Handle("GET /api/stats/counts", public(statsHandler.Counts))

	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Live)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.ValidateJSONContentType(log)(handlerWithCORS),
		),
		log,
	)

	// 12. Start the stats worker
	statsWorker := worker.NewStatsWorker(statsService, log, cfg.StatsRefreshInterval)
	go statsWorker.Start(ctx)

	// 13. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	hub.Stop()
	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
