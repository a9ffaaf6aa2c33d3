package main

import (
	"context"                    // context package is needed for Redis operations
	"investbot/internal/api"     // Custom package for API handlers
	"investbot/internal/config"  // Custom package for configuration
	"investbot/internal/db"      // Custom package for the MySQL connection
	"investbot/internal/ledger"  // Wallet ledger
	"investbot/internal/metrics" // Prometheus collectors
	"investbot/internal/raffle"  // Sweepstake schedule
	"investbot/internal/rates"   // Exchange rate
	"investbot/internal/storage" // Persistence backends

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()
	store := openStore(ctx, cfg) // Wallet, log and rate snapshot live here

	policy := ledger.ParsePolicy(cfg.AutoReinvestMode)
	l := ledger.New(store, ledger.WithPolicy(policy), ledger.WithLogger(logrus.StandardLogger()))

	rp := rates.New(ctx, store, rates.Config{
		URL:      cfg.RateAPIURL,      // Empty means CoinGecko
		Fallback: cfg.DefaultUSDTRate, // Used until the first fetch
		TTL:      cfg.RateTTL,         // Cache lifetime
	})
	rp.Subscribe(metrics.SetUSDTRate)
	metrics.SetUSDTRate(rp.Current())
	metrics.SetInvested(l.Read(ctx).Invested) // Applies any accrual missed while down

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.NewRouter(r, api.Deps{
		Ledger:      l,
		Rates:       rp,
		BotUsername: cfg.BotUsername,
		Draw:        raffle.Draw{Title: cfg.RaffleTitle, DrawAt: cfg.RaffleDrawAt},
	})

	logrus.WithFields(logrus.Fields{
		"port":    cfg.AppPort,
		"store":   cfg.StoreBackend,
		"accrual": policy.String(),
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}

// openStore connects the configured storage backend
func openStore(ctx context.Context, cfg *config.Config) storage.Store {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		// Setup Redis client
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})

		// Test Redis connection
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		return storage.NewRedisStore(redisClient, cfg.RedisPrefix, 0) // Wallet keys never expire
	case config.BackendMySQL:
		gdb, err := db.Open(cfg.DSN())
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		return storage.NewGormStore(gdb)
	case config.BackendMemory:
		logrus.Warn("Using in-memory storage, the wallet is lost on restart")
		return storage.NewMemoryStore()
	default:
		logrus.Fatalf("unknown STORE_BACKEND %q", cfg.StoreBackend)
		return nil
	}
}
