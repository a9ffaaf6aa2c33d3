package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "STORE_BACKEND", "DEFAULT_USDT_RATE", "RATE_TTL", "RAFFLE_DRAW_AT", "AUTO_REINVEST_MODE", "BOT_USERNAME"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 95.0, cfg.DefaultUSDTRate)
	assert.Equal(t, 5*time.Minute, cfg.RateTTL)
	assert.True(t, cfg.RaffleDrawAt.IsZero())
	assert.Equal(t, "mirror", cfg.AutoReinvestMode)
	assert.Equal(t, "OrbitCapitalBot", cfg.BotUsername)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("STORE_BACKEND", BackendRedis)
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFAULT_USDT_RATE", "101.5")
	t.Setenv("RATE_TTL", "90s")
	t.Setenv("RAFFLE_DRAW_AT", "2025-02-04T18:00:00+03:00")
	t.Setenv("AUTO_REINVEST_MODE", "exclusive")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 101.5, cfg.DefaultUSDTRate)
	assert.Equal(t, 90*time.Second, cfg.RateTTL)
	assert.Equal(t, time.Date(2025, 2, 4, 15, 0, 0, 0, time.UTC), cfg.RaffleDrawAt.UTC())
	assert.Equal(t, "exclusive", cfg.AutoReinvestMode)
	assert.True(t, cfg.IsProd)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "investbot"}
	assert.Equal(t, "u:p@tcp(db:3306)/investbot?parseTime=true", cfg.DSN())
}
