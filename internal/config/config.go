package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"time"    // Durations and draw time

	"github.com/joho/godotenv" // For loading .env files
)

// Storage backends
const (
	BackendMemory = "memory" // Process memory, lost on restart
	BackendRedis  = "redis"  // Redis keys
	BackendMySQL  = "mysql"  // kv_entries table through GORM
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	IsProd           bool          // Is production environment
	StoreBackend     string        // memory, redis or mysql
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	RedisAddr        string        // Redis server address
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	RedisPrefix      string        // Prefix for every Redis key
	RateAPIURL       string        // Exchange-rate endpoint
	DefaultUSDTRate  float64       // Rate used until the first successful fetch
	RateTTL          time.Duration // Exchange-rate cache lifetime
	BotUsername      string        // Bot used in referral links
	RaffleTitle      string        // Name of the next sweepstake
	RaffleDrawAt     time.Time     // When the next sweepstake is drawn
	AutoReinvestMode string        // mirror or exclusive
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:          getenv("APP_PORT", "8080"),                // Application port
		IsProd:           os.Getenv("IS_PROD") == "true",            // Is production environment
		StoreBackend:     getenv("STORE_BACKEND", BackendMemory),    // Storage backend
		DBUser:           os.Getenv("DB_USER"),                      // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                  // Database password
		DBHost:           getenv("DB_HOST", "127.0.0.1"),            // Database host
		DBPort:           getenv("DB_PORT", "3306"),                 // Database port
		DBName:           os.Getenv("DB_NAME"),                      // Database name
		RedisAddr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),    // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),                   // Redis password
		RedisDB:          redisDB,                                   // Redis database number
		RedisPrefix:      os.Getenv("REDIS_PREFIX"),                 // Redis key prefix
		RateAPIURL:       os.Getenv("RATE_API_URL"),                 // Empty means the provider default
		DefaultUSDTRate:  getfloat("DEFAULT_USDT_RATE", 95),         // Fallback rate
		RateTTL:          getduration("RATE_TTL", 5*time.Minute),    // Rate cache lifetime
		BotUsername:      getenv("BOT_USERNAME", "OrbitCapitalBot"), // Referral bot
		RaffleTitle:      getenv("RAFFLE_TITLE", "Winter Cup"),      // Sweepstake name
		RaffleDrawAt:     gettime("RAFFLE_DRAW_AT"),                 // Sweepstake draw time
		AutoReinvestMode: getenv("AUTO_REINVEST_MODE", "mirror"),    // Accrual policy
	}
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getenv returns the variable or def when unset
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getfloat parses a float variable, falling back to def
func getfloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return def
}

// getduration parses a duration variable such as 5m, falling back to def
func getduration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// gettime parses an RFC 3339 variable, zero when unset or invalid
func gettime(key string) time.Time {
	t, _ := time.Parse(time.RFC3339, os.Getenv(key))
	return t
}
