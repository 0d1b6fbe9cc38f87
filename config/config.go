package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Remote   RemoteConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Page     PageConfig
	Map      MapConfig
	Photos   PhotoConfig
	CORS     CORSConfig
	LogLevel string
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// CacheConfig selects the local store. SQLite is the offline default;
// Postgres lets several page servers share one cache.
type CacheConfig struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type SyncConfig struct {
	FlushSchedule string
	ProbeInterval time.Duration
	BatchSize     int
	LockTTL       time.Duration
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

type PageConfig struct {
	DefaultRestaurantID uint
	SessionTTL          time.Duration
}

type MapConfig struct {
	TileURL     string
	AccessToken string
	TileID      string
	Zoom        int
	MaxZoom     int
	Attribution string
}

type PhotoConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or static host; empty means S3 direct URL
	Presign         bool
	PresignExpiry   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	defaultID, err := strconv.ParseUint(getEnv("PAGE_DEFAULT_RESTAURANT_ID", "1"), 10, 32)
	if err != nil || defaultID == 0 {
		return nil, fmt.Errorf("invalid PAGE_DEFAULT_RESTAURANT_ID: %q", os.Getenv("PAGE_DEFAULT_RESTAURANT_ID"))
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8000"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Cache: CacheConfig{
			Driver:     getEnv("CACHE_DRIVER", "sqlite"),
			SQLitePath: getEnv("CACHE_SQLITE_PATH", "restaurant-reviews.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "admin"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "restaurant_reviews"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
		},
		Remote: RemoteConfig{
			BaseURL: strings.TrimRight(getEnv("REMOTE_BASE_URL", "http://localhost:1337"), "/"),
			Timeout: parseDuration(getEnv("REMOTE_TIMEOUT", "10s"), 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Sync: SyncConfig{
			FlushSchedule: getEnv("SYNC_FLUSH_SCHEDULE", "@every 30s"),
			ProbeInterval: parseDuration(getEnv("SYNC_PROBE_INTERVAL", "15s"), 15*time.Second),
			BatchSize:     parseInt(getEnv("SYNC_BATCH_SIZE", "50"), 50),
			LockTTL:       parseDuration(getEnv("SYNC_LOCK_TTL", "2m"), 2*time.Minute),
			MaxAttempts:   parseInt(getEnv("SYNC_RETRY_MAX_ATTEMPTS", "3"), 3),
			InitialDelay:  parseDuration(getEnv("SYNC_RETRY_INITIAL_DELAY", "500ms"), 500*time.Millisecond),
			MaxDelay:      parseDuration(getEnv("SYNC_RETRY_MAX_DELAY", "10m"), 10*time.Minute),
			BackoffFactor: parseFloat(getEnv("SYNC_RETRY_BACKOFF_FACTOR", "2"), 2),
		},
		Page: PageConfig{
			DefaultRestaurantID: uint(defaultID),
			SessionTTL:          parseDuration(getEnv("PAGE_SESSION_TTL", "30m"), 30*time.Minute),
		},
		Map: MapConfig{
			TileURL:     getEnv("MAP_TILE_URL", "https://api.tiles.mapbox.com/v4/{id}/{z}/{x}/{y}.jpg70?access_token={mapboxToken}"),
			AccessToken: getEnv("MAPBOX_ACCESS_TOKEN", ""),
			TileID:      getEnv("MAP_TILE_ID", "mapbox.streets"),
			Zoom:        parseInt(getEnv("MAP_ZOOM", "16"), 16),
			MaxZoom:     parseInt(getEnv("MAP_MAX_ZOOM", "18"), 18),
			Attribution: getEnv("MAP_ATTRIBUTION", "Map data &copy; OpenStreetMap contributors, CC-BY-SA, Imagery © Mapbox"),
		},
		Photos: PhotoConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         strings.TrimRight(getEnv("PHOTOS_BASE_URL", "/img"), "/"),
			Presign:         parseBool(getEnv("PHOTOS_PRESIGN", "false")),
			PresignExpiry:   parseDuration(getEnv("PHOTOS_PRESIGN_EXPIRY", "1h"), time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:8000")),
		},
		LogLevel: getEnv("LOG_LEVEL", ""),
	}

	return config, nil
}

func (c *CacheConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %g", s, fallback)
		return fallback
	}
	return f
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
