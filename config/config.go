package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string
	// Upload storage
	UploadDir       string
	PublicBaseURL   string // Public URL prefix the upload dir is served under
	MaxUploadSizeMB int64
	// WebP conversion
	WebPQualityPhoto   int // Photographic sources: JPEG, HEIC/HEIF, plain PNG, WebP re-encodes
	WebPQualityGraphic int // Edge/alpha-sensitive sources: PNG with alpha, GIF
	// HTTP
	AllowedOrigin      string
	RateLimitPerSecond float64
	RateLimitBurst     int
	RateLimitClientTTL time.Duration
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// We don't error here because in pure docker/prod envs, .env might not exist,
		// and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
		MaxUploadSizeMB: getInt64Env("MAX_UPLOAD_SIZE_MB", 10),

		// Photo tier trades size for quality on photographic content;
		// graphic tier keeps hard edges and alpha fringes intact.
		WebPQualityPhoto:   getIntEnv("WEBP_QUALITY_PHOTO", 82),
		WebPQualityGraphic: getIntEnv("WEBP_QUALITY_GRAPHIC", 95),

		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimitPerSecond: getFloat64Env("RATE_LIMIT_PER_SECOND", 50),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 100),
		RateLimitClientTTL: getDurationEnv("RATE_LIMIT_CLIENT_TTL", 3*time.Minute),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.UploadDir == "" {
		log.Fatal("CRITICAL: UPLOAD_DIR must not be empty")
	}
	if c.PublicBaseURL == "" {
		log.Fatal("CRITICAL: PUBLIC_BASE_URL must not be empty")
	}
	if c.WebPQualityPhoto < 0 || c.WebPQualityPhoto > 100 {
		log.Printf("WEBP_QUALITY_PHOTO %d out of range, clamping", c.WebPQualityPhoto)
		c.WebPQualityPhoto = clamp(c.WebPQualityPhoto, 0, 100)
	}
	if c.WebPQualityGraphic < 0 || c.WebPQualityGraphic > 100 {
		log.Printf("WEBP_QUALITY_GRAPHIC %d out of range, clamping", c.WebPQualityGraphic)
		c.WebPQualityGraphic = clamp(c.WebPQualityGraphic, 0, 100)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}
