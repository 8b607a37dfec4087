package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	OCR        OCRConfig
	Summarizer SummarizerConfig
	Models     ModelsConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds recognition collaborator configuration
type OCRConfig struct {
	Provider       string // "cloud" | "ondevice"
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	MaxUploadWidth int     // compressed image width sent to the collaborator
	LineThreshold  float64 // vertical grouping threshold, original-image pixels
}

// SummarizerConfig holds local inference runtime configuration
type SummarizerConfig struct {
	Endpoint    string // local runtime base URL, e.g. http://127.0.0.1:8080
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// ModelsConfig holds model file download configuration
type ModelsConfig struct {
	BaseURL  string
	CacheDir string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "scansnap.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Provider:       getEnv("OCR_PROVIDER", "cloud"),
			Endpoint:       getEnv("OCR_ENDPOINT", ""),
			APIKey:         getEnv("OCR_API_KEY", ""),
			Timeout:        getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
			MaxUploadWidth: getEnvAsInt("OCR_MAX_UPLOAD_WIDTH", 1000),
			LineThreshold:  getEnvAsFloat64("OCR_LINE_THRESHOLD", 15),
		},
		Summarizer: SummarizerConfig{
			Endpoint:    getEnv("SUMMARIZER_ENDPOINT", "http://127.0.0.1:8089"),
			Model:       getEnv("SUMMARIZER_MODEL", "qwen2.5-0.5b-instruct-q5_k_m"),
			Temperature: getEnvAsFloat32("SUMMARIZER_TEMPERATURE", 0.2),
			MaxTokens:   getEnvAsInt("SUMMARIZER_MAX_TOKENS", 256),
			Timeout:     getEnvAsDuration("SUMMARIZER_TIMEOUT", 60*time.Second),
		},
		Models: ModelsConfig{
			BaseURL:  getEnv("MODELS_BASE_URL", "https://huggingface.co"),
			CacheDir: getEnv("MODELS_CACHE_DIR", "./models"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.OCR.Provider {
	case "cloud":
		if c.OCR.Endpoint == "" {
			return NewAppError("CONFIG_ERROR", "OCR_ENDPOINT is required for the cloud provider", ErrInvalidInput)
		}
	case "ondevice":
	default:
		return NewAppError("CONFIG_ERROR", "OCR_PROVIDER must be cloud or ondevice", ErrInvalidInput)
	}
	if c.OCR.MaxUploadWidth <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MAX_UPLOAD_WIDTH must be positive", ErrInvalidInput)
	}
	return nil
}
