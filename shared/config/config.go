package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret     string
	JWTExpireDays string

	// Admin seed account
	AdminEmail    string
	AdminPhone    string
	AdminPassword string

	// Redis (optional request-list cache)
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Login Rate Limiting
	LoginRateLimitMaxAttempts   string
	LoginRateLimitWindowSeconds string
	LoginRateLimitBlockMinutes  string

	// Register Rate Limiting
	RegisterRateLimitMaxAttempts string
	RegisterRateLimitWindowHours string
	RegisterRateLimitBlockHours  string

	// Frontend URL (websocket origin check)
	FrontendURL string

	// MinIO (profile pictures)
	MinIOEnabled      bool
	MinIOServerURL    string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool
	MinIOBucketName   string
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Server
		ServerPort: getEnv("PORT", "9000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ashasetu"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireDays: getEnv("JWT_EXPIRE_DAYS", "7"),

		// Admin seed account
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPhone:    getEnv("ADMIN_PHONE", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		// Redis
		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnv("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", "5"),
		LoginRateLimitWindowSeconds: getEnv("LOGIN_RATE_LIMIT_WINDOW_SECONDS", "300"),
		LoginRateLimitBlockMinutes:  getEnv("LOGIN_RATE_LIMIT_BLOCK_MINUTES", "30"),

		// Register Rate Limiting
		RegisterRateLimitMaxAttempts: getEnv("REGISTER_RATE_LIMIT_MAX_ATTEMPTS", "10"),
		RegisterRateLimitWindowHours: getEnv("REGISTER_RATE_LIMIT_WINDOW_HOURS", "24"),
		RegisterRateLimitBlockHours:  getEnv("REGISTER_RATE_LIMIT_BLOCK_HOURS", "24"),

		// Frontend URL
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// MinIO Configuration
		MinIOEnabled:      getEnvAsBool("MINIO_ENABLED", false),
		MinIOServerURL:    getEnv("MINIO_SERVER_URL", "http://localhost:9001"),
		MinIORootUser:     getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword: getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
		MinIOBucketName:   getEnv("MINIO_BUCKET_NAME", "ashasetu-avatars"),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// GetJWTExpireDays returns the token lifetime in days
func (c *Config) GetJWTExpireDays() int {
	if value, err := strconv.Atoi(c.JWTExpireDays); err == nil && value > 0 {
		return value
	}
	return 7
}

// GetLoginRateLimitMaxAttempts returns the login attempt cap as integer
func (c *Config) GetLoginRateLimitMaxAttempts() int {
	if value, err := strconv.Atoi(c.LoginRateLimitMaxAttempts); err == nil {
		return value
	}
	return 5
}

// GetLoginRateLimitWindowSeconds returns the login window as integer
func (c *Config) GetLoginRateLimitWindowSeconds() int {
	if value, err := strconv.Atoi(c.LoginRateLimitWindowSeconds); err == nil {
		return value
	}
	return 300
}

// GetLoginRateLimitBlockMinutes returns the login block duration as integer
func (c *Config) GetLoginRateLimitBlockMinutes() int {
	if value, err := strconv.Atoi(c.LoginRateLimitBlockMinutes); err == nil {
		return value
	}
	return 30
}

// GetRegisterRateLimitMaxAttempts returns the registration attempt cap as integer
func (c *Config) GetRegisterRateLimitMaxAttempts() int {
	if value, err := strconv.Atoi(c.RegisterRateLimitMaxAttempts); err == nil {
		return value
	}
	return 10
}

// GetRegisterRateLimitWindowHours returns the registration window as integer
func (c *Config) GetRegisterRateLimitWindowHours() int {
	if value, err := strconv.Atoi(c.RegisterRateLimitWindowHours); err == nil {
		return value
	}
	return 24
}

// GetRegisterRateLimitBlockHours returns the registration block duration as integer
func (c *Config) GetRegisterRateLimitBlockHours() int {
	if value, err := strconv.Atoi(c.RegisterRateLimitBlockHours); err == nil {
		return value
	}
	return 24
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
