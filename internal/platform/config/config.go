package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev-secret-change-me"
)

// Config is built once at startup and handed to every component that needs
// it. Nothing reads the environment after Load returns.
type Config struct {
	AppEnv   string
	APIPort  string
	LogLevel string

	JWTKey []byte
	JWTExp time.Duration

	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	DBConnStr   string
	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuditQueueName string

	RateLimitWindow time.Duration
	RateLimitAuth   int
	RateLimitGlobal int

	CORSOrigins []string

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", EnvDevelopment),
		APIPort:         getEnv("API_PORT", "5000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTKey:          []byte(getEnv("JWT_SECRET", "")),
		JWTExp:          time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 7*24)) * time.Hour,
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "portfolio"),
		DBPassword:      getEnv("DB_PASSWORD", "portfolio"),
		DBName:          getEnv("DB_NAME", "portfolio"),
		DBSslMode:       getEnv("DB_SSLMODE", "disable"),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		AuditQueueName:  getEnv("AUDIT_QUEUE_NAME", "portfolio:admin_audit"),
		RateLimitWindow: time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 15*60)) * time.Second,
		RateLimitAuth:   getEnvAsInt("RATE_LIMIT_AUTH", 20),
		RateLimitGlobal: getEnvAsInt("RATE_LIMIT_GLOBAL", 100),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AdminName:       getEnv("ADMIN_NAME", "Admin User"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@portfolio.com"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
	}

	if len(cfg.JWTKey) == 0 {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		log.Println("JWT_SECRET not set, using development secret")
		cfg.JWTKey = []byte(devJWTSecret)
	}
	if cfg.JWTExp <= 0 {
		return nil, errors.New("JWT_EXPIRATION_HOURS must be positive")
	}

	if dsn, ok := os.LookupEnv("DATABASE_URL"); ok && dsn != "" {
		cfg.DBConnStr = dsn
	} else {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
