package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret   string
	JWTTTLHours int

	// Seeded admin account. Empty email disables seeding.
	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminAddress  string

	// Optional Redis backing for the auth rate limiter. Empty means the
	// in-memory limiter is used.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit      int
	AuthRateWindowSecs int

	OTLPEndpoint   string
	AllowedOrigins []string
}

func Load() Config {
	// .env is a dev convenience; absent in prod.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		JWTSecret:   getEnv("JWT_SECRET", "supersecretkey"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Platform Administrator Account"),
		AdminAddress:  getEnv("ADMIN_ADDRESS", "Head Office"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindowSecs: getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateWindowSecs) * time.Second
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "ratehub")
	pass := getEnv("DB_PASSWORD", "ratehub")
	name := getEnv("DB_NAME", "ratehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
