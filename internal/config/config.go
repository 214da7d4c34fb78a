package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Ledger rules
	MaxDebt             int64
	InterestRatePercent int64
	AccrualOnLogin      bool

	// Sessions
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Bootstrap admin principal
	AdminFirstName string
	AdminLastName  string
	AdminPassword  string

	// Audit sink
	AuditBackend  string // "file" or "redis"
	AuditFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing
	OTLPEndpoint string
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		MaxDebt:             int64(getEnvInt("MAX_DEBT", 2000)),
		InterestRatePercent: int64(getEnvInt("INTEREST_RATE_PERCENT", 10)),
		AccrualOnLogin:      getEnvBool("ACCRUAL_ON_LOGIN", true),

		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:  getEnvDuration("ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getEnvDuration("REFRESH_TTL", 7*24*time.Hour),

		AdminFirstName: getEnv("ADMIN_FIRST_NAME", ""),
		AdminLastName:  getEnv("ADMIN_LAST_NAME", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),

		AuditBackend:  getEnv("AUDIT_BACKEND", "file"),
		AuditFile:     getEnv("AUDIT_FILE", "./config/log.txt"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "banka")
	pass := getEnv("DB_PASSWORD", "banka")
	name := getEnv("DB_NAME", "banka")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
