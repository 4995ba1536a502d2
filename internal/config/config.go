package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	// Two independent signing domains: leaking one secret must not allow
	// forging tokens of the other kind.
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	GoogleAudience string
	AllowOrigins   []string

	LogstashTCPAddr string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PasswordResetTTL       time.Duration
	PasswordResetOTPLength int
	ResetRateWindow        time.Duration
	ResetMaxRequests       int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),

		AccessTokenSecret:  must("JWT_SECRET"),
		RefreshTokenSecret: must("JWT_SECRET_REFRESH"),
		AccessTokenTTL:     duration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL:    duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		GoogleAudience: getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:   splitAndTrim(getenv("ALLOW_ORIGINS", "*")),

		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		PasswordResetTTL:       duration("PASSWORD_RESET_TTL", 10*time.Minute),
		PasswordResetOTPLength: integer("PASSWORD_RESET_OTP_LENGTH", 6),
		ResetRateWindow:        duration("RESET_RATE_WINDOW", time.Hour),
		ResetMaxRequests:       integer("RESET_MAX_REQUESTS", 5),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func duration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func integer(k string, d int) int {
	if v, err := strconv.Atoi(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
