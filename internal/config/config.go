package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable; required ones are enforced
// by must() and abort startup when missing.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens

	// Seat-hold lifecycle.  A hold lives for HoldTTL; reminders fire
	// at each offset in HoldReminders before the hold is released.
	HoldTTL       time.Duration
	HoldReminders []time.Duration
	SweepEvery    time.Duration // recovery sweep interval for expired holds

	PaystackSecretKey string // gateway secret key
	AMQPURL           string // RabbitMQ connection URL (optional; notices disabled when empty)
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		HoldTTL: durOr("HOLD_TTL", 30*time.Minute),
		HoldReminders: []time.Duration{
			durOr("HOLD_REMINDER_FIRST", 10*time.Minute),
			durOr("HOLD_REMINDER_SECOND", 20*time.Minute),
		},
		SweepEvery: durOr("HOLD_SWEEP_EVERY", time.Minute),

		PaystackSecretKey: must("PAYSTACK_SECRET_KEY"),
		AMQPURL:           firstOf("RABBITMQ_URL", "AMQP_URL"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// firstOf returns the first non-empty value among the given
// environment variables.
func firstOf(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// durOr parses an optional duration variable, falling back to d.
func durOr(key string, d time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return dur
}
