package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	JWTSecret          string
	JWTIssuer          string
	RequestTimeout     time.Duration
	RateLimit          string
	CORSAllowedOrigins []string
	MigrationsPath     string

	// Accounts payable
	APAccountCode           string
	APAutoApproveBills      bool
	APMatchTolerancePercent decimal.Decimal

	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	KafkaBrokers           []string
	KafkaAuditTopic        string
	KafkaNotificationTopic string

	MetricsEnabled bool
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("AP_ACCOUNT_CODE", "2000")
	v.SetDefault("AP_AUTO_APPROVE_BILLS", false)
	v.SetDefault("AP_MATCH_TOLERANCE_PERCENT", "5")
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_INTERVAL", "1h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "ledger.audit")
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "ledger.notifications")
	v.SetDefault("METRICS_ENABLED", true)
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:            v.GetString("PGSQL_URL"),
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTIssuer:              v.GetString("JWT_ISSUER"),
		RateLimit:              v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MigrationsPath:         v.GetString("MIGRATIONS_PATH"),
		APAccountCode:          v.GetString("AP_ACCOUNT_CODE"),
		APAutoApproveBills:     v.GetBool("AP_AUTO_APPROVE_BILLS"),
		SchedulerEnabled:       v.GetBool("SCHEDULER_ENABLED"),
		KafkaBrokers:           splitList(v.GetString("KAFKA_BROKERS")),
		KafkaAuditTopic:        v.GetString("KAFKA_AUDIT_TOPIC"),
		KafkaNotificationTopic: v.GetString("KAFKA_NOTIFICATION_TOPIC"),
		MetricsEnabled:         v.GetBool("METRICS_ENABLED"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	var err error
	if cfg.RequestTimeout, err = parseDuration(v, "REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.SchedulerInterval, err = parseDuration(v, "SCHEDULER_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", cfg.SchedulerInterval)
	}

	tolerance := v.GetString("AP_MATCH_TOLERANCE_PERCENT")
	cfg.APMatchTolerancePercent, err = decimal.NewFromString(tolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid value for AP_MATCH_TOLERANCE_PERCENT ('%s'): %w", tolerance, err)
	}
	if cfg.APMatchTolerancePercent.IsNegative() {
		return nil, fmt.Errorf("AP_MATCH_TOLERANCE_PERCENT cannot be negative")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s ('%s'): %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
