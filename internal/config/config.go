package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Report   ReportConfig
	Mail     MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	Clients               []APIClientConfig
}

// APIClientConfig is one entry of REPORT_API_CLIENTS.
type APIClientConfig struct {
	ID         string
	SecretHash string
	Role       string
	TenantID   string
}

// ReportConfig controls the scheduled compliance report job.
type ReportConfig struct {
	ScheduleEnabled     bool
	IntervalHours       int
	Concurrency         int
	CacheTTLSeconds     int
	RecipientRoles      []string
	AuditBreaches       bool
	FetchTimeoutSeconds int
}

// MailConfig configures outbound report delivery.
type MailConfig struct {
	Transport      string
	From           string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	WebhookURL     string
	OpsWebhookURL  string
	MaxAttempts    int
	BackoffMillis  int
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	clients, err := parseClients(os.Getenv("REPORT_API_CLIENTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_API_CLIENTS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-reporting"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", false),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			Clients:               clients,
		},
		Report: ReportConfig{
			ScheduleEnabled:     getEnvAsBool("REPORT_SCHEDULE_ENABLED", true),
			IntervalHours:       getEnvAsInt("REPORT_INTERVAL_HOURS", 168),
			Concurrency:         getEnvAsInt("REPORT_CONCURRENCY", 4),
			CacheTTLSeconds:     getEnvAsInt("REPORT_CACHE_TTL_SECONDS", 900),
			RecipientRoles:      getEnvAsList("REPORT_RECIPIENT_ROLES", []string{"admin", "hr_manager"}),
			AuditBreaches:       getEnvAsBool("REPORT_AUDIT_BREACHES", false),
			FetchTimeoutSeconds: getEnvAsInt("REPORT_FETCH_TIMEOUT_SECONDS", 60),
		},
		Mail: MailConfig{
			Transport:      strings.ToLower(getEnv("MAIL_TRANSPORT", "log")),
			From:           getEnv("MAIL_FROM", "noreply@example.com"),
			SMTPHost:       os.Getenv("MAIL_SMTP_HOST"),
			SMTPPort:       getEnvAsInt("MAIL_SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("MAIL_SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("MAIL_SMTP_PASSWORD"),
			WebhookURL:     os.Getenv("MAIL_WEBHOOK_URL"),
			OpsWebhookURL:  os.Getenv("NOTIFY_OPS_WEBHOOK_URL"),
			MaxAttempts:    getEnvAsInt("REPORT_DELIVERY_MAX_ATTEMPTS", 3),
			BackoffMillis:  getEnvAsInt("REPORT_DELIVERY_BACKOFF_MS", 500),
			TimeoutSeconds: getEnvAsInt("MAIL_TIMEOUT_SECONDS", 15),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Interval returns the time between scheduled report runs.
func (r ReportConfig) Interval() time.Duration {
	if r.IntervalHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(r.IntervalHours) * time.Hour
}

// SentLedgerTTL is how long a scheduled delivery stays recorded: two intervals.
func (r ReportConfig) SentLedgerTTL() time.Duration {
	return 2 * r.Interval()
}

// CacheTTL returns how long computed reports stay cached.
func (r ReportConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// FetchTimeout bounds a single ticket window query.
func (r ReportConfig) FetchTimeout() time.Duration {
	if r.FetchTimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.FetchTimeoutSeconds) * time.Second
}

// Backoff returns the initial retry delay for report delivery.
func (m MailConfig) Backoff() time.Duration {
	return time.Duration(m.BackoffMillis) * time.Millisecond
}

// Timeout bounds a single delivery attempt.
func (m MailConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// parseClients reads "id:bcrypt-hash:role[:tenant]" entries separated by commas.
func parseClients(raw string) ([]APIClientConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var clients []APIClientConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("entry %q: want id:hash:role[:tenant]", entry)
		}
		client := APIClientConfig{ID: parts[0], SecretHash: parts[1], Role: parts[2]}
		if len(parts) == 4 {
			client.TenantID = parts[3]
		}
		if client.ID == "" || client.SecretHash == "" || client.Role == "" {
			return nil, fmt.Errorf("entry %q: empty field", entry)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
