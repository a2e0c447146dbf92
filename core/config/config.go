package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"threadwatch.app/scout/core/db"
)

type Config struct {
	Monitoring MonitoringConfig
	Quality    QualityConfig
	Engine     EngineConfig
	Cache      CacheConfig
	Approval   ApprovalConfig
	Actions    ActionsConfig
	Notify     NotifyConfig
	OTel       OTelConfig
	LLM        LLMConfig
	Env        string
	Port       string
	DB         db.Config
}

// MonitoringConfig drives search strategy generation and message filtering.
type MonitoringConfig struct {
	Channels       []string
	DomainKeywords []string
	BotUsernames   []string
	OwnerUsername  string
	OwnerUserID    string
	LookbackDays   int
	PollInterval   time.Duration
	SearchBaseURL  string
	SearchToken    string
}

type QualityConfig struct {
	MaxRounds       int
	MinPassCriteria int
	Criteria        []string
}

type EngineConfig struct {
	Backend              string // "cli" or "llm"
	CLIPath              string
	InvestigationTimeout time.Duration
	ReviewTimeout        time.Duration
	MaxConcurrent        int
}

type CacheConfig struct {
	RedisURL      string
	AnswerTTLDays int
}

type ApprovalConfig struct {
	MaxPending int
}

// ActionsConfig names the Redis stream carrying approval button clicks
// from the callback server to the daemon.
type ActionsConfig struct {
	Stream    string
	Group     string
	Consumer  string
	DLQStream string
}

type NotifyConfig struct {
	PostBaseURL string
	PostToken   string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeScout  ServiceType = "scout"
)

// DefaultCriteria is the quality rubric applied when none is configured.
var DefaultCriteria = []string{
	"data_accuracy", "completeness", "root_cause",
	"time_period", "tone", "actionable", "caveats",
}

var defaultBotUsernames = []string{"slackbot", "github", "jira"}

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files
// (.env.server / .env.scout), falling back to .env.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("SCOUT_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("SCOUT_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		Monitoring: MonitoringConfig{
			Channels:       getEnvList("MONITOR_CHANNELS", nil),
			DomainKeywords: getEnvList("MONITOR_DOMAIN_KEYWORDS", []string{"quicksight", "dbt", "snowflake", "dashboard"}),
			BotUsernames:   getEnvList("MONITOR_BOT_USERNAMES", defaultBotUsernames),
			OwnerUsername:  getEnv("MONITOR_OWNER_USERNAME", ""),
			OwnerUserID:    getEnv("MONITOR_OWNER_USER_ID", ""),
			LookbackDays:   getEnvInt("MONITOR_LOOKBACK_DAYS", 7),
			PollInterval:   getEnvDuration("MONITOR_POLL_INTERVAL", 5*time.Minute),
			SearchBaseURL:  getEnv("SEARCH_BASE_URL", ""),
			SearchToken:    getEnv("SEARCH_TOKEN", ""),
		},
		Quality: QualityConfig{
			MaxRounds:       getEnvInt("QUALITY_MAX_ROUNDS", 3),
			MinPassCriteria: getEnvInt("QUALITY_MIN_PASS_CRITERIA", 5),
			Criteria:        getEnvList("QUALITY_CRITERIA", DefaultCriteria),
		},
		Engine: EngineConfig{
			Backend:              getEnv("ENGINE_BACKEND", "cli"),
			CLIPath:              getEnv("ENGINE_CLI_PATH", "claude"),
			InvestigationTimeout: getEnvDuration("ENGINE_INVESTIGATION_TIMEOUT", 300*time.Second),
			ReviewTimeout:        getEnvDuration("ENGINE_REVIEW_TIMEOUT", 120*time.Second),
			MaxConcurrent:        getEnvInt("ENGINE_MAX_CONCURRENT", 3),
		},
		Cache: CacheConfig{
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			AnswerTTLDays: getEnvInt("CACHE_ANSWER_TTL_DAYS", 30),
		},
		Approval: ApprovalConfig{
			MaxPending: getEnvInt("APPROVAL_MAX_PENDING", 200),
		},
		Actions: ActionsConfig{
			Stream:    getEnv("ACTIONS_STREAM", "scout_actions"),
			Group:     getEnv("ACTIONS_CONSUMER_GROUP", "scout_group"),
			Consumer:  getEnv("ACTIONS_CONSUMER_NAME", "scout"),
			DLQStream: getEnv("ACTIONS_DLQ_STREAM", "scout_actions_dlq"),
		},
		Notify: NotifyConfig{
			PostBaseURL: getEnv("POST_BASE_URL", ""),
			PostToken:   getEnv("POST_TOKEN", ""),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "scout"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_BASE_URL", ""),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate checks the invariants the rest of the system depends on.
// Configuration errors are the only fatal error class.
func (c Config) validate() error {
	if c.Monitoring.OwnerUsername == "" {
		return fmt.Errorf("MONITOR_OWNER_USERNAME is required")
	}
	if c.Monitoring.LookbackDays <= 0 {
		return fmt.Errorf("MONITOR_LOOKBACK_DAYS must be positive, got %d", c.Monitoring.LookbackDays)
	}
	if c.Quality.MaxRounds <= 0 {
		return fmt.Errorf("QUALITY_MAX_ROUNDS must be positive, got %d", c.Quality.MaxRounds)
	}
	if c.Quality.MinPassCriteria > len(c.Quality.Criteria) {
		return fmt.Errorf("QUALITY_MIN_PASS_CRITERIA (%d) exceeds criteria count (%d)",
			c.Quality.MinPassCriteria, len(c.Quality.Criteria))
	}
	if c.Engine.MaxConcurrent <= 0 {
		return fmt.Errorf("ENGINE_MAX_CONCURRENT must be positive, got %d", c.Engine.MaxConcurrent)
	}
	if c.Engine.Backend == "llm" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required when ENGINE_BACKEND=llm")
	}
	if c.Approval.MaxPending <= 0 {
		return fmt.Errorf("APPROVAL_MAX_PENDING must be positive, got %d", c.Approval.MaxPending)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList parses a comma-separated env value, trimming whitespace
// around each element. Empty elements are dropped.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
