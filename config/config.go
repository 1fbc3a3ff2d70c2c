package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`

	// Fetcher und Retry
	UserAgent        string        `envconfig:"COLLECTOR_USER_AGENT" default:"civicwatch-collector/1.0 (+https://civicwatch.ca/bot)"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`

	// Optional YAML file that adds or disables sources of the built-in catalog.
	SourcesFile string `envconfig:"SOURCES_FILE"`

	// LLM text classification (OpenRouter)
	LLMAPIKey           string        `envconfig:"LLM_API_KEY" required:"true"`
	LLMModel            string        `envconfig:"LLM_MODEL" default:"openai/gpt-4o-mini"`
	LLMMaxInputChars    int           `envconfig:"LLM_MAX_INPUT_CHARS" default:"2000"`
	LLMCallDelay        time.Duration `envconfig:"LLM_CALL_DELAY" default:"1s"`
	EnrichmentBatchSize int           `envconfig:"ENRICHMENT_BATCH_SIZE" default:"25"`

	// Schedules (cron expressions or @every descriptors)
	StartupDelay       time.Duration `envconfig:"STARTUP_DELAY" default:"90s"`
	GovernmentSchedule string        `envconfig:"GOVERNMENT_SCHEDULE" default:"@every 2h"`
	DailyTierSchedule  string        `envconfig:"DAILY_TIER_SCHEDULE" default:"0 3 * * *"`
	WeeklyTierSchedule string        `envconfig:"WEEKLY_TIER_SCHEDULE" default:"0 4 * * 0"`
	NewsSchedule       string        `envconfig:"NEWS_SCHEDULE" default:"@every 30m"`
	EnrichmentSchedule string        `envconfig:"ENRICHMENT_SCHEDULE" default:"@every 15m"`
	AnalyticsSchedule  string        `envconfig:"ANALYTICS_SCHEDULE" default:"@every 1h"`
	HealthSchedule     string        `envconfig:"HEALTH_SCHEDULE" default:"@every 5m"`

	// Raw page archive on S3-compatible storage; disabled unless a bucket is set.
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION" default:"ca-central-1"`
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// ArchiveEnabled reports whether every S3 setting needed by the raw page archive is present.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveS3Bucket != "" && c.ArchiveS3URL != "" && c.ArchiveS3Key != "" && c.ArchiveS3Secret != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
