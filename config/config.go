package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Recruitee (hiring pipeline) configuration
	RecruiteeToken     string `validate:"required"`
	RecruiteeCompanyID string `validate:"required"`
	RecruiteeBaseURL   string `validate:"required,url"`
	RecruiteeHRID      string // admin to assign review tasks to (optional)

	// GitLab (repository host) configuration
	GitlabToken              string `validate:"required"`
	GitlabBaseURL            string `validate:"required,url"`
	GitlabTemplatesNamespace string `validate:"required"`
	GitlabHomeworkNamespace  string `validate:"required"`

	// Bot behaviour
	RequiredTag          string // only process candidates carrying this tag ("" = no filter)
	DryRun               bool   // log intended actions instead of writing
	DeleteProjectAtEnd   bool   // delete the fork again after a run (test/ephemeral mode)
	PollIntervalSeconds  int    // 0 = run a single poll cycle and exit
	ForkRetryPauseMillis int

	// Webhook server
	WebhookPort string

	// Monitoring (healthchecks.io ping UUID, optional)
	HealthchecksUUID string
	HealthchecksURL  string
}

func LoadConfig() (*Config, error) {
	// Load .env file (only effective locally, ignored in production if absent)
	_ = godotenv.Load()

	cfg := &Config{
		RecruiteeToken:     getEnv("RECRUITEE_TOKEN", ""),
		RecruiteeCompanyID: getEnv("RECRUITEE_COMPANY_ID", ""),
		RecruiteeBaseURL:   strings.TrimRight(getEnv("RECRUITEE_BASE_URL", "https://api.recruitee.com/c"), "/"),
		RecruiteeHRID:      getEnv("RECRUITEE_HR_ID", ""),

		GitlabToken:              getEnv("GITLAB_TOKEN", ""),
		GitlabBaseURL:            strings.TrimRight(getEnv("GITLAB_BASE_URL", "https://gitlab.com/api/v4"), "/"),
		GitlabTemplatesNamespace: getEnv("GITLAB_TEMPLATES_NAMESPACE", ""),
		GitlabHomeworkNamespace:  getEnv("GITLAB_HOMEWORK_NAMESPACE", ""),

		RequiredTag:          getEnv("REQUIRED_TAG", ""),
		DryRun:               getEnvBool("DRY_RUN", false),
		DeleteProjectAtEnd:   getEnvBool("DELETE_PROJECT_AT_END", false),
		PollIntervalSeconds:  getEnvInt("POLL_INTERVAL_SECONDS", 0),
		ForkRetryPauseMillis: getEnvInt("FORK_RETRY_PAUSE_MILLIS", 3000),

		WebhookPort: getEnv("WEBHOOK_PORT", "8080"),

		HealthchecksUUID: getEnv("HEALTHCHECKS_UUID", ""),
		HealthchecksURL:  strings.TrimRight(getEnv("HEALTHCHECKS_URL", "https://hc-ping.com"), "/"),
	}

	// A poll interval below 15s would hammer both APIs; clamp like the original CLI.
	if cfg.PollIntervalSeconds > 0 && cfg.PollIntervalSeconds < 15 {
		log.Printf("WARNING: POLL_INTERVAL_SECONDS=%d is below the minimum, using 15.", cfg.PollIntervalSeconds)
		cfg.PollIntervalSeconds = 15
	}

	if cfg.HealthchecksUUID == "" {
		log.Println("WARNING: HEALTHCHECKS_UUID not configured. Cycle heartbeats will be skipped.")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("WARNING: invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Printf("WARNING: invalid boolean for %s, using default %v", key, fallback)
	}
	return fallback
}
