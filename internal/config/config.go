package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clubsite/internal/apperrors"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	StaticFilesPath string

	// DataBaseURL is where the published members/news/events JSON files are
	// served. Empty disables refreshing from the network.
	DataBaseURL string

	// PublishedDataPath is a checkout of the published data directory,
	// served under /data
	PublishedDataPath string

	Publish PublishConfig

	AdminUsername     string
	AdminPasswordHash string
	SessionSecret     string
	SessionDuration   time.Duration

	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	HTTPTimeout time.Duration
	Debug       bool
}

// PublishConfig holds what the publish pipeline needs to reach the data repository
type PublishConfig struct {
	Token      string
	Repo       string
	Branch     string
	APIBaseURL string

	// LocalRepoPath switches publishing to a git repository on disk
	LocalRepoPath string
}

// LoadDotEnv loads environment variables from .env files (default ".env").
// A missing file is not an error; an unreadable or malformed one is.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:        getEnv("PORT", "8080"),
		DatabaseType:      getEnv("DB_TYPE", "sqlite"),
		DatabasePath:      getEnv("DB_PATH", "./clubsite.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		StaticFilesPath:   getEnv("STATIC_PATH", "./static"),
		DataBaseURL:       strings.TrimRight(os.Getenv("DATA_BASE_URL"), "/"),
		PublishedDataPath: getEnv("PUBLISHED_DATA_PATH", "./public/data"),
		Publish: PublishConfig{
			Token:         os.Getenv("GITHUB_TOKEN"),
			Repo:          os.Getenv("GITHUB_REPO"),
			Branch:        os.Getenv("GITHUB_BRANCH"),
			APIBaseURL:    strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
			LocalRepoPath: os.Getenv("GIT_REPO_PATH"),
		},
		AdminUsername:     getEnv("ADMIN_USERNAME", "stpaulille"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionDuration:   getEnvDuration("SESSION_DURATION", 12*time.Hour),
		AWSRegion:         getEnv("AWS_REGION", "eu-west-3"),
		SESFromEmail:      os.Getenv("SES_FROM_EMAIL"),
		SESFromName:       getEnv("SES_FROM_NAME", "A.S. Saint-Paul Lille"),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		Debug:             getEnvBool("DEBUG", false),
	}
}

// Validate checks that every value required for a publish is present.
// All missing keys are reported at once so the operator can fix them in one go.
func (c PublishConfig) Validate() error {
	var missing []string
	if c.LocalRepoPath == "" {
		if c.Token == "" {
			missing = append(missing, "GITHUB_TOKEN")
		}
		if c.Repo == "" {
			missing = append(missing, "GITHUB_REPO")
		}
	}
	if c.Branch == "" {
		missing = append(missing, "GITHUB_BRANCH")
	}
	if len(missing) > 0 {
		return apperrors.NewConfigError(strings.Join(missing, ", "),
			"Missing GitHub configuration: "+strings.Join(missing, ", ")+
				". Please set GITHUB_TOKEN, GITHUB_REPO, and GITHUB_BRANCH environment variables.")
	}

	if c.LocalRepoPath == "" {
		if _, _, err := c.OwnerAndName(); err != nil {
			return err
		}
	}
	return nil
}

// OwnerAndName splits Repo in its "owner/name" parts
func (c PublishConfig) OwnerAndName() (string, string, error) {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", apperrors.NewConfigError("GITHUB_REPO", `Invalid GITHUB_REPO format. Expected "owner/repo".`)
	}
	return owner, name, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
