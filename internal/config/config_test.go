package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clubsite/internal/apperrors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("DEBUG", "")
	t.Setenv("DATA_BASE_URL", "")

	cfg := Load()
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
	if cfg.DataBaseURL != "" {
		t.Errorf("DataBaseURL = %q, want empty so the server never refreshes from itself", cfg.DataBaseURL)
	}
}

func TestLoadReadsPublishSettings(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "secret")
	t.Setenv("GITHUB_REPO", "club/site")
	t.Setenv("GITHUB_BRANCH", "main")
	t.Setenv("GITHUB_API_URL", "https://github.example.com/api/v3/")
	t.Setenv("DATA_BASE_URL", "https://club.example.org/data/")

	cfg := Load()
	if cfg.Publish.Token != "secret" || cfg.Publish.Repo != "club/site" || cfg.Publish.Branch != "main" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Publish.APIBaseURL != "https://github.example.com/api/v3" {
		t.Errorf("APIBaseURL = %q, trailing slash should be trimmed", cfg.Publish.APIBaseURL)
	}
	if cfg.DataBaseURL != "https://club.example.org/data" {
		t.Errorf("DataBaseURL = %q", cfg.DataBaseURL)
	}
}

func TestPublishConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         PublishConfig
		wantErr     bool
		wantMention string
	}{
		{
			name: "complete",
			cfg:  PublishConfig{Token: "t", Repo: "owner/name", Branch: "main"},
		},
		{
			name:        "missing token",
			cfg:         PublishConfig{Repo: "owner/name", Branch: "main"},
			wantErr:     true,
			wantMention: "GITHUB_TOKEN",
		},
		{
			name:        "missing branch",
			cfg:         PublishConfig{Token: "t", Repo: "owner/name"},
			wantErr:     true,
			wantMention: "GITHUB_BRANCH",
		},
		{
			name:        "repo without owner",
			cfg:         PublishConfig{Token: "t", Repo: "name", Branch: "main"},
			wantErr:     true,
			wantMention: "GITHUB_REPO",
		},
		{
			name:        "repo with empty name",
			cfg:         PublishConfig{Token: "t", Repo: "owner/", Branch: "main"},
			wantErr:     true,
			wantMention: "GITHUB_REPO",
		},
		{
			name: "local repository needs only a branch",
			cfg:  PublishConfig{LocalRepoPath: "/srv/site.git", Branch: "main"},
		},
		{
			name:        "local repository without branch",
			cfg:         PublishConfig{LocalRepoPath: "/srv/site.git"},
			wantErr:     true,
			wantMention: "GITHUB_BRANCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, apperrors.ErrConfig) {
				t.Errorf("Validate() error = %v, want a configuration error", err)
			}
			if !strings.Contains(err.Error(), tt.wantMention) {
				t.Errorf("Validate() error = %q, want it to mention %s", err.Error(), tt.wantMention)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("CLUBSITE_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CLUBSITE_TEST_VALUE", "")
	os.Unsetenv("CLUBSITE_TEST_VALUE")

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("CLUBSITE_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("CLUBSITE_TEST_VALUE = %q, want from-dotenv", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v, want nil", err)
	}

	// a directory exists but cannot be read as a file
	if err := LoadDotEnv(dir); err == nil {
		t.Error("LoadDotEnv(directory) error = nil, want an error")
	}
}
