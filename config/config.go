// Package config loads runtime settings from the environment, with
// optional .env overlays for local development.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// App
	LogLevel string `split_words:"true" default:"info" validate:"oneof=debug info warn error"`

	// GitHub auth: either a personal token or an App credential triple.
	GithubToken          string `split_words:"true"`
	GithubClientID       string `split_words:"true"`
	GithubInstallationID int64  `envconfig:"GITHUB_INSTALLATION_ID"`
	GithubPrivateKey     string `split_words:"true"`

	// Target user
	GithubUsername string `split_words:"true" validate:"required"`

	// Acquisition limits
	MaxRepositories int `split_words:"true" default:"100" validate:"gt=0"`
	CommitsPerRepo  int `split_words:"true" default:"1000" validate:"gt=0"`

	// Rate limiting and retries
	RateLimitBuffer   int           `split_words:"true" default:"100" validate:"gte=0"`
	RateLimitGrace    time.Duration `split_words:"true" default:"10s" validate:"gte=0"`
	RequestsPerSecond int           `split_words:"true" default:"10" validate:"gt=0"`
	RetryAttempts     int           `split_words:"true" default:"3" validate:"gt=0"`
	RetryDelay        time.Duration `split_words:"true" default:"2s" validate:"gt=0"`
	ProbeCacheSize    int           `split_words:"true" default:"256" validate:"gt=0"`

	// Storage
	CacheEnabled bool   `split_words:"true" default:"true"`
	CacheDays    int    `split_words:"true" default:"7" validate:"gte=1"`
	CacheDir     string `split_words:"true" default:"data"`
	OutputDir    string `split_words:"true" default:"output"`
}

// HasAppCredentials reports whether the App credential triple is fully
// set.
func (c Config) HasAppCredentials() bool {
	return c.GithubClientID != "" && c.GithubInstallationID != 0 && c.GithubPrivateKey != ""
}

type Loader struct {
	Prefix   string
	Validate *validator.Validate
}

func NewLoader(prefix string) *Loader {
	return &Loader{Prefix: prefix, Validate: validator.New()}
}

func (l *Loader) Load() (Config, error) {
	var cfg Config

	if err := loadDotEnv(); err != nil {
		log.Printf("dotenv: %v", err)
	}
	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}

	if err := l.Validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	if cfg.GithubToken == "" && !cfg.HasAppCredentials() {
		return cfg, fmt.Errorf("config validation: set GITHUB_TOKEN or the GITHUB_CLIENT_ID/GITHUB_INSTALLATION_ID/GITHUB_PRIVATE_KEY triple")
	}

	log.Printf("config loaded user=%s logLevel=%s cache=%t token_set=%t",
		cfg.GithubUsername, cfg.LogLevel, cfg.CacheEnabled, cfg.GithubToken != "")

	return cfg, nil
}

func loadDotEnv() error {
	files := []string{".env"}

	if appEnv := strings.TrimSpace(os.Getenv("APP_ENV")); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}
	if goEnv := strings.TrimSpace(os.Getenv("GO_ENV")); goEnv != "" && goEnv != os.Getenv("APP_ENV") {
		files = append(files, ".env."+goEnv)
	}

	var loadedAny bool
	for _, f := range files {
		if fileExists(f) {
			if err := godotenv.Overload(f); err != nil {
				log.Printf("dotenv: failed loading %s: %v", f, err)
				continue
			}
			loadedAny = true
		}
	}

	if !loadedAny {
		return fmt.Errorf("no .env files found (looked for: %s)", strings.Join(files, ", "))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
