// Package config loads the server configuration.
//
// PRECEDENCE (lowest to highest):
//  1. built-in defaults
//  2. a .env file (optional, via github.com/joho/godotenv)
//  3. real environment variables
//  4. command-line flags (github.com/spf13/pflag)
//
// godotenv never overrides a variable that is already set, which is what
// gives real environment variables priority over the .env file.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"

	minStateSecretLen = 16
)

type Config struct {
	Port     int
	Env      string
	LogLevel string

	GitHub      GitHubConfig
	FrontendURL string

	// StateSecret signs the OAuth state parameter. A random one is
	// generated when unset, which invalidates in-flight logins on restart.
	StateSecret string

	Session SessionConfig
	AI      AIConfig

	// SummaryConcurrency caps parallel text-generation calls per summary
	// request. 1 processes files one after another.
	SummaryConcurrency int
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	APIURL       string // empty means https://api.github.com/
}

type SessionConfig struct {
	Store      string // "memory", "sqlite" or "redis"
	TTL        time.Duration
	MaxEntries int    // memory only
	DBPath     string // sqlite only
	RedisURL   string // redis only, e.g. redis://localhost:6379/0
}

type AIConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// Load builds a Config from args (normally os.Args[1:]), the environment
// and an optional .env file.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "Path to a .env file")
	port := flags.Int("port", 0, "HTTP listen port (overrides PORT)")
	frontendURL := flags.String("frontend-url", "", "Client application URL (overrides FRONTEND_URL)")
	sessionStore := flags.String("session-store", "", "Session backend: memory, sqlite or redis (overrides SESSION_STORE)")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parsing flags: %w", err)
	}

	if err := loadEnvFile(*envFile, flags.Changed("env-file")); err != nil {
		return Config{}, err
	}

	var errs []error
	cfg := Config{
		Port:        getEnvInt("PORT", 3001, &errs),
		Env:         getEnv("APP_ENV", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		StateSecret: getEnv("STATE_SECRET", ""),
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),
			APIURL:       getEnv("GITHUB_API_URL", ""),
		},
		Session: SessionConfig{
			Store:      getEnv("SESSION_STORE", SessionStoreMemory),
			TTL:        getEnvDuration("SESSION_TTL", 24*time.Hour, &errs),
			MaxEntries: getEnvInt("SESSION_MAX", 10000, &errs),
			DBPath:     getEnv("DB_PATH", "data/sessions.db"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		AI: AIConfig{
			Provider: getEnv("AI_PROVIDER", "openai"),
			APIKey:   getEnv("AI_API_KEY", ""),
			Model:    getEnv("AI_MODEL", ""),
			BaseURL:  getEnv("AI_BASE_URL", ""),
		},
		SummaryConcurrency: getEnvInt("SUMMARY_CONCURRENCY", 1, &errs),
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("frontend-url") {
		cfg.FrontendURL = *frontendURL
	}
	if flags.Changed("session-store") {
		cfg.Session.Store = *sessionStore
	}

	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if cfg.StateSecret == "" {
		cfg.StateSecret = rand.Text()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.GitHub.ClientID == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID is required"))
	}
	if c.GitHub.ClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_SECRET is required"))
	}
	if len(c.StateSecret) < minStateSecretLen {
		errs = append(errs, fmt.Errorf("STATE_SECRET must be at least %d characters", minStateSecretLen))
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreSQLite, SessionStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %q, %q or %q, got %q",
			SessionStoreMemory, SessionStoreSQLite, SessionStoreRedis, c.Session.Store))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.MaxEntries <= 0 {
		errs = append(errs, errors.New("SESSION_MAX must be positive"))
	}
	switch strings.ToLower(c.AI.Provider) {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be openai or gemini, got %q", c.AI.Provider))
	}
	if c.SummaryConcurrency < 1 {
		errs = append(errs, errors.New("SUMMARY_CONCURRENCY must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// loadEnvFile loads path into the process environment. A missing default
// file is fine; a missing file the user asked for explicitly is not.
func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("config: loading %s: %w", path, err)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}
