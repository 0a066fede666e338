// Package config resolves runtime settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of precedence
// (later wins). CLI flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Gemini struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	// DisableMaps keeps Google Search grounding only.
	DisableMaps bool `yaml:"disable_maps"`
}

type HTTP struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Session struct {
	Backend   string        `yaml:"backend"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type Search struct {
	EnrichBatchSize int     `yaml:"enrich_batch_size"`
	Workers         int     `yaml:"workers"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"`
}

type Config struct {
	Gemini   Gemini  `yaml:"gemini"`
	HTTP     HTTP    `yaml:"http"`
	Session  Session `yaml:"session"`
	Search   Search  `yaml:"search"`
	LogLevel string  `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Gemini:   Gemini{Model: "gemini-2.5-flash"},
		HTTP:     HTTP{Addr: ":8080"},
		Session:  Session{Backend: BackendMemory, RedisAddr: "localhost:6379", TTL: 24 * time.Hour},
		Search:   Search{EnrichBatchSize: 25, Workers: 4},
		LogLevel: "info",
	}
}

type LoadOptions struct {
	// ConfigPath is an optional YAML file. Empty falls back to
	// $LEADFINDER_CONFIG; if that is empty too no file is read.
	ConfigPath string
	// EnvFile is loaded into the process environment if it exists. Variables
	// already set are not overridden. Empty means ".env".
	EnvFile string
}

// Load resolves the configuration.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()

	path := opts.ConfigPath
	if path == "" {
		path = strings.TrimSpace(os.Getenv("LEADFINDER_CONFIG"))
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	envString("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	envString("GEMINI_MODEL", &cfg.Gemini.Model)
	envString("GEMINI_BASE_URL", &cfg.Gemini.BaseURL)
	envString("HTTP_ADDR", &cfg.HTTP.Addr)
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	envString("SESSION_BACKEND", &cfg.Session.Backend)
	envString("REDIS_ADDR", &cfg.Session.RedisAddr)
	envString("LOG_LEVEL", &cfg.LogLevel)

	var err error
	if v := strings.TrimSpace(os.Getenv("GEMINI_DISABLE_MAPS")); v != "" {
		if cfg.Gemini.DisableMaps, err = envBool("GEMINI_DISABLE_MAPS"); err != nil {
			return err
		}
	}
	if cfg.Session.TTL, err = envDuration("SESSION_TTL", cfg.Session.TTL); err != nil {
		return err
	}
	if cfg.Search.EnrichBatchSize, err = envInt("ENRICH_BATCH_SIZE", cfg.Search.EnrichBatchSize); err != nil {
		return err
	}
	if cfg.Search.Workers, err = envInt("WORKERS", cfg.Search.Workers); err != nil {
		return err
	}
	if cfg.Search.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Search.RateLimitRPS); err != nil {
		return err
	}
	return nil
}

// Validate checks settings that do not depend on which command runs. The API
// key is checked by the commands that call the model.
func (c Config) Validate() error {
	var errs []error
	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("invalid session backend %q (want %s or %s)", c.Session.Backend, BackendMemory, BackendRedis))
	}
	if c.Session.Backend == BackendRedis && strings.TrimSpace(c.Session.RedisAddr) == "" {
		errs = append(errs, errors.New("redis address is required for the redis session backend"))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("invalid session ttl %s", c.Session.TTL))
	}
	if c.Search.EnrichBatchSize < 0 {
		errs = append(errs, fmt.Errorf("invalid enrich batch size %d", c.Search.EnrichBatchSize))
	}
	if c.Search.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid workers %d", c.Search.Workers))
	}
	if c.Search.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("invalid rate limit %g", c.Search.RateLimitRPS))
	}
	return errors.Join(errs...)
}

// RequireAPIKey reports a config error when no Gemini key is set.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envString(varName string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		*dst = v
	}
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
