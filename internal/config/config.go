// Package config loads service settings from a YAML file, .env files and
// the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no file is named explicitly.
const DefaultPath = "gashu.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Providers ProvidersConfig `yaml:"providers"`
	Stations  StationsConfig  `yaml:"stations"`
	Engine    EngineConfig    `yaml:"engine"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Dir    string      `yaml:"dir"`
	Redis  RedisConfig `yaml:"redis"`
	// EncryptionKey is a 32-byte AES key; empty stores plaintext.
	EncryptionKey string `yaml:"encryption_key"`
	HistoryLimit  int    `yaml:"history_limit"`

	// RedactPatterns are masked in dialogue logs before saving.
	RedactPatterns []string `yaml:"redact_patterns"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type LLMConfig struct {
	Model           string `yaml:"model"`
	ClassifierModel string `yaml:"classifier_model"`
	BaseURL         string `yaml:"base_url"`
	OpenAIKey       string `yaml:"openai_key"`
	AnthropicKey    string `yaml:"anthropic_key"`
	MaxTokens       int    `yaml:"max_tokens"`
}

type ProvidersConfig struct {
	KakaoKey  string        `yaml:"kakao_key"`
	TmapKey   string        `yaml:"tmap_key"`
	DataGoKey string        `yaml:"data_go_key"`
	CityCode  string        `yaml:"city_code"`
	Timeout   time.Duration `yaml:"timeout"`
}

type StationsConfig struct {
	SQLite      string `yaml:"sqlite"`
	PostgresURL string `yaml:"postgres_url"`
}

type EngineConfig struct {
	MaxCascade  int           `yaml:"max_cascade"`
	MaxSteps    int           `yaml:"max_steps"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000"},
		Store: StoreConfig{
			Driver:         DriverMemory,
			Dir:            ".gashu/sessions",
			Redis:          RedisConfig{Addr: "localhost:6379", Prefix: "gashu:session:", TTL: 24 * time.Hour},
			HistoryLimit:   40,
			RedactPatterns: []string{`0\d{1,2}-?\d{3,4}-?\d{4}`},
		},
		LLM: LLMConfig{
			Model:           "openai/gpt-3.5-turbo",
			ClassifierModel: "openai/gpt-4o",
			MaxTokens:       512,
		},
		Providers: ProvidersConfig{CityCode: "33010", Timeout: 10 * time.Second},
		Engine: EngineConfig{
			MaxCascade:  3,
			MaxSteps:    12,
			CallTimeout: 15 * time.Second,
			LockTTL:     30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then .env and .env.local, then the
// environment. A missing file is not an error unless it was named
// explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if k := len(c.Store.EncryptionKey); k != 0 && k != 32 {
		return fmt.Errorf("encryption key must be 32 bytes, got %d", k)
	}
	if c.Engine.MaxCascade <= 0 || c.Engine.MaxSteps <= 0 {
		return fmt.Errorf("engine limits must be positive")
	}
	for _, p := range c.Store.RedactPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	var errs []string
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}

	str(&c.Server.Addr, "GASHU_ADDR")
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if v, ok := lookup("GASHU_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	str(&c.Store.Driver, "GASHU_STORE")
	str(&c.Store.Dir, "GASHU_STORE_DIR")
	str(&c.Store.Redis.Addr, "REDIS_ADDR")
	str(&c.Store.Redis.Password, "REDIS_PASSWORD")
	num(&c.Store.Redis.DB, "REDIS_DB")
	str(&c.Store.Redis.Prefix, "GASHU_REDIS_PREFIX")
	dur(&c.Store.Redis.TTL, "GASHU_SESSION_TTL")
	str(&c.Store.EncryptionKey, "GASHU_ENCRYPTION_KEY")
	num(&c.Store.HistoryLimit, "GASHU_HISTORY_LIMIT")

	str(&c.LLM.Model, "GASHU_MODEL")
	str(&c.LLM.ClassifierModel, "GASHU_CLASSIFIER_MODEL")
	str(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	str(&c.LLM.OpenAIKey, "OPENAI_API_KEY")
	str(&c.LLM.AnthropicKey, "ANTHROPIC_API_KEY")
	num(&c.LLM.MaxTokens, "GASHU_MAX_TOKENS")

	str(&c.Providers.KakaoKey, "KAKAO_API_KEY")
	str(&c.Providers.TmapKey, "SK_OPENAPI_APPKEY")
	str(&c.Providers.DataGoKey, "DATA_GO_KEY")
	str(&c.Providers.CityCode, "GASHU_CITY_CODE")
	dur(&c.Providers.Timeout, "GASHU_PROVIDER_TIMEOUT")

	str(&c.Stations.SQLite, "SQLITE_DATABASE")
	str(&c.Stations.PostgresURL, "DATABASE_URL")

	num(&c.Engine.MaxCascade, "GASHU_MAX_CASCADE")
	num(&c.Engine.MaxSteps, "GASHU_MAX_STEPS")
	dur(&c.Engine.CallTimeout, "GASHU_CALL_TIMEOUT")
	dur(&c.Engine.LockTTL, "GASHU_LOCK_TTL")

	str(&c.Log.Level, "GASHU_LOG_LEVEL")
	str(&c.Log.Format, "GASHU_LOG_FORMAT")

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
