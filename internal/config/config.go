// Package config loads the process configuration once at start-up.
//
// Sources, lowest to highest precedence: built-in defaults, a YAML file,
// a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/srag/pkg/domain"
)

// DefaultPath is read when present and no path is given.
const DefaultPath = "srag.yaml"

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// Environment variables that override file values.
const (
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvOpenAIModel    = "OPENAI_MODEL"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvTavilyKey      = "TAVILY_API_KEY"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvAuditPath      = "SRAG_AUDIT_PATH"
	EnvRedisAddr      = "SRAG_REDIS_ADDR"
	EnvDataDictionary = "SRAG_DATA_DICTIONARY"
	EnvExternalTO     = "SRAG_EXTERNAL_TIMEOUT"
	EnvMaxInputSize   = "SRAG_MAX_INPUT_SIZE"
)

// OpenAI configures the chat model behind every generating node.
type OpenAI struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model" validate:"required"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
}

// Tavily configures the news search client. An empty key disables news.
type Tavily struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
	Depth      string `yaml:"search_depth" validate:"oneof=basic advanced"`
	MaxResults int    `yaml:"max_results" validate:"gte=1,lte=20"`
}

// Database points at the Postgres holding srag_cases.
type Database struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns" validate:"gte=0"`
}

// Audit selects where node events are recorded.
type Audit struct {
	// Path of the JSON Lines file. Empty disables the file sink.
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisKey  string `yaml:"redis_key" validate:"required_with=RedisAddr"`
	RedisDB   int    `yaml:"redis_db" validate:"gte=0"`
	// MaskPatterns are regular expressions masked in recorded events.
	MaskPatterns []string `yaml:"mask_patterns"`
}

// Guardrail tunes the input and query checks.
type Guardrail struct {
	OnClassifierUnavailable string   `yaml:"on_classifier_unavailable" validate:"oneof=permit deny"`
	AllowedTables           []string `yaml:"allowed_tables" validate:"omitempty,dive,required"`
}

// HTTP configures the serve command.
type HTTP struct {
	Addr      string  `yaml:"addr" validate:"required"`
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=1"`
}

// Observability toggles metrics and tracing.
type Observability struct {
	Metrics  bool   `yaml:"metrics"`
	Tracing  bool   `yaml:"tracing"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Config is constructed once and passed by reference.
type Config struct {
	OpenAI         OpenAI    `yaml:"openai"`
	Tavily         Tavily    `yaml:"tavily"`
	Database       Database  `yaml:"database"`
	Audit          Audit     `yaml:"audit"`
	DataDictionary string    `yaml:"data_dictionary"`
	Guardrail      Guardrail `yaml:"guardrail"`
	// ExternalTimeout bounds each node. Zero means no bound.
	ExternalTimeout time.Duration `yaml:"external_timeout" validate:"gte=0"`
	// MaxInputSize bounds a question in bytes before it reaches the machine.
	MaxInputSize  int             `yaml:"max_input_size" validate:"gte=1"`
	Messages      domain.Messages `yaml:"messages"`
	HTTP          HTTP            `yaml:"http"`
	Observability Observability   `yaml:"observability"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAI{
			Model:       "gpt-4o-mini",
			Temperature: 0,
		},
		Tavily: Tavily{
			Depth:      "basic",
			MaxResults: 5,
		},
		Audit: Audit{
			Path:     "audit_log.jsonl",
			RedisKey: "srag:audit",
		},
		Guardrail: Guardrail{
			OnClassifierUnavailable: "permit",
		},
		Messages:     domain.DefaultMessages(),
		MaxInputSize: 4096,
		HTTP: HTTP{
			Addr:      ":8080",
			RateLimit: 5,
			Burst:     10,
		},
		Observability: Observability{
			Metrics:  true,
			LogLevel: "info",
		},
	}
}

type options struct {
	envFile string
	lookup  func(string) (string, bool)
}

// Option configures Load.
type Option func(*options)

// WithEnvFile selects the dotenv file. An empty name disables it.
func WithEnvFile(name string) Option {
	return func(o *options) { o.envFile = name }
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(o *options) { o.lookup = fn }
}

// Load builds the configuration. An empty path reads DefaultPath when it
// exists; an explicit path must exist.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{envFile: DefaultEnvFile, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}

	if o.envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.envFile, err)
		}
	}
	if err := cfg.applyEnv(o.lookup); err != nil {
		return nil, err
	}

	cfg.Messages = cfg.Messages.Merge(domain.DefaultMessages())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		EnvOpenAIKey:      &c.OpenAI.APIKey,
		EnvOpenAIModel:    &c.OpenAI.Model,
		EnvOpenAIBaseURL:  &c.OpenAI.BaseURL,
		EnvTavilyKey:      &c.Tavily.APIKey,
		EnvDatabaseURL:    &c.Database.URL,
		EnvAuditPath:      &c.Audit.Path,
		EnvRedisAddr:      &c.Audit.RedisAddr,
		EnvDataDictionary: &c.DataDictionary,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvExternalTO); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			secs, serr := strconv.Atoi(v)
			if serr != nil {
				return fmt.Errorf("invalid %s %q: %w", EnvExternalTO, v, err)
			}
			d = time.Duration(secs) * time.Second
		}
		c.ExternalTimeout = d
	}

	if v, ok := lookup(EnvMaxInputSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxInputSize, v, err)
		}
		c.MaxInputSize = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
