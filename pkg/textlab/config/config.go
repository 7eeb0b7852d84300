// Package config loads pipeline configuration from YAML files with
// TEXTLAB_* environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
)

// Config is the top-level configuration.
type Config struct {
	Pipeline Pipeline      `yaml:"pipeline"`
	Source   SourceConfig  `yaml:"source"`
	Store    StoreConfig   `yaml:"store"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// Pipeline holds every option recognised by the analysis pipeline.
// A nil StopWords selects the built-in English list; an empty list disables
// stop-word filtering.
type Pipeline struct {
	AllowedCategories     []string `yaml:"allowed_categories"`
	StopWords             []string `yaml:"stop_words"`
	MinTokenLength        int      `yaml:"min_token_length"`
	TokenMustBeAlphabetic bool     `yaml:"token_must_be_alphabetic"`
	TopicCount            int      `yaml:"topic_count"`
	TopTermsPerTopic      int      `yaml:"top_terms_per_topic"`
	RandomSeed            int64    `yaml:"random_seed"`
	QueryTerms            []string `yaml:"query_terms"`
}

// SourceConfig says where document records come from.
type SourceConfig struct {
	Dir   string `yaml:"dir"`   // directory of Guardian day files
	JSONL string `yaml:"jsonl"` // JSONL file of {id, category, text} records
}

// StoreConfig controls persistence of pipeline runs.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultCategories are the Guardian sections analysed when no
// allowed_categories key is configured. An explicit empty list keeps every
// category.
var DefaultCategories = []string{
	"society", "media", "business", "us-news", "australia-news", "world",
	"law", "global", "global-development", "politics", "news", "uk-news",
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: Pipeline{
			AllowedCategories:     append([]string(nil), DefaultCategories...),
			MinTokenLength:        3,
			TokenMustBeAlphabetic: true,
			TopicCount:            4,
			TopTermsPerTopic:      10,
			RandomSeed:            0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file (if provided) over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on values the pipeline cannot run with.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.MinTokenLength < 1 {
		return fmt.Errorf("%w: min_token_length must be at least 1, got %d", internalerr.ErrInvalidConfig, p.MinTokenLength)
	}
	if p.TopicCount <= 0 {
		return fmt.Errorf("%w: topic_count must be positive, got %d", internalerr.ErrInvalidConfig, p.TopicCount)
	}
	if p.TopTermsPerTopic <= 0 {
		return fmt.Errorf("%w: top_terms_per_topic must be positive, got %d", internalerr.ErrInvalidConfig, p.TopTermsPerTopic)
	}
	return nil
}

// applyEnvOverrides reads TEXTLAB_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TEXTLAB_ALLOWED_CATEGORIES"); v != "" {
		cfg.Pipeline.AllowedCategories = splitList(v)
	}
	if v := os.Getenv("TEXTLAB_QUERY_TERMS"); v != "" {
		cfg.Pipeline.QueryTerms = splitList(v)
	}
	if v := os.Getenv("TEXTLAB_TOPIC_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TEXTLAB_TOPIC_COUNT: %v", internalerr.ErrInvalidConfig, err)
		}
		cfg.Pipeline.TopicCount = n
	}
	if v := os.Getenv("TEXTLAB_RANDOM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TEXTLAB_RANDOM_SEED: %v", internalerr.ErrInvalidConfig, err)
		}
		cfg.Pipeline.RandomSeed = n
	}
	if v := os.Getenv("TEXTLAB_SOURCE_DIR"); v != "" {
		cfg.Source.Dir = v
	}
	if v := os.Getenv("TEXTLAB_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TEXTLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TEXTLAB_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
