package config

import (
	"fmt"

	"github.com/cognicore/textlab/pkg/textlab/stoplist"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath   string
	StoplistPath string
}

// Components holds all loaded configuration components
type Components struct {
	Config    *Config
	Stopwords *stoplist.Manager
}

// Load reads the configuration files and returns initialized components.
// Stop-words come from the stoplist file when given, else from
// pipeline.stop_words, else from the built-in English list.
func (l *Loader) Load() (*Components, error) {
	cfg, err := Load(l.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{Config: cfg}
	switch {
	case l.StoplistPath != "":
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stopwords = stoplist.NewManager(sl.Terms)
	case cfg.Pipeline.StopWords != nil:
		comp.Stopwords = stoplist.NewManager(cfg.Pipeline.StopWords)
	default:
		comp.Stopwords = stoplist.NewManager(stoplist.English())
	}
	return comp, nil
}
