package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MatchingConfig controls the fuzzy-match and staleness policy. Scores are
// normalized similarity values in [0,100]; 100 is reserved for an exact
// normalized-name match and always auto-accepts.
type MatchingConfig struct {
	SuggestThreshold int           `mapstructure:"suggestThreshold"`
	TopK             int           `mapstructure:"topK"`
	StaleAfter       time.Duration `mapstructure:"staleAfter"`
	ReportCost       int64         `mapstructure:"reportCost"`
	SuggestionCost   int64         `mapstructure:"suggestionCost"`
}

func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		SuggestThreshold: 78,
		TopK:             5,
		StaleAfter:       7 * 24 * time.Hour,
		ReportCost:       1,
		SuggestionCost:   1,
	}
}

type MatchingConfigHolder struct {
	current atomic.Value // holds MatchingConfig
}

func NewMatchingConfigHolder() (*MatchingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("matching")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/scoutbase/config")
	v.AddConfigPath("/etc/scoutbase")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCOUTBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultMatchingConfig()
		v.SetDefault("matching.suggestThreshold", defaults.SuggestThreshold)
		v.SetDefault("matching.topK", defaults.TopK)
		v.SetDefault("matching.staleAfter", defaults.StaleAfter)
		v.SetDefault("matching.reportCost", defaults.ReportCost)
		v.SetDefault("matching.suggestionCost", defaults.SuggestionCost)
	}

	var cfg MatchingConfig
	if err := v.UnmarshalKey("matching", &cfg); err != nil {
		return nil, err
	}
	if err := validateMatchingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MatchingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MatchingConfig
		if err := v.UnmarshalKey("matching", &updated); err != nil {
			log.Printf("[matching-config] reload failed: %v", err)
			return
		}
		if err := validateMatchingConfig(updated); err != nil {
			log.Printf("[matching-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[matching-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *MatchingConfigHolder) Get() MatchingConfig {
	return h.current.Load().(MatchingConfig)
}

// NewStaticMatchingConfigHolder returns a holder with a fixed config, used by tests.
func NewStaticMatchingConfigHolder(cfg MatchingConfig) *MatchingConfigHolder {
	holder := &MatchingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateMatchingConfig(cfg MatchingConfig) error {
	if cfg.SuggestThreshold <= 0 || cfg.SuggestThreshold >= 100 {
		return errors.New("matching.suggestThreshold must be in (0,100)")
	}
	if cfg.TopK <= 0 {
		return errors.New("matching.topK must be positive")
	}
	if cfg.StaleAfter <= 0 {
		return errors.New("matching.staleAfter must be positive")
	}
	if cfg.ReportCost <= 0 || cfg.SuggestionCost <= 0 {
		return errors.New("matching credit costs must be positive")
	}
	return nil
}
