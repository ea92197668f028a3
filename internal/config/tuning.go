package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Tuning holds runtime knobs that can change without a restart.
type Tuning struct {
	Cache  CacheTuning  `mapstructure:"cache"`
	Search SearchTuning `mapstructure:"search"`
}

type CacheTuning struct {
	ViewTTLSeconds   int `mapstructure:"viewTTLSeconds"`
	SearchTTLSeconds int `mapstructure:"searchTTLSeconds"`
}

type SearchTuning struct {
	DefaultLimit   int     `mapstructure:"defaultLimit"`
	RatePerSecond  float64 `mapstructure:"ratePerSecond"`
	Burst          int     `mapstructure:"burst"`
	RateLimitByKey string  `mapstructure:"rateLimitByKey"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Cache: CacheTuning{
			ViewTTLSeconds:   3600,
			SearchTTLSeconds: 300,
		},
		Search: SearchTuning{
			DefaultLimit:   10,
			RatePerSecond:  5,
			Burst:          20,
			RateLimitByKey: "client_ip",
		},
	}
}

type TuningHolder struct {
	current atomic.Value // holds Tuning
}

// NewStaticTuningHolder returns a holder that never reloads.
func NewStaticTuningHolder(t Tuning) *TuningHolder {
	holder := &TuningHolder{}
	holder.current.Store(t)
	return holder
}

func NewTuningHolder() (*TuningHolder, error) {
	v := viper.New()

	v.SetConfigName("tuning")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/open-swiss-buildings")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OSB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultTuning()
	v.SetDefault("tuning.cache.viewTTLSeconds", defaults.Cache.ViewTTLSeconds)
	v.SetDefault("tuning.cache.searchTTLSeconds", defaults.Cache.SearchTTLSeconds)
	v.SetDefault("tuning.search.defaultLimit", defaults.Search.DefaultLimit)
	v.SetDefault("tuning.search.ratePerSecond", defaults.Search.RatePerSecond)
	v.SetDefault("tuning.search.burst", defaults.Search.Burst)
	v.SetDefault("tuning.search.rateLimitByKey", defaults.Search.RateLimitByKey)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg Tuning
	if err := v.UnmarshalKey("tuning", &cfg); err != nil {
		return nil, err
	}
	if err := validateTuning(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticTuningHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Tuning
		if err := v.UnmarshalKey("tuning", &updated); err != nil {
			log.Printf("[tuning] reload failed: %v", err)
			return
		}
		if err := validateTuning(updated); err != nil {
			log.Printf("[tuning] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[tuning] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *TuningHolder) Get() Tuning {
	if h == nil {
		return DefaultTuning()
	}
	return h.current.Load().(Tuning)
}

func validateTuning(cfg Tuning) error {
	if cfg.Cache.ViewTTLSeconds < 0 || cfg.Cache.SearchTTLSeconds < 0 {
		return errors.New("tuning.cache ttl cannot be negative")
	}
	if cfg.Search.DefaultLimit < 1 || cfg.Search.DefaultLimit > 100 {
		return errors.New("tuning.search.defaultLimit must be between 1 and 100")
	}
	if cfg.Search.RatePerSecond <= 0 || cfg.Search.Burst <= 0 {
		return errors.New("tuning.search rate and burst must be positive")
	}
	return nil
}
