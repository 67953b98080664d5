// Package config loads the module's YAML configuration and converts it
// into the typed configs of the cache, breeding, mutation, and observe
// packages. Unknown fields are tolerated; invalid values are rejected
// with descriptive errors.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verdantlabs/phenocache/breeding"
	"github.com/verdantlabs/phenocache/cache"
	"github.com/verdantlabs/phenocache/mutation"
	"github.com/verdantlabs/phenocache/observe"
)

// Duration wraps time.Duration so YAML values like "30m" parse directly.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// TierConfig bounds one cache tier.
type TierConfig struct {
	TTL           Duration `yaml:"ttl"`
	MaxEntries    int      `yaml:"max_entries"`
	EvictionBatch int      `yaml:"eviction_batch"`
}

// CacheConfig configures the cache orchestrator.
type CacheConfig struct {
	Exact                   TierConfig `yaml:"exact"`
	Similarity              TierConfig `yaml:"similarity"`
	Pattern                 TierConfig `yaml:"pattern"`
	SimilarityThreshold     float64    `yaml:"similarity_threshold"`
	PatternOverlapThreshold float64    `yaml:"pattern_overlap_threshold"`
	PromoteThreshold        float64    `yaml:"promote_threshold"`
	OptimizeInterval        Duration   `yaml:"optimize_interval"`
	LatencySampleCap        int        `yaml:"latency_sample_cap"`
}

// BreedingConfig configures the breeding engine.
type BreedingConfig struct {
	BaseMutationRate float64 `yaml:"base_mutation_rate"`
	MinViableFitness float64 `yaml:"min_viable_fitness"`
	MaxOffspring     int     `yaml:"max_offspring"`
}

// MutationConfig configures the mutation engine.
type MutationConfig struct {
	MaxMagnitude   float64 `yaml:"max_magnitude"`
	NeutralDamping float64 `yaml:"neutral_damping"`
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	ServiceName   string  `yaml:"service_name"`
	Version       string  `yaml:"version"`
	LogEnabled    bool    `yaml:"log_enabled"`
	LogLevel      string  `yaml:"log_level"`
	TraceExport   string  `yaml:"trace_exporter"`
	SamplePct     float64 `yaml:"sample_pct"`
	MetricsExport string  `yaml:"metrics_exporter"`
}

// Config is the root of the YAML tree.
type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	Breeding BreedingConfig `yaml:"breeding"`
	Mutation MutationConfig `yaml:"mutation"`
	Observe  ObserveConfig  `yaml:"observe"`
}

// Default returns the production defaults, mirroring each package's own
// DefaultConfig.
func Default() Config {
	cacheDefaults := cache.DefaultConfig()
	breedingDefaults := breeding.DefaultConfig()
	mutationDefaults := mutation.DefaultConfig()

	return Config{
		Cache: CacheConfig{
			Exact: TierConfig{
				TTL:        Duration(cacheDefaults.Exact.TTL),
				MaxEntries: cacheDefaults.Exact.MaxEntries,
			},
			Similarity: TierConfig{
				TTL:        Duration(cacheDefaults.Similarity.TTL),
				MaxEntries: cacheDefaults.Similarity.MaxEntries,
			},
			Pattern: TierConfig{
				TTL:        Duration(cacheDefaults.Pattern.TTL),
				MaxEntries: cacheDefaults.Pattern.MaxEntries,
			},
			SimilarityThreshold:     cacheDefaults.SimilarityThreshold,
			PatternOverlapThreshold: cacheDefaults.PatternOverlapThreshold,
			PromoteThreshold:        cacheDefaults.PromoteThreshold,
			OptimizeInterval:        Duration(cacheDefaults.OptimizeInterval),
			LatencySampleCap:        cacheDefaults.LatencySampleCap,
		},
		Breeding: BreedingConfig{
			BaseMutationRate: breedingDefaults.BaseMutationRate,
			MinViableFitness: breedingDefaults.MinViableFitness,
			MaxOffspring:     breedingDefaults.MaxOffspring,
		},
		Mutation: MutationConfig{
			MaxMagnitude:   mutationDefaults.MaxMagnitude,
			NeutralDamping: mutationDefaults.NeutralDamping,
		},
		Observe: ObserveConfig{
			ServiceName:   "phenocache",
			LogEnabled:    true,
			LogLevel:      "info",
			TraceExport:   "none",
			SamplePct:     1.0,
			MetricsExport: "none",
		},
	}
}

// Parse unmarshals YAML over the defaults and validates the result, so a
// partial document only overrides what it names.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate delegates to each package's own validation through the typed
// conversions.
func (c Config) Validate() error {
	if err := c.CacheConfig().Validate(); err != nil {
		return err
	}
	if err := c.BreedingConfig().Validate(); err != nil {
		return err
	}
	if err := c.MutationConfig().Validate(); err != nil {
		return err
	}
	observeCfg := c.ObserveConfig()
	if err := observeCfg.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}
	return nil
}

// CacheConfig converts into the cache package's configuration.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Exact:                   c.Cache.Exact.tierPolicy(),
		Similarity:              c.Cache.Similarity.tierPolicy(),
		Pattern:                 c.Cache.Pattern.tierPolicy(),
		SimilarityThreshold:     c.Cache.SimilarityThreshold,
		PatternOverlapThreshold: c.Cache.PatternOverlapThreshold,
		PromoteThreshold:        c.Cache.PromoteThreshold,
		OptimizeInterval:        time.Duration(c.Cache.OptimizeInterval),
		LatencySampleCap:        c.Cache.LatencySampleCap,
	}
}

func (t TierConfig) tierPolicy() cache.TierPolicy {
	return cache.TierPolicy{
		TTL:           time.Duration(t.TTL),
		MaxEntries:    t.MaxEntries,
		EvictionBatch: t.EvictionBatch,
	}
}

// BreedingConfig converts into the breeding package's configuration.
func (c Config) BreedingConfig() breeding.Config {
	return breeding.Config{
		BaseMutationRate: c.Breeding.BaseMutationRate,
		MinViableFitness: c.Breeding.MinViableFitness,
		MaxOffspring:     c.Breeding.MaxOffspring,
	}
}

// MutationConfig converts into the mutation package's configuration.
func (c Config) MutationConfig() mutation.Config {
	return mutation.Config{
		MaxMagnitude:   c.Mutation.MaxMagnitude,
		NeutralDamping: c.Mutation.NeutralDamping,
	}
}

// ObserveConfig converts into the observe package's configuration.
func (c Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Version:     c.Observe.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.TraceExport != "" && c.Observe.TraceExport != "none",
			Exporter:  c.Observe.TraceExport,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.MetricsExport != "" && c.Observe.MetricsExport != "none",
			Exporter: c.Observe.MetricsExport,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observe.LogEnabled,
			Level:   c.Observe.LogLevel,
		},
	}
}
