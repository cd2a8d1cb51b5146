// Package config loads and validates the miner configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SlowMemPolicy selects how scratchpad memory is obtained.
type SlowMemPolicy int

const (
	// SlowMemNever requires locked memory; allocation failure is fatal.
	SlowMemNever SlowMemPolicy = iota
	// SlowMemNoLock allocates without locking pages.
	SlowMemNoLock
	// SlowMemWarn tries locked memory first and falls back with a warning.
	SlowMemWarn
	// SlowMemAlways uses plain allocations with no locking attempt.
	SlowMemAlways
)

var slowMemNames = map[string]SlowMemPolicy{
	"never":   SlowMemNever,
	"no_mlck": SlowMemNoLock,
	"warn":    SlowMemWarn,
	"always":  SlowMemAlways,
}

// String returns the configuration spelling of the policy.
func (p SlowMemPolicy) String() string {
	for name, v := range slowMemNames {
		if v == p {
			return name
		}
	}
	return "unknown"
}

// UnmarshalYAML parses the policy from its configuration spelling.
func (p *SlowMemPolicy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, ok := slowMemNames[s]
	if !ok {
		return fmt.Errorf("unknown use_slow_memory value %q", s)
	}
	*p = v
	return nil
}

// MarshalYAML emits the configuration spelling of the policy.
func (p SlowMemPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// ThreadConfig describes one mining thread.
type ThreadConfig struct {
	// Multiway is the batch width: 1, 2, 4, 5 or 6 hashes per call.
	Multiway int `yaml:"multiway"`
	// Affinity is the CPU to pin the thread to; negative means unpinned.
	Affinity int `yaml:"affinity"`
}

// MinerConfig configures the mining engine.
type MinerConfig struct {
	UseSlowMemory SlowMemPolicy  `yaml:"use_slow_memory"`
	NiceHash      bool           `yaml:"nicehash"`
	Threads       []ThreadConfig `yaml:"threads"`
}

// MonitoringConfig configures the Prometheus exporter.
type MonitoringConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Mining     MinerConfig      `yaml:"mining"`
}

// Default returns a configuration with thread entries autodetected from the
// host CPU.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Monitoring: MonitoringConfig{
			Enabled:    false,
			ListenAddr: ":9090",
		},
		Mining: MinerConfig{
			UseSlowMemory: SlowMemWarn,
			Threads:       autoThreads(),
		},
	}
}

// Load reads a YAML configuration file. Missing thread entries are filled in
// by autodetection.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	cfg.Mining.Threads = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Mining.Threads) == 0 {
		cfg.Mining.Threads = autoThreads()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks thread entries for usable widths.
func (c *Config) Validate() error {
	if len(c.Mining.Threads) == 0 {
		return fmt.Errorf("no mining threads configured")
	}
	for i, thd := range c.Mining.Threads {
		switch thd.Multiway {
		case 1, 2, 4, 5, 6:
		default:
			return fmt.Errorf("thread %d: invalid multiway %d (want 1, 2, 4, 5 or 6)", i, thd.Multiway)
		}
	}
	return nil
}
