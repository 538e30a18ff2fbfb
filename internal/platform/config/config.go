package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Moderation ModerationConfig `koanf:"moderation"`
	Probe      ProbeConfig      `koanf:"probe"`
	Cache      CacheConfig      `koanf:"cache"`
	Router     RouterConfig     `koanf:"router"`
}

type ServerConfig struct {
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ModerationConfig struct {
	Threshold float64 `koanf:"threshold"`
	Strict    bool    `koanf:"strict"`
}

type ProbeConfig struct {
	IntervalSecs int `koanf:"interval_secs"`
	TimeoutSecs  int `koanf:"timeout_secs"`
	Concurrency  int `koanf:"concurrency"`
}

func (p ProbeConfig) Interval() time.Duration { return time.Duration(p.IntervalSecs) * time.Second }
func (p ProbeConfig) Timeout() time.Duration  { return time.Duration(p.TimeoutSecs) * time.Second }

type CacheConfig struct {
	Size    int `koanf:"size"`
	TTLSecs int `koanf:"ttl_secs"`
}

func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSecs) * time.Second }

type RouterConfig struct {
	CostReference float64 `koanf:"cost_reference"`
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.port":           8080,
		"server.host":           "0.0.0.0",
		"log.level":             "info",
		"log.format":            "json",
		"moderation.threshold":  0.7,
		"moderation.strict":     false,
		"probe.interval_secs":   30,
		"probe.timeout_secs":    5,
		"probe.concurrency":     10,
		"cache.size":            1024,
		"cache.ttl_secs":        300,
		"router.cost_reference": 0.02,
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Config file is optional, skip if not found
			continue
		}
	}

	// Environment variables override everything
	// VIGIL_SERVER_PORT -> server.port
	_ = k.Load(env.Provider("VIGIL_", ".", func(s string) string {
		// Only the first underscore separates section from key, so
		// multi-word keys like VIGIL_PROBE_INTERVAL_SECS stay reachable.
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "VIGIL_")),
			"_", ".", 1,
		)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
