package config

import "fmt"

// Config holds all engram configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Tiering  TieringConfig  `toml:"tiering"`
	Search   SearchConfig   `toml:"search"`
	HotSet   HotSetConfig   `toml:"hotset"`
	Executor ExecutorConfig `toml:"executor"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// TieringConfig holds the scoring weights and tier thresholds.
// The defaults are hand-tuned, not derived. Treat them as knobs.
type TieringConfig struct {
	RecencyWeight   float64 `toml:"recency_weight"`
	FrequencyWeight float64 `toml:"frequency_weight"`
	TypeWeight      float64 `toml:"type_weight"`

	// RecencyDays is the time constant of the exponential recency decay.
	RecencyDays float64 `toml:"recency_days"`

	// HotThreshold and WarmThreshold split the score range into
	// hot / warm / cold. Must satisfy HotThreshold > WarmThreshold.
	HotThreshold  float64 `toml:"hot_threshold"`
	WarmThreshold float64 `toml:"warm_threshold"`

	// PinnedTypes get PinnedBonus as their type bonus; everything else
	// gets DefaultBonus.
	PinnedTypes  []string `toml:"pinned_types"`
	PinnedBonus  float64  `toml:"pinned_bonus"`
	DefaultBonus float64  `toml:"default_bonus"`

	// RebalanceSchedule is a cron expression for the periodic full
	// rebalance pass run by `engram serve`.
	RebalanceSchedule string `toml:"rebalance_schedule"`
}

type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

type HotSetConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

type ExecutorConfig struct {
	Shell   string `toml:"shell"`
	Timeout int    `toml:"timeout"` // seconds
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Tiering: TieringConfig{
			RecencyWeight:     0.4,
			FrequencyWeight:   0.4,
			TypeWeight:        0.2,
			RecencyDays:       7.0,
			HotThreshold:      2.0,
			WarmThreshold:     0.5,
			PinnedTypes:       []string{"user_preferences", "active_project"},
			PinnedBonus:       10.0,
			DefaultBonus:      1.0,
			RebalanceSchedule: "@hourly",
		},
		Search: SearchConfig{
			DefaultLimit: 10,
		},
		HotSet: HotSetConfig{
			DefaultLimit: 300,
		},
		Executor: ExecutorConfig{
			Shell:   "/bin/sh",
			Timeout: 30,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
