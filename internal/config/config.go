// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the engine configuration from a single YAML file.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Job keys used across jobConfig, interval and cronTrigger maps.
const (
	JobCurseforgeRefresh      = "curseforge_refresh"
	JobCurseforgeRefreshFull  = "curseforge_refresh_full"
	JobModrinthRefresh        = "modrinth_refresh"
	JobModrinthRefreshFull    = "modrinth_refresh_full"
	JobSyncCurseforgeByQueue  = "sync_curseforge_by_queue"
	JobSyncCurseforgeBySearch = "sync_curseforge_by_search"
	JobSyncModrinthByQueue    = "sync_modrinth_by_queue"
	JobSyncModrinthBySearch   = "sync_modrinth_by_search"
	JobCurseforgeCategories   = "curseforge_categories"
	JobModrinthTags           = "modrinth_tags"
	JobGlobalStatistics       = "global_statistics"
)

// MongoDB holds document store connection settings.
type MongoDB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Auth     bool   `yaml:"auth"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Redis holds miss-queue store connection settings.
type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

// RateLimit configures one host's token bucket.
type RateLimit struct {
	Capacity      int     `yaml:"capacity"`
	RefillRate    float64 `yaml:"refillRate"`
	InitialTokens *int    `yaml:"initialTokens"`
}

// Telegram holds notifier settings.
type Telegram struct {
	Enabled  bool   `yaml:"enabled"`
	BotAPI   string `yaml:"botApi"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Config is the process configuration, parsed once at startup.
type Config struct {
	Debug bool `yaml:"debug"`

	MongoDB MongoDB `yaml:"mongodb"`
	Redis   Redis   `yaml:"redis"`

	JobConfig   map[string]bool   `yaml:"jobConfig"`
	Interval    map[string]int    `yaml:"interval"`
	CronTrigger map[string]string `yaml:"cronTrigger"`
	UseCron     bool              `yaml:"useCron"`

	MaxWorkers          int     `yaml:"maxWorkers"`
	CurseforgeChunkSize int     `yaml:"curseforgeChunkSize"`
	ModrinthChunkSize   int     `yaml:"modrinthChunkSize"`
	CurseforgeDelay     float64 `yaml:"curseforgeDelay"`
	ModrinthDelay       float64 `yaml:"modrinthDelay"`

	CurseforgeAPIKey string `yaml:"curseforgeApiKey"`
	CurseforgeAPI    string `yaml:"curseforgeApi"`
	ModrinthAPI      string `yaml:"modrinthApi"`

	Telegram Telegram `yaml:"telegramBot"`

	Proxies string `yaml:"proxies"`

	DomainRateLimits map[string]RateLimit `yaml:"domainRateLimits"`
}

// Default returns the built-in configuration, matching the documented defaults.
func Default() *Config {
	return &Config{
		MongoDB: MongoDB{Host: "localhost", Port: 27017, Database: "database"},
		Redis:   Redis{Host: "localhost", Port: 6379},
		JobConfig: map[string]bool{
			JobCurseforgeRefresh:      true,
			JobCurseforgeRefreshFull:  true,
			JobModrinthRefresh:        true,
			JobModrinthRefreshFull:    true,
			JobSyncCurseforgeByQueue:  true,
			JobSyncCurseforgeBySearch: true,
			JobSyncModrinthByQueue:    true,
			JobSyncModrinthBySearch:   true,
			JobCurseforgeCategories:   true,
			JobModrinthTags:           true,
			JobGlobalStatistics:       true,
		},
		Interval: map[string]int{
			JobCurseforgeRefresh:      2 * 60 * 60,
			JobModrinthRefresh:        2 * 60 * 60,
			JobCurseforgeRefreshFull:  48 * 60 * 60,
			JobModrinthRefreshFull:    48 * 60 * 60,
			JobSyncCurseforgeByQueue:  5 * 60,
			JobSyncCurseforgeBySearch: 2 * 60 * 60,
			JobSyncModrinthByQueue:    5 * 60,
			JobSyncModrinthBySearch:   2 * 60 * 60,
			JobCurseforgeCategories:   24 * 60 * 60,
			JobModrinthTags:           24 * 60 * 60,
			JobGlobalStatistics:       24 * 60 * 60,
		},
		CronTrigger:         map[string]string{},
		MaxWorkers:          8,
		CurseforgeChunkSize: 1000,
		ModrinthChunkSize:   100,
		CurseforgeDelay:     1,
		ModrinthDelay:       1,
		CurseforgeAPI:       "https://api.curseforge.com",
		ModrinthAPI:         "https://api.modrinth.com",
		Telegram: Telegram{
			BotAPI: "https://api.telegram.org/bot",
		},
		DomainRateLimits: map[string]RateLimit{
			"api.curseforge.com": {Capacity: 100, RefillRate: 1},
			"api.modrinth.com":   {Capacity: 300, RefillRate: 5},
		},
	}
}

// Load reads the config file at path, overlaying the defaults. A missing file
// yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

// JobEnabled reports whether the named job should be scheduled. Jobs absent
// from jobConfig default to enabled.
func (c *Config) JobEnabled(name string) bool {
	enabled, ok := c.JobConfig[name]
	return !ok || enabled
}

// JobInterval returns the interval trigger for the named job.
func (c *Config) JobInterval(name string) time.Duration {
	secs, ok := c.Interval[name]
	if !ok {
		secs = Default().Interval[name]
	}
	return time.Duration(secs) * time.Second
}
