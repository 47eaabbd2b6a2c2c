package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TrainCronOff as schedule.train_cron (or CRON_TRAIN) disables periodic retraining.
const TrainCronOff = "off"

// Config holds all application configuration.
type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Store struct {
		SQLitePath string        `yaml:"sqlite_path"`
		MaxAge     time.Duration `yaml:"max_age"`
	} `yaml:"store"`
	Codec struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"codec"`
	Simulator struct {
		Interval time.Duration `yaml:"interval"`
		Seed     uint64        `yaml:"seed"`
	} `yaml:"simulator"`
	Schedule struct {
		TickCron  string `yaml:"tick_cron"`
		SweepCron string `yaml:"sweep_cron"`
		TrainCron string `yaml:"train_cron"`
	} `yaml:"schedule"`
	Pricing struct {
		QuantityThreshold float64 `yaml:"quantity_threshold"`
		MaxDiscount       float64 `yaml:"max_discount"`
		DiscountPerUnit   float64 `yaml:"discount_per_unit"`
	} `yaml:"pricing"`
	Trainer struct {
		CorpusSize int    `yaml:"corpus_size"`
		Seed       uint64 `yaml:"seed"`
	} `yaml:"trainer"`
	RunOnStart bool `yaml:"run_on_start"`
}

// Load reads .env (if present) and the YAML file at path, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("STORE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STORE_MAX_AGE: %w", err)
		}
		c.Store.MaxAge = d
	}
	if v := os.Getenv("CODEC_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CODEC_CACHE_SIZE: %w", err)
		}
		c.Codec.CacheSize = n
	}
	if v := os.Getenv("SIM_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIM_INTERVAL: %w", err)
		}
		c.Simulator.Interval = d
	}
	if v := os.Getenv("CRON_TICK"); v != "" {
		c.Schedule.TickCron = v
	}
	if v := os.Getenv("CRON_SWEEP"); v != "" {
		c.Schedule.SweepCron = v
	}
	if v := os.Getenv("CRON_TRAIN"); v != "" {
		c.Schedule.TrainCron = v
	}
	if v := os.Getenv("QUANTITY_THRESHOLD"); v != "" {
		var q float64
		if _, err := fmt.Sscanf(v, "%f", &q); err != nil {
			return fmt.Errorf("QUANTITY_THRESHOLD: %w", err)
		}
		c.Pricing.QuantityThreshold = q
	}
	if v := os.Getenv("TRAIN_CORPUS_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAIN_CORPUS_SIZE: %w", err)
		}
		c.Trainer.CorpusSize = n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.RunOnStart = v == "true"
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Store.MaxAge == 0 {
		c.Store.MaxAge = 7 * 24 * time.Hour
	}
	if c.Codec.CacheSize == 0 {
		c.Codec.CacheSize = 256
	}
	if c.Simulator.Interval == 0 {
		c.Simulator.Interval = 30 * time.Minute
	}
	if c.Schedule.TickCron == "" {
		c.Schedule.TickCron = "0 */30 * * * *"
	}
	if c.Schedule.SweepCron == "" {
		c.Schedule.SweepCron = "0 0 3 * * *"
	}
	if c.Schedule.TrainCron == "" {
		c.Schedule.TrainCron = "0 0 4 * * 0"
	}
	if strings.EqualFold(strings.TrimSpace(c.Schedule.TrainCron), TrainCronOff) {
		c.Schedule.TrainCron = ""
	}
	if c.Pricing.QuantityThreshold == 0 {
		c.Pricing.QuantityThreshold = 50
	}
	if c.Pricing.MaxDiscount == 0 {
		c.Pricing.MaxDiscount = 0.10
	}
	if c.Pricing.DiscountPerUnit == 0 {
		c.Pricing.DiscountPerUnit = 0.0002
	}
	if c.Trainer.CorpusSize == 0 {
		c.Trainer.CorpusSize = 1000
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Store.MaxAge <= 0 {
		return fmt.Errorf("store.max_age must be positive")
	}
	if c.Codec.CacheSize < 0 {
		return fmt.Errorf("codec.cache_size must not be negative")
	}
	if c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator.interval must be positive")
	}
	if c.Pricing.QuantityThreshold <= 0 {
		return fmt.Errorf("pricing.quantity_threshold must be positive")
	}
	if c.Pricing.MaxDiscount <= 0 || c.Pricing.MaxDiscount >= 1 {
		return fmt.Errorf("pricing.max_discount must be in (0, 1)")
	}
	if c.Pricing.DiscountPerUnit <= 0 {
		return fmt.Errorf("pricing.discount_per_unit must be positive")
	}
	if c.Trainer.CorpusSize <= 0 {
		return fmt.Errorf("trainer.corpus_size must be positive")
	}
	return nil
}
