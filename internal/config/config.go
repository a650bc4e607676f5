package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Mode string `yaml:"mode"`
	} `yaml:"logging"`
	Database struct {
		// Driver is "postgres" or "sqlite"; empty keeps everything in memory.
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Questions struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"questions"`
	Dashboard struct {
		ChannelPrefix string `yaml:"channel_prefix"`
	} `yaml:"dashboard"`
	Auth struct {
		JWTSecret      string `yaml:"jwt_secret"`
		Issuer         string `yaml:"issuer"`
		AllowDevHeader bool   `yaml:"allow_dev_header"`
	} `yaml:"auth"`
	Scoring struct {
		PointsPerCorrect int `yaml:"points_per_correct"`
		HistoryLimit     int `yaml:"history_limit"`
		MaxRetestCount   int `yaml:"max_retest_count"`
	} `yaml:"scoring"`
	Avatars struct {
		Dir           string `yaml:"dir"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"avatars"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path, then applies environment overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
		if c.Database.Driver == "" {
			c.Database.Driver = "postgres"
		}
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) applyDefaults() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Scoring.PointsPerCorrect <= 0 {
		c.Scoring.PointsPerCorrect = 10
	}
	if c.Scoring.HistoryLimit <= 0 {
		c.Scoring.HistoryLimit = 50
	}
	if c.Scoring.MaxRetestCount <= 0 {
		c.Scoring.MaxRetestCount = 50
	}
	if c.Dashboard.ChannelPrefix == "" {
		c.Dashboard.ChannelPrefix = "dashboard:"
	}
	if c.Avatars.Dir == "" {
		c.Avatars.Dir = "./data/avatars"
	}
	if c.Avatars.PublicBaseURL == "" {
		c.Avatars.PublicBaseURL = "/avatars"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
