package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	ProviderRemote      = "remote"
	ProviderReadability = "readability"
	ProviderNone        = "none"
)

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

type DBConfig struct {
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		SavedArticles string `yaml:"saved_articles"`
		Preferences   string `yaml:"preferences"`
	} `yaml:"collections"`
}

type FetchConfig struct {
	TimeoutSec   int    `yaml:"timeout_sec"`
	MaxRedirects int    `yaml:"max_redirects"`
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`
}

type SecondaryConfig struct {
	Provider   string `yaml:"provider"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type NewsConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Language     string `yaml:"language"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	TrendingDays int    `yaml:"trending_days"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Secondary SecondaryConfig `yaml:"secondary"`
	News      NewsConfig      `yaml:"news"`
	Logging   LoggingConfig   `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("EXTRACTOR_API_URL"); v != "" {
		c.Secondary.URL = v
	}
	if v := os.Getenv("EXTRACTOR_API_KEY"); v != "" {
		c.Secondary.APIKey = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.DB.Connection = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 10
	}
	// article-content requests can spend 15s fetching plus 10s in the secondary service
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = 30
	}

	if c.DB.Database == "" {
		c.DB.Database = "newsy"
	}
	if c.DB.Collections.SavedArticles == "" {
		c.DB.Collections.SavedArticles = "saved_articles"
	}
	if c.DB.Collections.Preferences == "" {
		c.DB.Collections.Preferences = "preferences"
	}

	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 15
	}
	if c.Fetch.MaxRedirects <= 0 {
		c.Fetch.MaxRedirects = 5
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 10 * 1024 * 1024
	}

	if c.Secondary.Provider == "" {
		if c.Secondary.URL != "" {
			c.Secondary.Provider = ProviderRemote
		} else {
			c.Secondary.Provider = ProviderReadability
		}
	}
	if c.Secondary.TimeoutSec <= 0 {
		c.Secondary.TimeoutSec = 10
	}

	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org/v2"
	}
	if c.News.Language == "" {
		c.News.Language = "en"
	}
	if c.News.TimeoutSec <= 0 {
		c.News.TimeoutSec = 10
	}
	if c.News.TrendingDays <= 0 {
		c.News.TrendingDays = 7
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Secondary.Provider {
	case ProviderRemote:
		if c.Secondary.URL == "" {
			return fmt.Errorf("secondary provider %q requires secondary.url", ProviderRemote)
		}
	case ProviderReadability, ProviderNone:
	default:
		return fmt.Errorf("unknown secondary provider %q", c.Secondary.Provider)
	}
	return nil
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

func (s SecondaryConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

func (n NewsConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSec) * time.Second
}
