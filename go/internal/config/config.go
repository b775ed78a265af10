// Package config loads process configuration for the draft services: an
// optional YAML file, then .env, then environment variables on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robwizzie/FantasyFlicks/go/internal/dbconfig"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/orchestrator"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/outbox"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Server struct {
		Port        string `yaml:"port"`
		GatewayPort string `yaml:"gateway_port"`
		// HealthPort serves /health for the relay and orchestrator processes.
		HealthPort     string   `yaml:"health_port"`
		AllowedOrigins []string `yaml:"allowed_origins"`

		// APIURL is where the standalone gateway reaches the draft service.
		APIURL string `yaml:"api_url"`

		// StandaloneWorkers leaves the relay and orchestrator to their own
		// processes instead of running them inside the API server.
		StandaloneWorkers bool `yaml:"standalone_workers"`
	} `yaml:"server"`

	Database dbconfig.Config `yaml:"database"`

	NATS struct {
		Enabled         bool `yaml:"enabled"`
		natsutil.Config `yaml:",inline"`
	} `yaml:"nats"`

	Outbox       outbox.Config       `yaml:"outbox"`
	Orchestrator orchestrator.Config `yaml:"orchestrator"`
	Catalog      CatalogConfig       `yaml:"catalog"`
}

type CatalogConfig struct {
	// StaticPath is a YAML catalog of movies and nominees.
	StaticPath string `yaml:"static_path"`
	// ResultsPath lists announced oscar winners for scoring.
	ResultsPath string `yaml:"results_path"`

	TMDB struct {
		AccessToken string `yaml:"access_token"`
		Year        int    `yaml:"year"`
		Region      string `yaml:"region"`
		MaxPages    int    `yaml:"max_pages"`
		Revenue     bool   `yaml:"revenue"`
	} `yaml:"tmdb"`

	Odds struct {
		APIKey   string        `yaml:"api_key"`
		BaseURL  string        `yaml:"base_url"`
		Events   []string      `yaml:"events"`
		Fallback float64       `yaml:"fallback"`
		TTL      time.Duration `yaml:"ttl"`

		// Categories maps an event ticker to the nominee category it settles.
		Categories map[string]string `yaml:"categories"`
	} `yaml:"odds"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.Server.Port = "8080"
	cfg.Server.GatewayPort = "8081"
	cfg.Server.HealthPort = "8082"
	cfg.Server.APIURL = "http://localhost:8080"
	cfg.NATS.Config = natsutil.DefaultConfig()
	cfg.Outbox = outbox.DefaultConfig()
	cfg.Orchestrator = orchestrator.DefaultConfig()
	cfg.Catalog.TMDB.MaxPages = 20
	cfg.Catalog.Odds.Fallback = 0.01
	cfg.Catalog.Odds.TTL = 5 * time.Minute
	return cfg
}

// Load reads path if it exists (CONFIG_PATH when path is empty), loads .env
// and applies environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GatewayPort = getEnv("GATEWAY_PORT", c.Server.GatewayPort)
	c.Server.HealthPort = getEnv("HEALTH_PORT", c.Server.HealthPort)
	c.Server.APIURL = getEnv("DRAFT_API_URL", c.Server.APIURL)
	c.Server.StandaloneWorkers = getEnvAsBool("STANDALONE_WORKERS", c.Server.StandaloneWorkers)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Database = dbconfig.ApplyEnv(c.Database)

	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
		c.NATS.Enabled = true
	}
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.StreamName = getEnv("NATS_STREAM", c.NATS.StreamName)

	c.Outbox.FallbackInterval = getEnvAsDuration("FALLBACK_INTERVAL", c.Outbox.FallbackInterval)
	c.Orchestrator.NumWorkers = getEnvAsInt("ORCHESTRATOR_WORKERS", c.Orchestrator.NumWorkers)
	c.Orchestrator.RecoverInterval = getEnvAsDuration("RECOVER_INTERVAL", c.Orchestrator.RecoverInterval)

	c.Catalog.StaticPath = getEnv("CATALOG_PATH", c.Catalog.StaticPath)
	c.Catalog.ResultsPath = getEnv("RESULTS_PATH", c.Catalog.ResultsPath)
	c.Catalog.TMDB.AccessToken = getEnv("TMDB_ACCESS_TOKEN", c.Catalog.TMDB.AccessToken)
	c.Catalog.TMDB.Year = getEnvAsInt("TMDB_YEAR", c.Catalog.TMDB.Year)
	c.Catalog.Odds.APIKey = getEnv("ODDS_API_KEY", c.Catalog.Odds.APIKey)
	if evts := os.Getenv("ODDS_EVENTS"); evts != "" {
		c.Catalog.Odds.Events = nil
		for _, evt := range strings.Split(evts, ",") {
			ticker, category, tagged := strings.Cut(strings.TrimSpace(evt), "=")
			c.Catalog.Odds.Events = append(c.Catalog.Odds.Events, ticker)
			if tagged {
				if c.Catalog.Odds.Categories == nil {
					c.Catalog.Odds.Categories = make(map[string]string)
				}
				c.Catalog.Odds.Categories[ticker] = category
			}
		}
	}
}

// SetupLogging points the global zerolog logger at a console writer on
// stderr with the configured level.
func SetupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
