package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/catalog"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "DRAFT_EVENTS", cfg.NATS.StreamName)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, 10, cfg.Orchestrator.NumWorkers)
	assert.Equal(t, 30*time.Second, cfg.Outbox.FallbackInterval)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log_level: debug
server:
  port: "9000"
  allowed_origins: ["https://flicks.example"]
database:
  driver: sqlite3
  path: /tmp/flicks.db
nats:
  url: nats://bus:4222
  enabled: true
  stream_name: FLICKS
outbox:
  fallback_interval: 5s
orchestrator:
  num_workers: 3
  recover_interval: 1m
catalog:
  odds:
    events: [OSCARPIC-26]
    categories:
      OSCARPIC-26: best_picture
    ttl: 30s
`)
	t.Setenv("PORT", "9100")
	t.Setenv("ORCHESTRATOR_WORKERS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"https://flicks.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "FLICKS", cfg.NATS.StreamName)
	assert.Equal(t, "draft.events", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 5*time.Second, cfg.Outbox.FallbackInterval)
	assert.Equal(t, 4, cfg.Orchestrator.NumWorkers)
	assert.Equal(t, time.Minute, cfg.Orchestrator.RecoverInterval)
	assert.Equal(t, []string{"OSCARPIC-26"}, cfg.Catalog.Odds.Events)
	assert.Equal(t, map[string]string{"OSCARPIC-26": "best_picture"}, cfg.Catalog.Odds.Categories)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Odds.TTL)
}

func TestOddsEventsFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ODDS_EVENTS", "OSCARPIC-26=best_picture, OSCARACTR-26=best_actor,OSCARDOC-26")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"OSCARPIC-26", "OSCARACTR-26", "OSCARDOC-26"}, cfg.Catalog.Odds.Events)
	assert.Equal(t, map[string]string{
		"OSCARPIC-26":  "best_picture",
		"OSCARACTR-26": "best_actor",
	}, cfg.Catalog.Odds.Categories)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCatalogBuildFromStatic(t *testing.T) {
	var cc CatalogConfig
	cc.StaticPath = writeFile(t, "catalog.yaml", `
movies:
  - id: movie_1
    title: Barbie
    popularity: 9
    score: 1441.8
nominees:
  - id: bp_barbie
    category: Best Picture
    name: Barbie
`)
	cc.ResultsPath = writeFile(t, "results.yaml", `
results:
  - category: Best Picture
    winner_id: bp_barbie
    weight: 3
`)

	src, err := cc.Build()
	require.NoError(t, err)
	_, isRouter := src.(catalog.Router)
	assert.True(t, isRouter)

	movies, err := src.Items(context.Background(), &models.Draft{Mode: models.DraftModeMovie})
	require.NoError(t, err)
	require.Len(t, movies, 1)

	rules, err := cc.Rules(src)
	require.NoError(t, err)
	score, err := rules.ScorerFor(context.Background(), &models.Draft{Mode: models.DraftModeOscar})
	require.NoError(t, err)
	assert.Equal(t, 3.0, score("bp_barbie"))

	movieScore, err := rules.ScorerFor(context.Background(), &models.Draft{Mode: models.DraftModeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1441.8, movieScore("movie_1"))
}

func TestBundledAssets(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "assets", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8082", cfg.Server.HealthPort)
	assert.False(t, cfg.Server.StandaloneWorkers)
	assert.Equal(t, 4, cfg.Orchestrator.NumWorkers)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.Odds.TTL)

	cfg.Catalog.StaticPath = filepath.Join("..", "assets", "catalog.yaml")
	cfg.Catalog.ResultsPath = filepath.Join("..", "assets", "results.yaml")
	src, err := cfg.Catalog.Build()
	require.NoError(t, err)
	rules, err := cfg.Catalog.Rules(src)
	require.NoError(t, err)
	assert.Len(t, rules.Results, 3)

	nominees, err := src.Pool(context.Background(), models.DraftModeOscar)
	require.NoError(t, err)
	assert.Len(t, nominees, 7)
}
