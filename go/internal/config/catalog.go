package config

import (
	"fmt"
	"os"

	"github.com/robwizzie/FantasyFlicks/go/clients/odds_client"
	"github.com/robwizzie/FantasyFlicks/go/clients/tmdb_client"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/catalog"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"gopkg.in/yaml.v3"
)

// Build assembles the catalog. Movies come from TMDB when a token is set,
// else from the static file. Nominees come from the static file, ranked by
// market odds when odds events are configured.
func (c CatalogConfig) Build() (catalog.Source, error) {
	static := catalog.NewStatic(nil, nil)
	if c.StaticPath != "" {
		s, err := catalog.LoadStatic(c.StaticPath)
		if err != nil {
			return nil, err
		}
		static = s
	}
	nominees := static.Nominees()

	router := catalog.Router{Movies: static, Nominees: static}
	if c.TMDB.AccessToken != "" {
		pages := tmdb_client.NewMoviePages(
			tmdb_client.NewTMDBClient(c.TMDB.AccessToken),
			tmdb_client.DiscoverParams{Year: c.TMDB.Year, Region: c.TMDB.Region},
		)
		pages.Revenue = c.TMDB.Revenue
		router.Movies = catalog.NewPaged(pages, c.TMDB.MaxPages, nil)
	}
	if len(c.Odds.Events) > 0 && len(nominees) > 0 {
		client := odds_client.NewOddsClient(c.Odds.APIKey)
		if c.Odds.BaseURL != "" {
			client = odds_client.NewOddsClientWithURL(c.Odds.BaseURL, c.Odds.APIKey)
		}
		quotes := odds_client.NewEventQuotes(client, c.Odds.Events...).WithCategories(c.Odds.Categories)
		router.Nominees = catalog.NewOscar(nominees, quotes, c.Odds.Fallback, c.Odds.TTL, nil)
	}
	return router, nil
}

// Results loads announced oscar winners. No path means none yet.
func (c CatalogConfig) Results() ([]standings.OscarResult, error) {
	if c.ResultsPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.ResultsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	var file struct {
		Results []standings.OscarResult `yaml:"results"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}
	return file.Results, nil
}

// Rules is the scoring configuration over the built catalog.
func (c CatalogConfig) Rules(src catalog.Source) (standings.Rules, error) {
	results, err := c.Results()
	if err != nil {
		return standings.Rules{}, err
	}
	return standings.Rules{Catalog: src, Results: results}, nil
}
