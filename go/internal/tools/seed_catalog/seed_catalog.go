// Command seed_catalog snapshots TMDB's release calendar into a static
// catalog file so local drafts run without an API token. Nominees already
// in the target file are kept.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/robwizzie/FantasyFlicks/go/clients/tmdb_client"
	"github.com/robwizzie/FantasyFlicks/go/internal/config"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/availability"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/catalog"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	tmdb := cfg.Catalog.TMDB
	if tmdb.AccessToken == "" {
		fmt.Fprintln(os.Stderr, "TMDB_ACCESS_TOKEN is required")
		os.Exit(1)
	}
	out := cfg.Catalog.StaticPath
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	if out == "" {
		out = "go/internal/assets/catalog.yaml"
	}

	// 1) Keep whatever nominees the file already lists
	var file catalog.File
	if existing, err := catalog.LoadStatic(out); err == nil {
		file.Nominees = existing.Nominees()
	} else if !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "read existing catalog: %v\n", err)
		os.Exit(1)
	}

	// 2) Walk the discover pages
	pages := tmdb_client.NewMoviePages(
		tmdb_client.NewTMDBClient(tmdb.AccessToken),
		tmdb_client.DiscoverParams{Year: tmdb.Year, Region: tmdb.Region},
	)
	pages.Revenue = tmdb.Revenue
	tracker := availability.NewTracker()
	if err := availability.NewLoader(pages, tracker, tmdb.MaxPages).LoadAll(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fetch movies: %v\n", err)
		os.Exit(1)
	}
	file.Movies = tracker.Available()
	sort.Slice(file.Movies, func(i, j int) bool { return file.Movies[i].ID < file.Movies[j].ID })

	// 3) Write the snapshot
	data, err := yaml.Marshal(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode catalog: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Catalog seed complete: %d movies, %d nominees written to %s\n",
		len(file.Movies), len(file.Nominees), out)
}
