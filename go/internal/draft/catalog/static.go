package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a static catalog.
type File struct {
	Movies   []models.CatalogItem `yaml:"movies"`
	Nominees []models.Nominee     `yaml:"nominees"`
}

// Static serves a fixed catalog, typically loaded from YAML for local runs.
type Static struct {
	movies   []models.CatalogItem
	nominees []models.CatalogItem
	raw      []models.Nominee
}

// NewStatic creates a catalog over movies and nominees.
func NewStatic(movies []models.CatalogItem, nominees []models.Nominee) *Static {
	return &Static{movies: movies, nominees: NomineeItems(nominees), raw: nominees}
}

// Nominees returns the nominees as loaded.
func (s *Static) Nominees() []models.Nominee {
	return s.raw
}

// LoadStatic reads a YAML catalog file.
func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return DecodeStatic(f)
}

// DecodeStatic parses a YAML catalog.
func DecodeStatic(r io.Reader) (*Static, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return NewStatic(file.Movies, file.Nominees), nil
}

// Items returns movies for a movie draft and nominees for an oscar draft.
func (s *Static) Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error) {
	return s.Pool(ctx, d.Mode)
}

// Pool returns every item of mode, picked or not.
func (s *Static) Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error) {
	if mode == models.DraftModeOscar {
		return s.nominees, nil
	}
	return s.movies, nil
}

// NomineeItems converts nominees to catalog items keyed by category.
func NomineeItems(nominees []models.Nominee) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(nominees))
	for _, n := range nominees {
		title := n.Name
		if title == "" {
			title = n.WorkTitle
		}
		out = append(out, models.CatalogItem{
			ID:         n.ID,
			Title:      title,
			Category:   n.Category,
			Popularity: n.Popularity,
		})
	}
	return out
}
