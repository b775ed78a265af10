package tmdb_client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/availability"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

type DiscoverResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type MovieDetails struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Revenue int64  `json:"revenue"`
	Budget  int64  `json:"budget"`
}

// DiscoverParams narrows the discover listing.
type DiscoverParams struct {
	Year   int    // primary release year, 0 for any
	Region string // ISO 3166-1 code, empty for any
}

// DiscoverMovies returns one page of movies by descending popularity.
func (c *TMDBClient) DiscoverMovies(ctx context.Context, params DiscoverParams, page int) (*DiscoverResponse, error) {
	q := url.Values{}
	q.Set("sort_by", "popularity.desc")
	q.Set("include_adult", "false")
	q.Set("page", strconv.Itoa(page))
	if params.Year > 0 {
		q.Set("primary_release_year", strconv.Itoa(params.Year))
	}
	if params.Region != "" {
		q.Set("region", params.Region)
	}

	var response DiscoverResponse
	if err := c.GetJSON(ctx, DiscoverMovieEndpoint+"?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to discover movies: %w", err)
	}
	return &response, nil
}

// GetMovieDetails returns the details record of one movie, including revenue.
func (c *TMDBClient) GetMovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.GetJSON(ctx, fmt.Sprintf(MovieDetailsEndpoint, id), &details); err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", id, err)
	}
	return &details, nil
}

// MoviePages adapts discover results to a paginated catalog source.
type MoviePages struct {
	client *TMDBClient
	params DiscoverParams
	// Revenue looks up each movie's box office as its score. It costs one
	// request per movie.
	Revenue bool
}

func NewMoviePages(client *TMDBClient, params DiscoverParams) *MoviePages {
	return &MoviePages{client: client, params: params}
}

var _ availability.PageSource = (*MoviePages)(nil)

func (p *MoviePages) FetchPage(ctx context.Context, page int) (availability.Page, error) {
	resp, err := p.client.DiscoverMovies(ctx, p.params, page)
	if err != nil {
		return availability.Page{}, err
	}

	items := make([]models.CatalogItem, 0, len(resp.Results))
	for _, m := range resp.Results {
		item := toCatalogItem(m)
		if p.Revenue {
			details, err := p.client.GetMovieDetails(ctx, m.ID)
			if err != nil {
				log.Warn().Err(err).Int("tmdb_id", m.ID).Msg("scoring movie without revenue")
			} else {
				item.Score = float64(details.Revenue) / 1e6
			}
		}
		items = append(items, item)
	}

	total := resp.TotalPages
	if total > MaxDiscoverPage {
		total = MaxDiscoverPage
	}
	return availability.Page{Items: items, Page: resp.Page, TotalPages: total}, nil
}

// CatalogID is the selection id used for a TMDB movie.
func CatalogID(tmdbID int) string {
	return "movie_" + strconv.Itoa(tmdbID)
}

func toCatalogItem(m Movie) models.CatalogItem {
	item := models.CatalogItem{
		ID:         CatalogID(m.ID),
		Title:      m.Title,
		Popularity: m.Popularity,
	}
	if t, err := time.Parse(ReleaseDateLayout, m.ReleaseDate); err == nil {
		item.ReleaseDate = &t
	}
	return item
}
