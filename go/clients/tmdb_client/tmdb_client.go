package tmdb_client

import (
	"github.com/robwizzie/FantasyFlicks/go/clients"
)

// TMDBClient reads the movie catalog from The Movie Database.
type TMDBClient struct {
	*clients.BaseClient
}

// NewTMDBClient authenticates with a v4 read access token.
func NewTMDBClient(accessToken string) *TMDBClient {
	return NewTMDBClientWithURL(BaseURL, accessToken)
}

func NewTMDBClientWithURL(baseURL, accessToken string) *TMDBClient {
	client := &TMDBClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader("Authorization", "Bearer "+accessToken)
	client.SetHeader("Accept", "application/json")

	return client
}
