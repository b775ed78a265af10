package tmdb_client

const (
	// Base URL
	BaseURL = "https://api.themoviedb.org/3"

	// API Endpoints
	DiscoverMovieEndpoint = "/discover/movie"
	MovieDetailsEndpoint  = "/movie/%d"

	// TMDB caps discover results at this page
	MaxDiscoverPage = 500

	ReleaseDateLayout = "2006-01-02"
)
