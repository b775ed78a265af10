package odds_client

const (
	// Base URL
	BaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	// API Endpoints
	MarketsEndpoint = "/markets"

	// Page size requested per markets call
	MarketsPageLimit = 200

	// Guard against a cursor that never ends
	MaxMarketPages = 20
)
