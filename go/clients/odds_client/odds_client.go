package odds_client

import (
	"github.com/robwizzie/FantasyFlicks/go/clients"
)

// OddsClient reads prediction market prices for award outcomes.
type OddsClient struct {
	*clients.BaseClient
}

// NewOddsClient creates a client. Public market data needs no key, so
// apiKey may be empty.
func NewOddsClient(apiKey string) *OddsClient {
	return NewOddsClientWithURL(BaseURL, apiKey)
}

func NewOddsClientWithURL(baseURL, apiKey string) *OddsClient {
	client := &OddsClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return client
}
