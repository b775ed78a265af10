package odds_client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Market is one yes/no contract, e.g. "Oppenheimer wins Best Picture".
// Prices are in cents.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"yes_sub_title"`
	Status      string `json:"status"`
	YesBid      int    `json:"yes_bid"`
	YesAsk      int    `json:"yes_ask"`
	LastPrice   int    `json:"last_price"`
}

type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// Probability is the bid/ask midpoint, or the last trade when the book is
// one-sided, as a fraction in [0, 1].
func (m Market) Probability() float64 {
	cents := float64(m.LastPrice)
	if m.YesBid > 0 && m.YesAsk > 0 {
		cents = float64(m.YesBid+m.YesAsk) / 2
	}
	return cents / 100
}

// Outcome is the free-text outcome a market settles on.
func (m Market) Outcome() string {
	if m.Subtitle != "" {
		return m.Subtitle
	}
	return m.Title
}

// GetEventMarkets lists every open market of an event, following cursors.
func (c *OddsClient) GetEventMarkets(ctx context.Context, eventTicker string) ([]Market, error) {
	var out []Market
	cursor := ""
	for page := 0; page < MaxMarketPages; page++ {
		q := url.Values{}
		q.Set("event_ticker", eventTicker)
		q.Set("status", "open")
		q.Set("limit", strconv.Itoa(MarketsPageLimit))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var response MarketsResponse
		if err := c.GetJSON(ctx, MarketsEndpoint+"?"+q.Encode(), &response); err != nil {
			return nil, fmt.Errorf("failed to get markets for %s: %w", eventTicker, err)
		}
		out = append(out, response.Markets...)

		if response.Cursor == "" || len(response.Markets) == 0 {
			return out, nil
		}
		cursor = response.Cursor
	}
	return out, nil
}

// EventQuotes turns the markets of a set of award events into quotes.
type EventQuotes struct {
	client     *OddsClient
	events     []string
	categories map[string]string
}

func NewEventQuotes(client *OddsClient, eventTickers ...string) *EventQuotes {
	return &EventQuotes{client: client, events: eventTickers}
}

// WithCategories tags the quotes of each event ticker with a nominee
// category. Events missing from the map yield untagged quotes.
func (q *EventQuotes) WithCategories(categories map[string]string) *EventQuotes {
	q.categories = categories
	return q
}

// Quotes fetches every configured event. One failing event fails the call
// so callers never rank on a partial market.
func (q *EventQuotes) Quotes(ctx context.Context) ([]models.MarketQuote, error) {
	var quotes []models.MarketQuote
	for _, event := range q.events {
		markets, err := q.client.GetEventMarkets(ctx, event)
		if err != nil {
			return nil, err
		}
		for _, m := range markets {
			quotes = append(quotes, models.MarketQuote{
				Title:       m.Outcome(),
				Category:    q.categories[event],
				Probability: m.Probability(),
			})
		}
	}
	return quotes, nil
}
