package tradedesk

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/finlet-app/finlet/internal/models"
)

// GetDailyBrief retrieves the AI market brief.
func (c *Client) GetDailyBrief(ctx context.Context) (*models.DailyBrief, error) {
	var brief models.DailyBrief
	if err := c.get(ctx, "/api/ai/daily-brief", &brief); err != nil {
		return nil, err
	}
	if brief.GeneratedAt.IsZero() {
		brief.GeneratedAt = time.Now()
	}
	brief.Source = "tradedesk"
	return &brief, nil
}

// GetStockIntelligence retrieves AI commentary for a ticker.
func (c *Client) GetStockIntelligence(ctx context.Context, symbol string) (*models.StockIntelligence, error) {
	payload := struct {
		Symbol string `json:"symbol"`
	}{Symbol: strings.ToUpper(symbol)}

	var intel models.StockIntelligence
	if err := c.post(ctx, "/api/ai/stock-intelligence", payload, &intel); err != nil {
		return nil, err
	}
	if intel.Symbol == "" {
		intel.Symbol = strings.ToUpper(symbol)
	}
	if intel.GeneratedAt.IsZero() {
		intel.GeneratedAt = time.Now()
	}
	intel.Source = "tradedesk"
	return &intel, nil
}

// GetTrendingStocks retrieves the AI trending feed.
func (c *Client) GetTrendingStocks(ctx context.Context) ([]models.TrendingStock, error) {
	var stocks []models.TrendingStock
	if err := c.get(ctx, "/api/ai/trending-stocks", &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// GetInternationalStocks retrieves region-scoped trending stocks.
func (c *Client) GetInternationalStocks(ctx context.Context, region string) ([]models.TrendingStock, error) {
	path := "/api/ai/international-stocks"
	if region != "" {
		path += "?region=" + url.QueryEscape(region)
	}
	var stocks []models.TrendingStock
	if err := c.get(ctx, path, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}
