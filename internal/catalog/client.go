// Package catalog provides the HTTP client for the remote instrument
// catalog service. The engine treats the catalog as read-only and fetches
// the full universe on demand; a failed fetch is a display-only error and
// never touches watchlist or live-price state.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"watchlist-systemv1/internal/model"
)

// Client fetches instruments from a catalog server, e.g. cmd/catalogserver.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client for the given base URL
// (e.g. "http://localhost:9002").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// wireStock mirrors the catalog's JSON. initial_price arrives as a decimal
// number ("2900.50"); json.Number keeps the exact digits for cent conversion.
type wireStock struct {
	Symbol       string      `json:"symbol"`
	Company      string      `json:"company"`
	InitialPrice json.Number `json:"initial_price"`
}

// Fetch retrieves the full instrument universe from GET /api/stocks.
func (c *Client) Fetch(ctx context.Context) ([]model.Instrument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/stocks", nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch: unexpected status %d", resp.StatusCode)
	}

	var stocks []wireStock
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&stocks); err != nil {
		return nil, fmt.Errorf("catalog decode: %w", err)
	}

	instruments := make([]model.Instrument, 0, len(stocks))
	for _, s := range stocks {
		cents, err := model.ParsePrice(s.InitialPrice.String())
		if err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", s.Symbol, err)
		}
		instruments = append(instruments, model.Instrument{
			Symbol:       s.Symbol,
			Name:         s.Company,
			InitialPrice: cents,
		})
	}
	return instruments, nil
}
