package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// MarketChartResponse carries the parallel price and volume series of a
// coins/{id}/market_chart response. Each sample is a
// [ms-epoch timestamp, value] pair.
type MarketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// MarketChart retrieves the historical USD price and volume series for a
// single instrument over the trailing window of days.
func (c *APIClient) MarketChart(ctx context.Context, id string, days int, opts ...APIClientOption) (MarketChartResponse, error) {
	if id == "" {
		return MarketChartResponse{}, fmt.Errorf("id cannot be empty")
	}
	if days <= 0 {
		return MarketChartResponse{}, fmt.Errorf("days must be positive, got %d", days)
	}

	var override = &APIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("vs_currency", "usd")
	query.Add("days", strconv.Itoa(days))

	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?%s", override.baseURL, url.PathEscape(id), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return MarketChartResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return MarketChartResponse{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return MarketChartResponse{}, fmt.Errorf("unknown instrument %q", id)

	case http.StatusUnauthorized, http.StatusForbidden:
		return MarketChartResponse{}, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return MarketChartResponse{}, fmt.Errorf("rate limited")

	default:
		return MarketChartResponse{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body MarketChartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return MarketChartResponse{}, fmt.Errorf("decoding market chart response: %w", err)
	}
	return body, nil
}
