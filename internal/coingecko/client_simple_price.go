package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// SimplePriceEntry holds the per-instrument metrics of a simple/price
// response. Every field is nullable upstream.
type SimplePriceEntry struct {
	USD          *float64 `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
	USD24hVol    *float64 `json:"usd_24h_vol"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// SimplePriceResponse maps instrument id to its metrics. Ids absent from
// the response were unknown to the upstream service.
type SimplePriceResponse map[string]SimplePriceEntry

// SimplePrice retrieves current USD price, 24h change, 24h volume and
// market cap for the given instrument ids in a single request.
func (c *APIClient) SimplePrice(ctx context.Context, ids []string, opts ...APIClientOption) (SimplePriceResponse, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("ids cannot be empty")
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
	query.Add("ids", strings.Join(ids, ","))
	query.Add("vs_currencies", "usd")
	query.Add("include_24hr_change", "true")
	query.Add("include_24hr_vol", "true")
	query.Add("include_market_cap", "true")

	url := fmt.Sprintf("%s/simple/price?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusBadRequest:
		return nil, fmt.Errorf("bad request with ids=%s", strings.Join(ids, ","))

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body SimplePriceResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding simple price response: %w", err)
	}
	return body, nil
}
