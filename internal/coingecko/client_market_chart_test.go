package coingecko_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cryptodash/internal/coingecko"
)

var mockMarketChartResponse = map[string]any{
	"prices": [][2]float64{
		{1714608000000, 58123.4},
		{1714611600000, 58250.1},
	},
	"total_volumes": [][2]float64{
		{1714608000000, 24500000000},
		{1714611600000, 25100000000},
	},
}

func TestMarketChart(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Contains(t, req.URL.Path, "/coins/bitcoin/market_chart")
			require.Equal(t, "usd", req.URL.Query().Get("vs_currency"))
			require.Equal(t, "90", req.URL.Query().Get("days"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(mockMarketChartResponse))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new CoinGecko API client
	client, err := coingecko.NewAPIClient("", coingecko.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call MarketChart
	chart, err := client.MarketChart(context.Background(), "bitcoin", 90)
	require.NoError(t, err)
	require.Len(t, chart.Prices, 2)
	require.Len(t, chart.TotalVolumes, 2)
	require.InEpsilon(t, 58123.4, chart.Prices[0][1], 0.0001)
	require.InEpsilon(t, 25100000000.0, chart.TotalVolumes[1][1], 0.0001)
}

func TestMarketChart_ErrInvalidArgs(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: no request must be issued
	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	// Arrange: setup a new CoinGecko API client
	client, err := coingecko.NewAPIClient("", coingecko.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call MarketChart with an empty id
	_, err = client.MarketChart(context.Background(), "", 90)
	require.Error(t, err)

	// Act: call MarketChart with a non-positive window
	_, err = client.MarketChart(context.Background(), "bitcoin", 0)
	require.Error(t, err)
}

func TestMarketChart_ErrNotFound(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(bytes.NewReader([]byte{})),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new CoinGecko API client
	client, err := coingecko.NewAPIClient("", coingecko.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call MarketChart with an unknown instrument
	_, err = client.MarketChart(context.Background(), "no-such-coin", 90)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no-such-coin")
}

func TestMarketChart_ErrDecodingResponse(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method with a non-JSON body
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader([]byte("<html>rate limited</html>"))),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new CoinGecko API client
	client, err := coingecko.NewAPIClient("", coingecko.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call MarketChart
	_, err = client.MarketChart(context.Background(), "bitcoin", 90)
	require.Error(t, err)
}
