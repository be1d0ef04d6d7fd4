package market

import (
	"math"
	"sort"
	"strings"
	"time"

	"cryptodash/internal/coingecko"
)

// NormalizeSnapshot flattens a simple-price payload into watchlist rows,
// one per instrument present in the payload. Missing or null numeric
// fields default to 0. A nil or empty payload yields an empty slice.
// Rows are sorted by id so output is deterministic across calls.
func NormalizeSnapshot(raw coingecko.SimplePriceResponse) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(raw))
	for id, entry := range raw {
		row := SnapshotRow{
			ID:        id,
			Ticker:    strings.ToUpper(id),
			LastPrice: deref(entry.USD),
			ChangePct: deref(entry.USD24hChange),
			Volume:    deref(entry.USD24hVol),
			MarketCap: deref(entry.USDMarketCap),
		}
		row.Spark = Sparkline(row.LastPrice, row.ChangePct)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// NormalizeHistory joins the price and volume series of a market-chart
// payload into bars, matching strictly on timestamp. If either series is
// empty the whole history is treated as no data. A bar's open is the
// previous bar's close (the first bar opens at its own close), high and
// low are the larger and smaller of open and close.
func NormalizeHistory(raw coingecko.MarketChartResponse) []Bar {
	if len(raw.Prices) == 0 || len(raw.TotalVolumes) == 0 {
		return []Bar{}
	}

	volumeAt := make(map[int64]float64, len(raw.TotalVolumes))
	for _, sample := range raw.TotalVolumes {
		volumeAt[int64(sample[0])] = sample[1]
	}

	// Upstream sends samples oldest first, but open=previous-close only
	// holds on a chronological walk, so order before building.
	prices := make([][2]float64, len(raw.Prices))
	copy(prices, raw.Prices)
	sort.Slice(prices, func(i, j int) bool { return prices[i][0] < prices[j][0] })

	bars := make([]Bar, 0, len(prices))
	lastTS := int64(-1)
	for _, sample := range prices {
		ts := int64(sample[0])
		if ts == lastTS {
			// duplicated sample, first one wins
			continue
		}
		volume, ok := volumeAt[ts]
		if !ok {
			continue
		}
		close := sample[1]
		if !isFinite(close) || !isFinite(volume) {
			continue
		}
		open := close
		if n := len(bars); n > 0 {
			open = bars[n-1].Close
		}
		lastTS = ts
		bars = append(bars, Bar{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   open,
			High:   math.Max(open, close),
			Low:    math.Min(open, close),
			Close:  close,
			Volume: volume,
		})
	}
	return bars
}

func deref(v *float64) float64 {
	if v == nil || !isFinite(*v) {
		return 0
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
