package market

import "time"

// SparkPoints is the fixed length of a synthesized sparkline series.
const SparkPoints = 7

// SnapshotRow is one instrument of the live watchlist table.
type SnapshotRow struct {
	ID        string  `json:"id"`
	Ticker    string  `json:"ticker"`
	LastPrice float64 `json:"last_price"`
	ChangePct float64 `json:"change_pct"`
	Volume    float64 `json:"volume"`
	MarketCap float64 `json:"market_cap"`
	// Spark is synthesized from LastPrice and ChangePct, oldest first.
	// It is a display interpolation, not fetched history.
	Spark []float64 `json:"spark"`
}

// Bar is one time bucket of a historical series. Open/High/Low are
// reconstructed from point samples: open is the previous close, high and
// low span only open and close. Not an audit-grade OHLC.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
