// Package dashboard composes the CoinGecko client, the TTL cache and the
// normalizer into the two data shapes the rendering layer consumes: the
// live snapshot table and the historical bar series. It is the fail-soft
// boundary of the pipeline: upstream failures are logged here and
// collapsed to empty results, so every consumer's error handling reduces
// to an emptiness check.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"cryptodash/internal/cache"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/market"
)

// Fetcher is the slice of the CoinGecko client the service uses.
type Fetcher interface {
	SimplePrice(ctx context.Context, ids []string, opts ...coingecko.APIClientOption) (coingecko.SimplePriceResponse, error)
	MarketChart(ctx context.Context, id string, days int, opts ...coingecko.APIClientOption) (coingecko.MarketChartResponse, error)
}

// Service serves normalized market data with per-operation TTL caching.
type Service struct {
	gecko       Fetcher
	store       *cache.Store
	snapshotTTL time.Duration
	historyTTL  time.Duration
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotTTL overrides how long a live snapshot stays cached.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) { s.snapshotTTL = ttl }
}

// WithHistoryTTL overrides how long a historical series stays cached.
func WithHistoryTTL(ttl time.Duration) Option {
	return func(s *Service) { s.historyTTL = ttl }
}

// WithLogger sets the logger used at the point of error suppression.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New builds a Service around gecko and store. Snapshots default to a
// 60s TTL (volatile, fetched on every render), histories to 1h
// (expensive, slow-changing).
func New(gecko Fetcher, store *cache.Store, opts ...Option) *Service {
	s := &Service{
		gecko:       gecko,
		store:       store,
		snapshotTTL: 60 * time.Second,
		historyTTL:  time.Hour,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns one watchlist row per requested instrument the
// upstream service knows about, each with a synthesized sparkline.
// Any upstream or transport failure is logged and yields an empty
// table, never an error.
func (s *Service) Snapshot(ctx context.Context, ids []string) []market.SnapshotRow {
	if len(ids) == 0 {
		return []market.SnapshotRow{}
	}

	key := snapshotKey(ids)
	v, err := s.store.GetOrFill(ctx, key, s.snapshotTTL, func(ctx context.Context) (any, error) {
		return s.gecko.SimplePrice(ctx, ids)
	})
	if err != nil {
		s.logger.Warn("live snapshot fetch failed, serving empty table",
			zap.Strings("ids", ids),
			zap.Error(err))
		return []market.SnapshotRow{}
	}
	return market.NormalizeSnapshot(v.(coingecko.SimplePriceResponse))
}

// History returns the joined OHLC+volume series for one instrument over
// the trailing window of days. Failures and unjoinable payloads yield an
// empty series, never an error.
func (s *Service) History(ctx context.Context, id string, days int) []market.Bar {
	if id == "" || days <= 0 {
		return []market.Bar{}
	}

	key := fmt.Sprintf("market_chart:%s:%d", id, days)
	v, err := s.store.GetOrFill(ctx, key, s.historyTTL, func(ctx context.Context) (any, error) {
		return s.gecko.MarketChart(ctx, id, days)
	})
	if err != nil {
		s.logger.Warn("historical series fetch failed, serving empty series",
			zap.String("id", id),
			zap.Int("days", days),
			zap.Error(err))
		return []market.Bar{}
	}
	return market.NormalizeHistory(v.(coingecko.MarketChartResponse))
}

// snapshotKey derives a cache key from the full id set, order
// insensitive so permuted requests share an entry.
func snapshotKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return "simple_price:" + strings.Join(sorted, ",")
}
