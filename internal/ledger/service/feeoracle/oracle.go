// Package feeoracle prices transactions from recent ledger fee statistics.
package feeoracle

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// NetworkMinFee is the ledger's minimum base fee in stroops.
	NetworkMinFee int64 = 100

	defaultTTL          = 60 * time.Second
	defaultFetchTimeout = 5 * time.Second

	outcomeSuccess       = "success"
	outcomeCache         = "cache"
	outcomeFallbackCache = "fallback_cache"
	outcomeFallbackFloor = "fallback_floor"

	fetchKey = "fee_stats"
)

var errInvalidStats = errors.New("fee statistics percentiles are not monotonic")

var congestionMultipliers = map[model.CongestionLevel]float64{
	model.CongestionLow:      1.0,
	model.CongestionMedium:   1.5,
	model.CongestionHigh:     2.0,
	model.CongestionCritical: 3.0,
}

// Config tunes the oracle. Zero values fall back to defaults.
type Config struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	MinFee       int64
	// MaxFee caps recommendations when positive.
	MaxFee int64
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.MinFee < NetworkMinFee {
		c.MinFee = NetworkMinFee
	}
	if c.MaxFee > 0 && c.MaxFee < c.MinFee {
		c.MaxFee = c.MinFee
	}
	return c
}

// Oracle caches fee statistics and turns them into fee recommendations.
// Each orchestrator owns its own instance.
type Oracle struct {
	source  FeeSource
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
	fetches singleflight.Group

	mu        sync.Mutex
	cached    model.FeeStatistics
	fetchedAt time.Time
	hasCache  bool
}

// New constructs an Oracle.
func New(source FeeSource, metrics Metrics, cfg Config, logger *zap.Logger) *Oracle {
	return &Oracle{
		source:  source,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// MinFee is the smallest fee the oracle recommends.
func (o *Oracle) MinFee() int64 { return o.cfg.MinFee }

// MaxFee is the configured cap, zero when uncapped.
func (o *Oracle) MaxFee() int64 { return o.cfg.MaxFee }

// GetFeeStatistics returns cached statistics while fresh, otherwise fetches them.
// It never fails: a failed or invalid fetch falls back to the last good value, then to the floor.
// Concurrent callers share one fetch and never wait on the lock while it runs.
func (o *Oracle) GetFeeStatistics(ctx context.Context, forceRefresh bool) model.FeeStatistics {
	started := time.Now()

	if !forceRefresh {
		if stats, ok := o.fresh(); ok {
			o.metrics.ObserveFetch(outcomeCache, started)
			return stats
		}
	}

	v, _, _ := o.fetches.Do(fetchKey, func() (any, error) {
		return o.fetch(ctx, started), nil
	})
	return v.(model.FeeStatistics)
}

func (o *Oracle) fresh() (model.FeeStatistics, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasCache && o.now().Sub(o.fetchedAt) < o.cfg.TTL {
		return o.cached, true
	}
	return model.FeeStatistics{}, false
}

// fetch queries the source and stores a valid result. The fetch is shared, so it is not
// cancelled with the context of the caller that started it.
func (o *Oracle) fetch(ctx context.Context, started time.Time) model.FeeStatistics {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.FetchTimeout)
	defer cancel()

	stats, err := o.source.FeeStats(fetchCtx)
	if err == nil && !stats.Valid() {
		err = errInvalidStats
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err == nil {
		o.cached = stats
		o.fetchedAt = o.now()
		o.hasCache = true
		o.metrics.ObserveFetch(outcomeSuccess, started)
		return stats
	}

	if o.hasCache {
		o.logger.Warn("fetch fee stats failed, using cached statistics",
			zap.Error(err), zap.Time("fetched_at", o.fetchedAt))
		o.metrics.ObserveFetch(outcomeFallbackCache, started)
		return o.cached
	}

	o.logger.Warn("fetch fee stats failed, using floor statistics", zap.Error(err), zap.Int64("fee", o.cfg.MinFee))
	o.metrics.ObserveFetch(outcomeFallbackFloor, started)
	return model.FloorFeeStatistics(o.cfg.MinFee)
}

// Invalidate drops the cached statistics.
func (o *Oracle) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hasCache = false
	o.cached = model.FeeStatistics{}
	o.fetchedAt = time.Time{}
}

// ClassifyCongestion classifies stats with the package-level rule.
func (o *Oracle) ClassifyCongestion(stats model.FeeStatistics) model.CongestionLevel {
	return ClassifyCongestion(stats)
}

// ClassifyCongestion maps the P90/P10 spread to a congestion level.
// A non-positive P10 is treated as 1.
func ClassifyCongestion(stats model.FeeStatistics) model.CongestionLevel {
	p10 := stats.P10
	if p10 <= 0 {
		p10 = 1
	}
	ratio := float64(stats.P90) / float64(p10)
	switch {
	case ratio > 5:
		return model.CongestionCritical
	case ratio > 3:
		return model.CongestionHigh
	case ratio > 1.5:
		return model.CongestionMedium
	default:
		return model.CongestionLow
	}
}

// RecommendFee prices a transaction: the priority's percentile scaled by the congestion
// multiplier, rounded up and kept within [MinFee, MaxFee].
func (o *Oracle) RecommendFee(stats model.FeeStatistics, priority model.Priority, congestion model.CongestionLevel) int64 {
	multiplier, ok := congestionMultipliers[congestion]
	if !ok {
		multiplier = 1.0
	}

	// Clamped in float space: converting an out-of-range float to int64 is undefined.
	raw := math.Ceil(float64(percentile(stats, priority)) * multiplier)
	var fee int64
	switch {
	case raw >= math.MaxInt64:
		fee = math.MaxInt64
	case raw < float64(o.cfg.MinFee):
		fee = o.cfg.MinFee
	default:
		fee = int64(raw)
	}
	if o.cfg.MaxFee > 0 && fee > o.cfg.MaxFee {
		fee = o.cfg.MaxFee
	}

	o.metrics.ObserveRecommendation(priority, congestion, fee)
	return fee
}

// Recommend fetches statistics, classifies congestion and prices a transaction.
func (o *Oracle) Recommend(ctx context.Context, priority model.Priority) (int64, model.CongestionLevel) {
	stats := o.GetFeeStatistics(ctx, false)
	congestion := ClassifyCongestion(stats)
	return o.RecommendFee(stats, priority, congestion), congestion
}

func percentile(stats model.FeeStatistics, priority model.Priority) int64 {
	switch priority {
	case model.PriorityLow:
		return stats.P10
	case model.PriorityHigh:
		return stats.P90
	default:
		return stats.P50
	}
}
