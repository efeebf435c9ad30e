// Package marketdata proxies the journal's quote side-service and serves
// ticker autocomplete. Quotes are cached in Redis with a TTL that tracks
// US market hours: short while the market moves, long overnight.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/database"
)

const (
	quoteCachePrefix = "tradescribe:quote:"

	marketHoursTTL = time.Minute
	offHoursTTL    = time.Hour
)

// Quote is a point-in-time price snapshot with 20-day historical
// volatility when the side-service can compute it.
type Quote struct {
	Ticker        string          `json:"ticker"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent float64         `json:"change_percent"`
	HV20          *float64        `json:"hv20,omitempty"`
	FetchedAt     time.Time       `json:"fetched_at"`
	Cached        bool            `json:"cached"`
}

// Service fetches quotes from the configured quote service.
type Service struct {
	serviceURL string
	httpClient *http.Client
	redis      *database.RedisClient
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a market data service. The Redis client is optional;
// without it every quote is fetched fresh.
func NewService(serviceURL string, redis *database.RedisClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		redis:      redis,
		logger:     logger,
		now:        time.Now,
	}
}

// Quote returns the latest quote for a ticker, served from cache when the
// cached value is still inside its market-hours-aware TTL.
func (s *Service) Quote(ctx context.Context, ticker string) (*Quote, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	key := quoteCachePrefix + ticker

	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key); err == nil {
			var q Quote
			if err := json.Unmarshal([]byte(raw), &q); err == nil {
				q.Cached = true
				return &q, nil
			}
		} else if !database.IsNil(err) {
			s.logger.Warn("quote cache read failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}

	q, err := s.fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(q); err == nil {
			if err := s.redis.Set(ctx, key, data, s.cacheTTL()); err != nil {
				s.logger.Warn("quote cache write failed", zap.String("ticker", ticker), zap.Error(err))
			}
		}
	}
	return q, nil
}

func (s *Service) fetch(ctx context.Context, ticker string) (*Quote, error) {
	u := fmt.Sprintf("%s/api/ticker/quote?symbol=%s", s.serviceURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote service returned status %d for %s", resp.StatusCode, ticker)
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	q.Ticker = ticker
	q.FetchedAt = s.now()
	return &q, nil
}

// cacheTTL is short during US regular trading hours (14:30-21:00 UTC,
// weekdays) and long otherwise.
func (s *Service) cacheTTL() time.Duration {
	now := s.now().UTC()
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return offHoursTTL
	}
	minutes := now.Hour()*60 + now.Minute()
	if minutes >= 14*60+30 && minutes < 21*60 {
		return marketHoursTTL
	}
	return offHoursTTL
}
