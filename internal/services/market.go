package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/metrics"
)

type MarketOptions struct {
	BaseURL  string
	AppID    string
	AppKey   string
	Country  string
	CacheTTL time.Duration
}

// MarketService serves salary histograms from an external jobs API,
// cached in Redis.
type MarketService interface {
	SalaryHistogram(ctx context.Context, title, location string) (map[string]int, error)
}

type marketService struct {
	opts       MarketOptions
	redis      *redis.Client
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMarketService(opts MarketOptions, rdb *redis.Client, logger *zap.Logger) MarketService {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Country == "" {
		opts.Country = "in"
	}
	return &marketService{
		opts:       opts,
		redis:      rdb,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func salaryCacheKey(title, location string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return fmt.Sprintf("market:salary:%s:%s", norm(title), norm(location))
}

// SalaryHistogram implements MarketService.
func (m *marketService) SalaryHistogram(ctx context.Context, title, location string) (map[string]int, error) {
	cacheKey := salaryCacheKey(title, location)

	val, err := m.redis.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		var cached map[string]int
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			metrics.MarketCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		m.logger.Warn("discarding corrupt salary cache entry", zap.String("key", cacheKey))
		metrics.MarketCacheTotal.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.MarketCacheTotal.WithLabelValues("miss").Inc()
	default:
		m.logger.Warn("salary cache read failed", zap.String("key", cacheKey), zap.Error(err))
		metrics.MarketCacheTotal.WithLabelValues("error").Inc()
	}

	histogram, err := m.fetchHistogram(ctx, title, location)
	if err != nil {
		return nil, err
	}

	m.storeHistogram(ctx, cacheKey, histogram)
	return histogram, nil
}

// storeHistogram caches histogram under key. Failures are logged and
// otherwise ignored.
func (m *marketService) storeHistogram(ctx context.Context, key string, histogram map[string]int) {
	data, err := json.Marshal(histogram)
	if err != nil {
		m.logger.Warn("salary cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.redis.Set(ctx, key, data, m.opts.CacheTTL).Err(); err != nil {
		m.logger.Warn("salary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *marketService) fetchHistogram(ctx context.Context, title, location string) (map[string]int, error) {
	params := url.Values{}
	params.Set("app_id", m.opts.AppID)
	params.Set("app_key", m.opts.AppKey)
	params.Set("what", title)
	if location != "" {
		params.Set("where", location)
	}

	endpoint := fmt.Sprintf("%s/jobs/%s/histogram?%s",
		strings.TrimRight(m.opts.BaseURL, "/"), url.PathEscape(m.opts.Country), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: market request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read market response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newUpstreamError("market", resp.StatusCode, body)
	}

	var payload struct {
		Histogram map[string]int `json:"histogram"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode market response: %v", ErrUpstream, err)
	}
	if payload.Histogram == nil {
		payload.Histogram = map[string]int{}
	}
	return payload.Histogram, nil
}
