package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/cache"
	"github.com/savankapadiya/Token-Portfolio/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the public (demo/free) API host.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultProBaseURL is the host used when a pro key is configured.
	DefaultProBaseURL = "https://pro-api.coingecko.com/api/v3"

	// DefaultThrottleCooldown is the wait before retrying a throttled
	// market-data request with a halved page size.
	DefaultThrottleCooldown = 10 * time.Second

	// rateLimitedPerPageCap caps page size while the client was recently
	// throttled, to reduce payload and penalty risk.
	rateLimitedPerPageCap = 50
)

// CoinGeckoClient builds market data requests and routes them through the
// cache store and rate-limited queue.
type CoinGeckoClient interface {
	// SearchCoins returns best-effort matches for query. An empty query
	// yields an empty result without a network call. Failures degrade to
	// cached results, then to an empty slice; the caller never sees an
	// error.
	SearchCoins(ctx context.Context, query string) ([]entity.SearchCoin, error)

	// GetTrendingCoins returns the current trending entries, trying a
	// direct fetch first and falling back to the cached/queued path.
	GetTrendingCoins(ctx context.Context) ([]entity.TrendingCoin, error)

	// GetMarketData returns one page of the market snapshot in upstream
	// (market-cap descending) order. forceRefresh invalidates the cached
	// entry for this exact request and tries a direct fetch first.
	GetMarketData(ctx context.Context, page, perPage int, forceRefresh bool) ([]entity.MarketCoin, error)

	// GetCoinsByIDs fetches market data, including sparklines, for a
	// specific id set.
	GetCoinsByIDs(ctx context.Context, ids []string) ([]entity.MarketCoin, error)

	// GetTokenPriceData fetches contract price data one address per call
	// (free-tier constraint) and aggregates partial successes. It returns
	// nil when no address succeeds.
	GetTokenPriceData(ctx context.Context, addresses []string, network string) (entity.TokenPriceData, error)
}

// CoinGeckoConfig carries the connection settings for the upstream API.
type CoinGeckoConfig struct {
	BaseURL          string
	ProBaseURL       string
	APIKey           string
	ProAPIKey        string
	ThrottleCooldown time.Duration
}

type coinGeckoClientImpl struct {
	cfg     CoinGeckoConfig
	cache   *cache.Store
	queue   *Queue
	fetcher *Fetcher
	logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(cfg CoinGeckoConfig, store *cache.Store, queue *Queue, fetcher *Fetcher, logger *zap.Logger) CoinGeckoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ProBaseURL == "" {
		cfg.ProBaseURL = DefaultProBaseURL
	}
	if cfg.ThrottleCooldown <= 0 {
		cfg.ThrottleCooldown = DefaultThrottleCooldown
	}
	return &coinGeckoClientImpl{
		cfg:     cfg,
		cache:   store,
		queue:   queue,
		fetcher: fetcher,
		logger:  logger.Named("CoinGeckoClient"),
		sleep:   sleepContext,
	}
}

// apiURL appends the configured API key as a query parameter. A pro key
// switches both the host and the key parameter name.
func (c *coinGeckoClientImpl) apiURL(endpoint string) string {
	base := c.cfg.BaseURL
	keyParam := ""
	if c.cfg.ProAPIKey != "" {
		base = c.cfg.ProBaseURL
		keyParam = "x_cg_pro_api_key=" + url.QueryEscape(c.cfg.ProAPIKey)
	} else if c.cfg.APIKey != "" {
		keyParam = "x_cg_demo_api_key=" + url.QueryEscape(c.cfg.APIKey)
	}
	if keyParam == "" {
		return base + endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return base + endpoint + sep + keyParam
}

// cachedFetch serves requestURL from the market cache when fresh,
// otherwise goes through the rate-limited queue. On failure the last
// cached payload, however old, is returned instead of the error; the
// error propagates only when nothing was ever cached.
func (c *coinGeckoClientImpl) cachedFetch(ctx context.Context, requestURL string) ([]byte, error) {
	if entry, ok := c.cache.Get(requestURL); ok {
		return entry.Data, nil
	}

	body, err := c.queue.Enqueue(ctx, requestURL)
	if err != nil {
		if entry, ok := c.cache.GetStale(requestURL); ok {
			return entry.Data, nil
		}
		return nil, err
	}

	c.cache.Set(requestURL, body)
	return body, nil
}

func (c *coinGeckoClientImpl) SearchCoins(ctx context.Context, query string) ([]entity.SearchCoin, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return []entity.SearchCoin{}, nil
	}

	searchKey := "search:" + normalized
	if entry, ok := c.cache.GetSearch(searchKey); ok {
		return decodeSearchCoins(entry.Data)
	}

	requestURL := c.apiURL("/search?query=" + url.QueryEscape(normalized))

	// Interactive read: skip the queue so search-as-you-type stays
	// responsive, fall back to cached state when the direct fetch fails.
	status, body, err := c.fetcher.Do(ctx, requestURL)
	if err == nil && status >= 200 && status <= 299 {
		var resp entity.SearchResponse
		if uerr := json.Unmarshal(body, &resp); uerr == nil {
			if coinsJSON, merr := json.Marshal(resp.Coins); merr == nil {
				c.cache.SetSearch(searchKey, coinsJSON)
			}
			c.cache.Set(requestURL, body)
			return resp.Coins, nil
		}
	}
	if status == 429 {
		c.fetcher.MarkRateLimited()
	}

	if entry, ok := c.cache.GetSearchStale(searchKey); ok {
		return decodeSearchCoins(entry.Data)
	}
	if entry, ok := c.cache.GetStale(requestURL); ok {
		var resp entity.SearchResponse
		if uerr := json.Unmarshal(entry.Data, &resp); uerr == nil {
			return resp.Coins, nil
		}
	}

	c.logger.Warn("Search failed with no cached fallback, returning empty result",
		zap.String("query", normalized), zap.Int("status", status), zap.Error(err))
	return []entity.SearchCoin{}, nil
}

func (c *coinGeckoClientImpl) GetTrendingCoins(ctx context.Context) ([]entity.TrendingCoin, error) {
	requestURL := c.apiURL("/search/trending")

	if entry, ok := c.cache.Get(requestURL); ok {
		return decodeTrending(entry.Data)
	}

	// Direct fetch first for an instant response on this interactive read.
	status, body, err := c.fetcher.Do(ctx, requestURL)
	if err == nil && status >= 200 && status <= 299 {
		c.cache.Set(requestURL, body)
		return decodeTrending(body)
	}
	if status == 429 {
		c.fetcher.MarkRateLimited()
	}
	c.logger.Debug("Direct trending fetch failed, falling back to queued path",
		zap.Int("status", status), zap.Error(err))

	body, err = c.cachedFetch(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("fetching trending coins: %w", err)
	}
	return decodeTrending(body)
}

func (c *coinGeckoClientImpl) GetMarketData(ctx context.Context, page, perPage int, forceRefresh bool) ([]entity.MarketCoin, error) {
	adjustedPerPage := perPage
	if c.fetcher.RecentlyRateLimited() && adjustedPerPage > rateLimitedPerPageCap {
		c.logger.Info("Recently rate limited, capping page size",
			zap.Int("requested", perPage), zap.Int("capped", rateLimitedPerPageCap))
		adjustedPerPage = rateLimitedPerPageCap
	}

	endpoint := fmt.Sprintf("/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=%d&sparkline=false&price_change_percentage=24h",
		adjustedPerPage, page)
	requestURL := c.apiURL(endpoint)

	if forceRefresh {
		c.cache.Delete(requestURL)

		status, body, err := c.fetcher.Do(ctx, requestURL)
		if err == nil && status >= 200 && status <= 299 {
			c.cache.Set(requestURL, body)
			return decodeMarketCoins(body)
		}
		if status == 429 {
			c.fetcher.MarkRateLimited()
		}
		c.logger.Debug("Direct refresh fetch failed, falling back to queued path",
			zap.Int("status", status), zap.Error(err))
	}

	body, err := c.cachedFetch(ctx, requestURL)
	if err != nil {
		if errors.Is(err, ErrRateLimited) && perPage > 20 {
			c.logger.Warn("Market data throttled, retrying with halved page size",
				zap.Int("perPage", perPage), zap.Duration("cooldown", c.cfg.ThrottleCooldown))
			if serr := c.sleep(ctx, c.cfg.ThrottleCooldown); serr != nil {
				return nil, serr
			}
			return c.GetMarketData(ctx, page, perPage/2, forceRefresh)
		}
		return nil, fmt.Errorf("fetching market data page %d: %w", page, err)
	}
	return decodeMarketCoins(body)
}

func (c *coinGeckoClientImpl) GetCoinsByIDs(ctx context.Context, ids []string) ([]entity.MarketCoin, error) {
	if len(ids) == 0 {
		return []entity.MarketCoin{}, nil
	}

	endpoint := fmt.Sprintf("/coins/markets?ids=%s&vs_currency=usd&order=market_cap_desc&per_page=250&page=1&sparkline=true&price_change_percentage=24h",
		url.QueryEscape(strings.Join(ids, ",")))
	requestURL := c.apiURL(endpoint)

	body, err := c.cachedFetch(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("fetching coins by ids: %w", err)
	}
	return decodeMarketCoins(body)
}

func (c *coinGeckoClientImpl) GetTokenPriceData(ctx context.Context, addresses []string, network string) (entity.TokenPriceData, error) {
	if network == "" {
		network = "ethereum"
	}

	results := make(entity.TokenPriceData)
	// One contract address per request: the free plan rejects batches.
	for _, address := range addresses {
		endpoint := fmt.Sprintf("/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd&include_market_cap=true&include_24hr_vol=true&include_24hr_change=true&include_last_updated_at=true",
			url.PathEscape(network), url.QueryEscape(address))
		requestURL := c.apiURL(endpoint)

		body, err := c.cachedFetch(ctx, requestURL)
		if err != nil {
			c.logger.Debug("Token price lookup failed, continuing with remaining addresses",
				zap.String("address", address), zap.Error(err))
			continue
		}

		var priceData entity.TokenPriceData
		if err := json.Unmarshal(body, &priceData); err != nil {
			c.logger.Debug("Token price payload unmarshal failed",
				zap.String("address", address), zap.Error(err))
			continue
		}
		for addr, price := range priceData {
			results[strings.ToLower(addr)] = price
		}
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

func decodeMarketCoins(body []byte) ([]entity.MarketCoin, error) {
	var coins []entity.MarketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("unmarshalling market data: %w", err)
	}
	return coins, nil
}

func decodeSearchCoins(body []byte) ([]entity.SearchCoin, error) {
	var coins []entity.SearchCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("unmarshalling search results: %w", err)
	}
	return coins, nil
}

func decodeTrending(body []byte) ([]entity.TrendingCoin, error) {
	var resp entity.TrendingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshalling trending payload: %w", err)
	}
	coins := make([]entity.TrendingCoin, 0, len(resp.Coins))
	for _, item := range resp.Coins {
		coins = append(coins, item.Item)
	}
	return coins, nil
}
