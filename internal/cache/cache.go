package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/pkg/metrics"
)

// Default TTLs, tuned for the upstream free tier: market data is cached
// long to keep the request budget down, search results shorter so typing
// stays responsive to upstream changes.
const (
	DefaultMarketTTL = 10 * time.Minute
	DefaultSearchTTL = 5 * time.Minute
)

const (
	namespaceMarket = "market"
	namespaceSearch = "search"
)

// Entry is a cached response payload with the time it was stored.
type Entry struct {
	Data      []byte
	Timestamp time.Time
}

// Store is a TTL cache keyed by request URL (market namespace) or
// normalized query text (search namespace). Entries past their TTL are
// not evicted: they are kept so a failed refresh can fall back to the
// last known payload. Expiry is therefore a validity predicate over the
// entry timestamp, not a property of the backing map.
type Store struct {
	market    *gocache.Cache
	search    *gocache.Cache
	marketTTL time.Duration
	searchTTL time.Duration
	logger    *zap.Logger

	now func() time.Time
}

// NewStore creates a cache store with the given TTLs per namespace.
func NewStore(marketTTL, searchTTL time.Duration, logger *zap.Logger) *Store {
	if marketTTL <= 0 {
		marketTTL = DefaultMarketTTL
	}
	if searchTTL <= 0 {
		searchTTL = DefaultSearchTTL
	}
	return &Store{
		market:    gocache.New(gocache.NoExpiration, 0),
		search:    gocache.New(gocache.NoExpiration, 0),
		marketTTL: marketTTL,
		searchTTL: searchTTL,
		logger:    logger.Named("CacheStore"),
		now:       time.Now,
	}
}

// Get returns the market entry for key if it is still within its TTL.
func (s *Store) Get(key string) (Entry, bool) {
	return s.get(s.market, key, s.marketTTL, namespaceMarket)
}

// GetStale returns the market entry for key regardless of age. Used as a
// degraded-mode fallback when a refresh fails.
func (s *Store) GetStale(key string) (Entry, bool) {
	return s.getStale(s.market, key, namespaceMarket)
}

// Set stores data under key in the market namespace.
func (s *Store) Set(key string, data []byte) {
	s.market.Set(key, Entry{Data: data, Timestamp: s.now()}, gocache.NoExpiration)
}

// Delete removes the market entry for key. Used by force refresh.
func (s *Store) Delete(key string) {
	s.market.Delete(key)
}

// GetSearch returns the search entry for key if it is still within its TTL.
func (s *Store) GetSearch(key string) (Entry, bool) {
	return s.get(s.search, key, s.searchTTL, namespaceSearch)
}

// GetSearchStale returns the search entry for key regardless of age.
func (s *Store) GetSearchStale(key string) (Entry, bool) {
	return s.getStale(s.search, key, namespaceSearch)
}

// SetSearch stores data under key in the search namespace.
func (s *Store) SetSearch(key string, data []byte) {
	s.search.Set(key, Entry{Data: data, Timestamp: s.now()}, gocache.NoExpiration)
}

func (s *Store) get(c *gocache.Cache, key string, ttl time.Duration, namespace string) (Entry, bool) {
	v, ok := c.Get(key)
	if !ok {
		metrics.CacheRequests.WithLabelValues(namespace, "miss").Inc()
		return Entry{}, false
	}
	entry := v.(Entry)
	if s.now().Sub(entry.Timestamp) >= ttl {
		metrics.CacheRequests.WithLabelValues(namespace, "miss").Inc()
		s.logger.Debug("Cache entry expired", zap.String("namespace", namespace), zap.String("key", key))
		return Entry{}, false
	}
	metrics.CacheRequests.WithLabelValues(namespace, "hit").Inc()
	return entry, true
}

func (s *Store) getStale(c *gocache.Cache, key string, namespace string) (Entry, bool) {
	v, ok := c.Get(key)
	if !ok {
		return Entry{}, false
	}
	metrics.CacheRequests.WithLabelValues(namespace, "stale").Inc()
	s.logger.Warn("Serving stale cache entry as fallback", zap.String("namespace", namespace), zap.String("key", key))
	return v.(Entry), true
}
