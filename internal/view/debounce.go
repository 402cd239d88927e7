package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/client"
	"github.com/savankapadiya/Token-Portfolio/internal/entity"
)

// DefaultSearchDebounce is the quiet period after the last keystroke
// before a search actually hits the client.
const DefaultSearchDebounce = 300 * time.Millisecond

// ErrSuperseded reports that a newer search replaced this one during
// the debounce window. Callers should simply drop the result.
var ErrSuperseded = errors.New("search superseded by newer input")

// DebouncedSearch coalesces rapid successive queries so only the
// latest one reaches the market data client. Every superseded call
// returns ErrSuperseded instead of stale results.
type DebouncedSearch struct {
	client client.CoinGeckoClient
	delay  time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	gen uint64

	sleep func(ctx context.Context, d time.Duration) error
}

// NewDebouncedSearch wraps the client's coin search with a debounce of
// the given delay.
func NewDebouncedSearch(cli client.CoinGeckoClient, delay time.Duration, logger *zap.Logger) *DebouncedSearch {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &DebouncedSearch{
		client: cli,
		delay:  delay,
		logger: logger.Named("DebouncedSearch"),
		sleep:  sleepContext,
	}
}

// Search waits out the debounce window and then queries, unless a newer
// Search call arrives first. Latest call wins; earlier ones resolve to
// ErrSuperseded without touching the network.
func (d *DebouncedSearch) Search(ctx context.Context, query string) ([]entity.SearchCoin, error) {
	d.mu.Lock()
	d.gen++
	myGen := d.gen
	d.mu.Unlock()

	if err := d.sleep(ctx, d.delay); err != nil {
		return nil, err
	}

	d.mu.Lock()
	superseded := d.gen != myGen
	d.mu.Unlock()
	if superseded {
		d.logger.Debug("Search superseded", zap.String("query", query))
		return nil, ErrSuperseded
	}

	return d.client.SearchCoins(ctx, query)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
