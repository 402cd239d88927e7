package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/savankapadiya/Token-Portfolio/internal/pkg/metrics"
)

// DefaultMinInterval keeps a single client comfortably under the free-tier
// request allowance.
const DefaultMinInterval = 6 * time.Second

const queueCapacity = 256

type queueResult struct {
	body []byte
	err  error
}

type queueItem struct {
	ctx    context.Context
	url    string
	result chan queueResult
}

// Queue serializes upstream requests through a single worker that spaces
// dispatches by a minimum interval. Items drain strictly in arrival
// order; a failed item rejects only its own caller.
type Queue struct {
	fetcher *Fetcher
	limiter *rate.Limiter
	items   chan queueItem
	logger  *zap.Logger

	startOnce sync.Once
}

// NewQueue creates a request queue. minInterval falls back to
// DefaultMinInterval when non-positive. The drain worker starts lazily on
// first Enqueue and lives for the life of the process.
func NewQueue(fetcher *Fetcher, minInterval time.Duration, logger *zap.Logger) *Queue {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Queue{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		items:   make(chan queueItem, queueCapacity),
		logger:  logger.Named("RequestQueue"),
	}
}

// Enqueue submits url for rate-limited fetching and blocks until the
// request completes or ctx is done. Dispatch order follows submission
// order.
func (q *Queue) Enqueue(ctx context.Context, url string) ([]byte, error) {
	q.startOnce.Do(func() { go q.drain() })

	item := queueItem{ctx: ctx, url: url, result: make(chan queueResult, 1)}

	select {
	case q.items <- item:
		metrics.QueueDepth.Inc()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-item.result:
		return res.body, res.err
	case <-ctx.Done():
		// The worker will still run the request; the result channel is
		// buffered so it does not block on a departed caller.
		return nil, ctx.Err()
	}
}

// drain is the single worker loop. Only one runs per queue.
func (q *Queue) drain() {
	for item := range q.items {
		if err := q.limiter.Wait(item.ctx); err != nil {
			metrics.QueueDepth.Dec()
			item.result <- queueResult{err: err}
			continue
		}

		body, err := q.fetcher.FetchWithRetry(item.ctx, item.url)
		metrics.QueueDepth.Dec()
		if err != nil {
			q.logger.Debug("Queued request failed", zap.String("url", item.url), zap.Error(err))
		}
		item.result <- queueResult{body: body, err: err}
	}
}
