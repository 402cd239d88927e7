package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/pkg/metrics"
)

const (
	// DefaultMaxRetries is the retry budget shared by throttling and
	// network failures.
	DefaultMaxRetries = 5
	// DefaultBaseBackoff is the first backoff step.
	DefaultBaseBackoff = 2 * time.Second

	// rateLimitedWindow is how long a 429 keeps the client in
	// "recently rate limited" mode, which shrinks later request sizes.
	rateLimitedWindow = time.Minute

	maxJitter = 2 * time.Second
)

// ErrRateLimited is returned when the retry budget is exhausted on
// HTTP 429 responses.
var ErrRateLimited = errors.New("rate limited by upstream")

// HTTPError is a non-2xx, non-429 upstream response. These are not
// retried: the request itself is wrong, waiting will not fix it.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher executes upstream HTTP requests with the retry policy the free
// tier needs: exponential backoff with jitter on 429, a gentler curve on
// network failures, immediate error on other statuses.
type Fetcher struct {
	client      *fasthttp.Client
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger

	mu            sync.Mutex
	rateLimitedAt time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewFetcher creates a Fetcher. maxRetries and baseBackoff fall back to
// the package defaults when non-positive.
func NewFetcher(timeout time.Duration, maxRetries int, baseBackoff time.Duration, logger *zap.Logger) *Fetcher {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseBackoff <= 0 {
		baseBackoff = DefaultBaseBackoff
	}
	return &Fetcher{
		client:      &fasthttp.Client{},
		timeout:     timeout,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		logger:      logger.Named("Fetcher"),
		now:         time.Now,
		sleep:       sleepContext,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxJitter)))
		},
	}
}

// Do performs a single GET without any retry. The response body is copied
// out of the fasthttp buffers before release.
func (f *Fetcher) Do(ctx context.Context, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = f.client.DoDeadline(req, resp, deadline)
	} else {
		err = f.client.DoTimeout(req, resp, f.timeout)
	}
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		return 0, nil, fmt.Errorf("request to %s failed: %w", url, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)

	switch {
	case status == fasthttp.StatusTooManyRequests:
		metrics.UpstreamRequests.WithLabelValues("throttled").Inc()
	case status < 200 || status > 299:
		metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
	default:
		metrics.UpstreamRequests.WithLabelValues("ok").Inc()
	}
	return status, body, nil
}

// FetchWithRetry fetches url, retrying on 429 with exponential backoff
// (base * 2^attempt + jitter) and on network errors with a gentler curve
// (base * 1.5^attempt). Other non-success statuses fail immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		status, body, err := f.Do(ctx, url)
		if err != nil {
			lastErr = err
			if attempt == f.maxRetries {
				return nil, lastErr
			}
			delay := time.Duration(float64(f.baseBackoff) * math.Pow(1.5, float64(attempt)))
			f.logger.Debug("Network error, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
			metrics.RequestRetries.Inc()
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if status == fasthttp.StatusTooManyRequests {
			f.MarkRateLimited()
			if attempt == f.maxRetries {
				return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, f.maxRetries)
			}
			delay := f.baseBackoff*time.Duration(1<<attempt) + f.jitter()
			f.logger.Warn("Throttled by upstream, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			metrics.RequestRetries.Inc()
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if status < 200 || status > 299 {
			return nil, &HTTPError{StatusCode: status, Body: string(body)}
		}

		return body, nil
	}

	return nil, lastErr
}

// MarkRateLimited records that the upstream throttled us. Callers shrink
// request sizes while RecentlyRateLimited reports true.
func (f *Fetcher) MarkRateLimited() {
	f.mu.Lock()
	f.rateLimitedAt = f.now()
	f.mu.Unlock()
	metrics.RateLimitMarks.Inc()
}

// RecentlyRateLimited reports whether a 429 was seen within the last
// minute.
func (f *Fetcher) RecentlyRateLimited() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.rateLimitedAt.IsZero() && f.now().Sub(f.rateLimitedAt) < rateLimitedWindow
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
