package view

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
)

// fakePortfolio implements port.PortfolioService with a canned state.
type fakePortfolio struct {
	state        entity.PortfolioState
	refreshCalls int
}

func (f *fakePortfolio) FetchTokens(ctx context.Context, page, perPage int, forceRefresh bool) error {
	return nil
}
func (f *fakePortfolio) AddTokensByID(ctx context.Context, ids []string) error { return nil }
func (f *fakePortfolio) RemoveFromWatchlist(id string)                         {}
func (f *fakePortfolio) UpdateHolding(id, amount string)                       {}
func (f *fakePortfolio) LoadIdentity(address string)                           {}
func (f *fakePortfolio) ClearPortfolio()                                       {}
func (f *fakePortfolio) ClearTokensOnly()                                      {}
func (f *fakePortfolio) Refresh(ctx context.Context) error {
	f.refreshCalls++
	return nil
}
func (f *fakePortfolio) State() entity.PortfolioState { return f.state }

func tokens(n int) []entity.Token {
	out := make([]entity.Token, n)
	for i := range out {
		out[i] = entity.Token{ID: fmt.Sprintf("coin-%d", i)}
	}
	return out
}

func TestTokenPageSlicesByPage(t *testing.T) {
	fake := &fakePortfolio{state: entity.PortfolioState{
		Tokens:      tokens(25),
		Total:       1234.5,
		LastUpdated: time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC),
		Identity:    "default",
	}}
	m := NewModel(fake, 10, zap.NewNop())

	page := m.TokenPage(1)
	assert.Equal(t, 3, page.PageCount)
	assert.Equal(t, 25, page.TotalTokens)
	require.Len(t, page.Tokens, 10)
	assert.Equal(t, "coin-0", page.Tokens[0].ID)

	page = m.TokenPage(3)
	require.Len(t, page.Tokens, 5)
	assert.Equal(t, "coin-20", page.Tokens[0].ID)

	assert.Equal(t, "$1,234.50", page.TotalDisplay)
	assert.Equal(t, "02:30:05 PM", page.LastUpdatedDisplay)
}

func TestTokenPageClampsOutOfRange(t *testing.T) {
	fake := &fakePortfolio{state: entity.PortfolioState{Tokens: tokens(5)}}
	m := NewModel(fake, 10, zap.NewNop())

	page := m.TokenPage(99)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Tokens, 5)

	page = m.TokenPage(-3)
	assert.Equal(t, 1, page.Page)
}

func TestTokenPageEmptyList(t *testing.T) {
	fake := &fakePortfolio{state: entity.PortfolioState{}}
	m := NewModel(fake, 10, zap.NewNop())

	page := m.TokenPage(1)
	assert.Equal(t, 1, page.PageCount)
	assert.Empty(t, page.Tokens)
	assert.Equal(t, "", page.LastUpdatedDisplay, "no clock before the first update")
}

// searchRecorder implements client.CoinGeckoClient for the debounce
// tests; only SearchCoins matters.
type searchRecorder struct {
	mu      sync.Mutex
	queries []string
}

func (s *searchRecorder) SearchCoins(ctx context.Context, query string) ([]entity.SearchCoin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return []entity.SearchCoin{{ID: query}}, nil
}

func (s *searchRecorder) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.queries...)
}

func (s *searchRecorder) GetTrendingCoins(ctx context.Context) ([]entity.TrendingCoin, error) {
	return nil, nil
}
func (s *searchRecorder) GetMarketData(ctx context.Context, page, perPage int, forceRefresh bool) ([]entity.MarketCoin, error) {
	return nil, nil
}
func (s *searchRecorder) GetCoinsByIDs(ctx context.Context, ids []string) ([]entity.MarketCoin, error) {
	return nil, nil
}
func (s *searchRecorder) GetTokenPriceData(ctx context.Context, addresses []string, network string) (entity.TokenPriceData, error) {
	return nil, nil
}

func TestDebouncedSearchLatestWins(t *testing.T) {
	rec := &searchRecorder{}
	d := NewDebouncedSearch(rec, 50*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, q := range []string{"b", "bi", "bit"} {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			_, errs[i] = d.Search(ctx, q)
		}(i, q)
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	assert.ErrorIs(t, errs[0], ErrSuperseded)
	assert.ErrorIs(t, errs[1], ErrSuperseded)
	assert.NoError(t, errs[2])
	assert.Equal(t, []string{"bit"}, rec.seen(), "only the final query reaches the client")
}

func TestDebouncedSearchQuietPeriodRunsAll(t *testing.T) {
	rec := &searchRecorder{}
	d := NewDebouncedSearch(rec, 10*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	_, err := d.Search(ctx, "first")
	require.NoError(t, err)
	_, err = d.Search(ctx, "second")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, rec.seen())
}

func TestDebouncedSearchContextCancellation(t *testing.T) {
	rec := &searchRecorder{}
	d := NewDebouncedSearch(rec, time.Hour, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Search(ctx, "bitcoin")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.seen())
}

func TestRefreshAllCombinesPortfolioAndWallet(t *testing.T) {
	fake := &fakePortfolio{}
	m := NewModel(fake, 10, zap.NewNop())

	value, err := m.RefreshAll(context.Background(), stubWallet{value: 42.5}, "0x1234", 1)
	require.NoError(t, err)
	assert.Equal(t, 42.5, value)
	assert.Equal(t, 1, fake.refreshCalls)
}

func TestRefreshAllWithoutWallet(t *testing.T) {
	fake := &fakePortfolio{}
	m := NewModel(fake, 10, zap.NewNop())

	value, err := m.RefreshAll(context.Background(), nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, value)
	assert.Equal(t, 1, fake.refreshCalls)
}

type stubWallet struct{ value float64 }

func (s stubWallet) GetPortfolioValue(ctx context.Context, address string, chainID int64) (float64, error) {
	return s.value, nil
}
