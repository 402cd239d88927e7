package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/pkg/utils"
	"github.com/savankapadiya/Token-Portfolio/internal/storage"
)

// fakeMarketClient serves canned market records keyed by coin id.
type fakeMarketClient struct {
	coins      map[string]entity.MarketCoin
	marketPage []entity.MarketCoin
	failAll    bool

	marketCalls int
	byIDCalls   int
}

func (f *fakeMarketClient) GetMarketData(ctx context.Context, page, perPage int, forceRefresh bool) ([]entity.MarketCoin, error) {
	f.marketCalls++
	if f.failAll {
		return nil, errors.New("upstream unavailable")
	}
	return f.marketPage, nil
}

func (f *fakeMarketClient) GetCoinsByIDs(ctx context.Context, ids []string) ([]entity.MarketCoin, error) {
	f.byIDCalls++
	if f.failAll {
		return nil, errors.New("upstream unavailable")
	}
	out := []entity.MarketCoin{}
	for _, id := range ids {
		if coin, ok := f.coins[id]; ok {
			out = append(out, coin)
		}
	}
	return out, nil
}

func (f *fakeMarketClient) SearchCoins(ctx context.Context, query string) ([]entity.SearchCoin, error) {
	return []entity.SearchCoin{}, nil
}

func (f *fakeMarketClient) GetTrendingCoins(ctx context.Context) ([]entity.TrendingCoin, error) {
	return nil, nil
}

func (f *fakeMarketClient) GetTokenPriceData(ctx context.Context, addresses []string, network string) (entity.TokenPriceData, error) {
	return nil, nil
}

func coin(id, name, symbol string, price float64) entity.MarketCoin {
	return entity.MarketCoin{
		ID: id, Name: name, Symbol: symbol,
		Image:                    id + ".png",
		CurrentPrice:             price,
		PriceChangePercentage24h: 1.0,
		SparklineIn7d:            &entity.SparklineIn7d{Price: []float64{1, 2, 3}},
	}
}

func newTestService(t *testing.T) (*portfolioServiceImpl, *fakeMarketClient, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	fake := &fakeMarketClient{
		coins: map[string]entity.MarketCoin{
			"bitcoin":  coin("bitcoin", "Bitcoin", "btc", 40000),
			"ethereum": coin("ethereum", "Ethereum", "eth", 2000),
			"solana":   coin("solana", "Solana", "sol", 100),
		},
		marketPage: []entity.MarketCoin{
			coin("bitcoin", "Bitcoin", "btc", 40000),
			coin("ethereum", "Ethereum", "eth", 2000),
		},
	}

	svc := NewPortfolioService(fake, store, zap.NewNop()).(*portfolioServiceImpl)
	return svc, fake, store
}

func TestAnonymousIdentityStartsWithDefaultWatchlist(t *testing.T) {
	svc, _, _ := newTestService(t)
	state := svc.State()

	assert.Equal(t, defaultWatchlist, state.Watchlist)
	for _, id := range state.Watchlist {
		assert.Equal(t, defaultHolding, state.Holdings[id], "every watchlist id gets a holdings entry")
	}
}

func TestAddTokensByIDIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "ethereum"}))
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "solana"}))
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))

	state := svc.State()
	seen := map[string]int{}
	for _, tok := range state.Tokens {
		seen[tok.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "token %s appears %d times", id, n)
	}
	assert.Len(t, state.Tokens, 3)
}

func TestAddTokensByIDPrependsNewTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	require.NoError(t, svc.AddTokensByID(ctx, []string{"solana"}))

	state := svc.State()
	require.Len(t, state.Tokens, 2)
	assert.Equal(t, "solana", state.Tokens[0].ID, "most recent addition shows first")
	assert.Equal(t, "bitcoin", state.Tokens[1].ID)
}

func TestAddTokensByIDDoesNotRefreshExistingPrices(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	fake.coins["bitcoin"] = coin("bitcoin", "Bitcoin", "btc", 99999)
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))

	state := svc.State()
	require.Len(t, state.Tokens, 1)
	assert.Equal(t, 40000.0, state.Tokens[0].CurrentPrice,
		"re-adding an existing token must not update its price")
}

func TestUpdateHoldingRecomputesTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "ethereum"}))

	svc.UpdateHolding("bitcoin", "0.5")
	svc.UpdateHolding("ethereum", "2")

	state := svc.State()
	assert.InDelta(t, 0.5*40000+2*2000, state.Total, 1e-9)

	for _, tok := range state.Tokens {
		if tok.ID == "bitcoin" {
			assert.Equal(t, "0.5", tok.Holdings)
			assert.Equal(t, "$20,000.00", tok.Value)
		}
	}
}

func TestUpdateHoldingKeepsRawStringAndParsesAsZero(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	svc.UpdateHolding("bitcoin", "lots")

	state := svc.State()
	assert.Equal(t, "lots", state.Holdings["bitcoin"], "raw input preserved for editing")
	assert.Equal(t, 0.0, state.Total, "unparseable holdings count as zero")
}

func TestRemoveFromWatchlistRemovesEverywhere(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "ethereum"}))
	svc.UpdateHolding("bitcoin", "1")

	svc.RemoveFromWatchlist("bitcoin")

	state := svc.State()
	assert.NotContains(t, state.Watchlist, "bitcoin")
	for _, tok := range state.Tokens {
		assert.NotEqual(t, "bitcoin", tok.ID)
	}
	_, ok := state.Holdings["bitcoin"]
	assert.False(t, ok)
	assert.Equal(t, 0.0, state.Total)
}

func TestFetchTokensReplacesListAndReappliesHoldings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	svc.UpdateHolding("bitcoin", "2")

	require.NoError(t, svc.FetchTokens(ctx, 1, 10, false))

	state := svc.State()
	require.Len(t, state.Tokens, 2)
	for _, tok := range state.Tokens {
		if tok.ID == "bitcoin" {
			assert.Equal(t, "2", tok.Holdings, "existing holdings re-applied by id")
		}
	}
	assert.InDelta(t, 2*40000, state.Total, 1e-9)
}

func TestFetchTokensFailurePreservesListAndRecordsError(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))

	fake.failAll = true
	err := svc.FetchTokens(ctx, 1, 10, false)
	require.Error(t, err)

	state := svc.State()
	assert.Len(t, state.Tokens, 1, "previous token list preserved on failure")
	assert.NotEmpty(t, state.Error)
	assert.False(t, state.Loading)
}

func TestLoadIdentityRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Build state for wallet A.
	svc.LoadIdentity("0xAAA")
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	svc.UpdateHolding("bitcoin", "1.25")

	// Switch to wallet B; A's data must not leak.
	svc.LoadIdentity("0xBBB")
	state := svc.State()
	assert.Empty(t, state.Tokens, "token list cleared on identity change")
	assert.Empty(t, state.Watchlist)
	require.NoError(t, svc.AddTokensByID(ctx, []string{"solana"}))

	// Back to A: persisted watchlist and holdings restored exactly.
	svc.LoadIdentity("0xAAA")
	state = svc.State()
	assert.Equal(t, []string{"bitcoin"}, state.Watchlist)
	assert.Equal(t, "1.25", state.Holdings["bitcoin"])
	assert.Empty(t, state.Tokens, "tokens are refetched, not restored")
}

func TestLoadIdentitySameAddressKeepsTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.LoadIdentity("0xAAA")
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))

	svc.LoadIdentity("0xaaa") // same identity, different casing
	state := svc.State()
	assert.Len(t, state.Tokens, 1)
}

func TestClearPortfolioErasesPersistedState(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	svc.LoadIdentity("0xAAA")
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	svc.ClearPortfolio()

	state := svc.State()
	assert.Empty(t, state.Tokens)
	assert.Empty(t, state.Watchlist)
	assert.Equal(t, 0.0, state.Total)

	snap, err := store.Load("0xaaa")
	require.NoError(t, err)
	assert.Empty(t, snap.Watchlist, "persisted namespace erased")
}

func TestClearTokensOnlyKeepsStorage(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	svc.LoadIdentity("0xAAA")
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin"}))
	svc.ClearTokensOnly()

	assert.Empty(t, svc.State().Tokens)

	snap, err := store.Load("0xaaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin"}, snap.Watchlist, "persisted state untouched")
}

func TestRefreshResolvesWatchlist(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	svc.LoadIdentity("0xAAA")
	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "ethereum"}))
	svc.ClearTokensOnly()
	svc.LoadIdentity("0xaaa")

	require.NoError(t, svc.Refresh(ctx))
	state := svc.State()
	assert.Len(t, state.Tokens, 2)
	assert.True(t, fake.byIDCalls >= 2)
}

func TestTotalRecomputationInvariant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTokensByID(ctx, []string{"bitcoin", "ethereum", "solana"}))
	svc.UpdateHolding("bitcoin", "0.1")
	svc.UpdateHolding("ethereum", "3")
	svc.UpdateHolding("solana", "not a number")
	svc.RemoveFromWatchlist("ethereum")

	state := svc.State()
	want := 0.0
	for _, tok := range state.Tokens {
		want += tok.CurrentPrice * utils.ParseAmount(state.Holdings[tok.ID])
	}
	assert.InDelta(t, want, state.Total, 1e-9)
	assert.InDelta(t, 0.1*40000, state.Total, 1e-9)
}
