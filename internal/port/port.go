package port

import (
	"context"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
)

// PortfolioService defines the aggregation store for the active identity:
// tokens, holdings, watchlist and the derived portfolio total. All state
// moves through these transitions; the total is recomputed before any
// transition returns.
type PortfolioService interface {
	// FetchTokens replaces the token list with a freshly fetched market
	// page, re-applying existing holdings by id. On failure the previous
	// list is preserved and the error is recorded on the state.
	FetchTokens(ctx context.Context, page, perPage int, forceRefresh bool) error

	// AddTokensByID resolves ids to tokens and adds the ones not already
	// present, newest first. Tokens already present are left untouched.
	AddTokensByID(ctx context.Context, ids []string) error

	// RemoveFromWatchlist drops id from the watchlist, the token list and
	// holdings, then persists both.
	RemoveFromWatchlist(id string)

	// UpdateHolding sets the raw holdings string for id. Non-numeric
	// input counts as zero for arithmetic but the string is preserved.
	UpdateHolding(id, amount string)

	// LoadIdentity binds the store to the namespace for address (empty
	// for the anonymous default). A changed address clears the in-memory
	// token list so it is refetched against the new watchlist.
	LoadIdentity(address string)

	// ClearPortfolio resets all state and erases the persisted namespace.
	ClearPortfolio()

	// ClearTokensOnly resets in-memory state without touching storage.
	ClearTokensOnly()

	// Refresh re-resolves the current watchlist against live prices.
	Refresh(ctx context.Context) error

	// State returns a copy of the current portfolio state.
	State() entity.PortfolioState
}

// WalletValueService derives a connected wallet's USD value from
// discovered token balances and resolved prices.
type WalletValueService interface {
	GetPortfolioValue(ctx context.Context, address string, chainID int64) (float64, error)
}

// BalanceResolver discovers token balances held by a wallet. Production
// implementations query a chain node or indexing service.
type BalanceResolver interface {
	ResolveBalances(ctx context.Context, address string, chainID int64) ([]entity.TokenBalance, error)
}
