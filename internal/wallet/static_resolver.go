package wallet

import (
	"context"

	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
)

// staticResolver implements port.BalanceResolver from a fixed balance
// table. It stands in for a chain-indexing service in development and
// tests.
type staticResolver struct {
	balances map[string]float64
	logger   *zap.Logger
}

// NewStaticResolver returns a resolver that reports the given contract
// balances for every wallet address.
func NewStaticResolver(balances map[string]float64, logger *zap.Logger) port.BalanceResolver {
	return &staticResolver{
		balances: balances,
		logger:   logger.Named("StaticResolver"),
	}
}

func (r *staticResolver) ResolveBalances(ctx context.Context, address string, chainID int64) ([]entity.TokenBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]entity.TokenBalance, 0, len(r.balances))
	for contract, balance := range r.balances {
		out = append(out, entity.TokenBalance{ContractAddress: contract, Balance: balance})
	}
	r.logger.Debug("Serving static balances",
		zap.String("wallet", address),
		zap.Int64("chainID", chainID),
		zap.Int("count", len(out)))
	return out, nil
}
