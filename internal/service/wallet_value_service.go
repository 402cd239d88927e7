package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/savankapadiya/Token-Portfolio/internal/client"
	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
)

// walletValueServiceImpl implements port.WalletValueService: discovered
// balances times resolved contract prices, with per-token failures
// isolated so one bad lookup never fails the whole wallet.
type walletValueServiceImpl struct {
	client        client.CoinGeckoClient
	resolver      port.BalanceResolver
	logger        *zap.Logger
	maxConcurrent int
}

// NewWalletValueService creates a new instance of walletValueServiceImpl.
func NewWalletValueService(cli client.CoinGeckoClient, resolver port.BalanceResolver, maxConcurrent int, logger *zap.Logger) port.WalletValueService {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &walletValueServiceImpl{
		client:        cli,
		resolver:      resolver,
		logger:        logger.Named("WalletValueService"),
		maxConcurrent: maxConcurrent,
	}
}

func (s *walletValueServiceImpl) GetPortfolioValue(ctx context.Context, address string, chainID int64) (float64, error) {
	balances, err := s.resolver.ResolveBalances(ctx, address, chainID)
	if err != nil {
		return 0, fmt.Errorf("resolving balances for %s: %w", address, err)
	}
	if len(balances) == 0 {
		return 0, nil
	}

	network := entity.NetworkFromChainID(chainID)

	var mu sync.Mutex
	total := 0.0

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)

	for _, balance := range balances {
		bal := balance
		eg.Go(func() error {
			prices, err := s.client.GetTokenPriceData(childCtx, []string{bal.ContractAddress}, network)
			if err != nil || prices == nil {
				// Missing price data just leaves this token out of the sum.
				s.logger.Debug("No price data for wallet token",
					zap.String("contract", bal.ContractAddress), zap.Error(err))
				return nil
			}
			price, ok := prices[strings.ToLower(bal.ContractAddress)]
			if !ok {
				return nil
			}
			mu.Lock()
			total += price.USD * bal.Balance
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		s.logger.Error("Wallet value aggregation interrupted", zap.Error(err))
		return 0, err
	}

	s.logger.Info("Wallet value resolved",
		zap.String("address", address),
		zap.Int64("chainID", chainID),
		zap.Int("tokenCount", len(balances)),
		zap.Float64("totalUSD", total))
	return total, nil
}
