package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
)

// ERC20 ABI minimal part for balanceOf and decimals.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// evmResolver implements port.BalanceResolver against an EVM JSON-RPC
// node for a fixed contract set. Tracking which contracts to look at is
// configuration; discovering arbitrary holdings needs an indexing
// service and is out of scope here.
type evmResolver struct {
	ethClient     *ethclient.Client
	contracts     []string
	callTimeout   time.Duration
	maxConcurrent int
	logger        *zap.Logger
}

// NewEVMResolver dials rpcURL and returns a resolver for the given
// tracked contract addresses.
func NewEVMResolver(ctx context.Context, rpcURL string, contracts []string, callTimeout time.Duration, logger *zap.Logger) (port.BalanceResolver, error) {
	initParsedERC20ABI()

	cli, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &evmResolver{
		ethClient:     cli,
		contracts:     contracts,
		callTimeout:   callTimeout,
		maxConcurrent: 4,
		logger:        logger.Named("EVMResolver"),
	}, nil
}

func (r *evmResolver) ResolveBalances(ctx context.Context, address string, chainID int64) ([]entity.TokenBalance, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid wallet address: %s", address)
	}
	owner := common.HexToAddress(address)

	var mu sync.Mutex
	balances := make([]entity.TokenBalance, 0, len(r.contracts))

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.maxConcurrent)

	for _, contract := range r.contracts {
		addr := contract
		eg.Go(func() error {
			bal, err := r.tokenBalance(childCtx, addr, owner)
			if err != nil {
				// One unreadable contract must not fail the wallet.
				r.logger.Warn("Balance read failed",
					zap.String("contract", addr),
					zap.String("wallet", address),
					zap.Error(err))
				return nil
			}
			if bal > 0 {
				mu.Lock()
				balances = append(balances, entity.TokenBalance{ContractAddress: addr, Balance: bal})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved wallet balances",
		zap.String("wallet", address),
		zap.Int64("chainID", chainID),
		zap.Int("nonZero", len(balances)))
	return balances, nil
}

// tokenBalance reads balanceOf and decimals for one contract and returns
// the balance as a display-scale float.
func (r *evmResolver) tokenBalance(ctx context.Context, contract string, owner common.Address) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	if !common.IsHexAddress(contract) {
		return 0, fmt.Errorf("invalid contract address: %s", contract)
	}
	to := common.HexToAddress(contract)

	raw, err := r.contractCall(callCtx, to, "balanceOf", owner)
	if err != nil {
		return 0, err
	}
	var amount *big.Int
	if err := parsedERC20ABI.UnpackIntoInterface(&amount, "balanceOf", raw); err != nil {
		return 0, fmt.Errorf("unpacking balanceOf result: %w", err)
	}

	decimals := uint8(18)
	if raw, err := r.contractCall(callCtx, to, "decimals"); err == nil {
		var d uint8
		if err := parsedERC20ABI.UnpackIntoInterface(&d, "decimals", raw); err == nil {
			decimals = d
		}
	}

	value := new(big.Float).SetInt(amount)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(value, scale).Float64()
	return out, nil
}

func (r *evmResolver) contractCall(ctx context.Context, to common.Address, method string, args ...interface{}) ([]byte, error) {
	data, err := parsedERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %w", method, err)
	}
	raw, err := r.ethClient.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s on %s: %w", method, to.Hex(), err)
	}
	return raw, nil
}
