package entity

import "time"

// Token is the normalized asset entry tracked by the portfolio.
// Price, Change and Value are display strings; CurrentPrice and
// ChangePercent24h keep the unformatted numbers so arithmetic never
// has to parse a formatted string.
type Token struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol"`
	IconURL          string    `json:"icon"`
	Price            string    `json:"price"`
	Change           string    `json:"change"`
	Sparkline        []float64 `json:"spark"`
	Holdings         string    `json:"holdings"`
	Value            string    `json:"value"`
	CurrentPrice     float64   `json:"current_price"`
	ChangePercent24h float64   `json:"price_change_percentage_24h"`
}

// PortfolioState is a point-in-time snapshot of the aggregation store.
type PortfolioState struct {
	Tokens      []Token           `json:"tokens"`
	Holdings    map[string]string `json:"holdings"`
	Watchlist   []string          `json:"watchlist"`
	Total       float64           `json:"portfolioTotal"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Loading     bool              `json:"isLoading"`
	Error       string            `json:"error,omitempty"`
	Identity    string            `json:"identity"`
}

// TokenBalance is a discovered on-chain balance for a contract address.
type TokenBalance struct {
	ContractAddress string  `json:"contractAddress"`
	Balance         float64 `json:"balance"`
}

// NetworkFromChainID maps an EVM chain id to the upstream asset-platform
// identifier used by the token price endpoint. Unknown chains fall back
// to ethereum.
func NetworkFromChainID(chainID int64) string {
	switch chainID {
	case 1:
		return "ethereum"
	case 137:
		return "polygon-pos"
	case 42161:
		return "arbitrum-one"
	case 10:
		return "optimistic-ethereum"
	case 8453:
		return "base"
	case 56:
		return "binance-smart-chain"
	case 250:
		return "fantom"
	case 43114:
		return "avalanche"
	default:
		return "ethereum"
	}
}
