package entity

// MarketCoin mirrors one element of the /coins/markets response.
type MarketCoin struct {
	ID                       string         `json:"id"`
	Symbol                   string         `json:"symbol"`
	Name                     string         `json:"name"`
	Image                    string         `json:"image"`
	CurrentPrice             float64        `json:"current_price"`
	MarketCapRank            int            `json:"market_cap_rank"`
	PriceChangePercentage24h float64        `json:"price_change_percentage_24h"`
	SparklineIn7d            *SparklineIn7d `json:"sparkline_in_7d,omitempty"`
}

// SparklineIn7d holds the recent price samples attached to a market entry.
type SparklineIn7d struct {
	Price []float64 `json:"price"`
}

// SearchCoin mirrors one element of the /search response coins array.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// SearchResponse is the /search payload wrapper.
type SearchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// TrendingCoin mirrors the item object of a /search/trending entry.
type TrendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// TrendingItem wraps a trending coin the way the upstream nests it.
type TrendingItem struct {
	Item TrendingCoin `json:"item"`
}

// TrendingResponse is the /search/trending payload wrapper.
type TrendingResponse struct {
	Coins []TrendingItem `json:"coins"`
}

// ContractPrice mirrors the per-address object of /simple/token_price.
type ContractPrice struct {
	USD           float64 `json:"usd"`
	USDMarketCap  float64 `json:"usd_market_cap"`
	USD24hVol     float64 `json:"usd_24h_vol"`
	USD24hChange  float64 `json:"usd_24h_change"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

// TokenPriceData maps a lower-cased contract address to its price record.
type TokenPriceData map[string]ContractPrice
