package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/client"
	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/pkg/utils"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
	"github.com/savankapadiya/Token-Portfolio/internal/storage"
)

const (
	// defaultHolding is the holdings value a token starts with when it
	// enters the watchlist.
	defaultHolding = "0.0000"

	// sparkWindow is how many trailing sparkline samples are kept for
	// display.
	sparkWindow = 20
)

// defaultWatchlist seeds a fresh anonymous namespace.
var defaultWatchlist = []string{"bitcoin", "ethereum", "solana", "dogecoin", "usd-coin", "stellar"}

// portfolioServiceImpl implements port.PortfolioService. It owns the
// token list, holdings and watchlist for exactly one identity at a time;
// a mutex serializes transitions so the total is never computed from a
// half-applied mutation.
type portfolioServiceImpl struct {
	client client.CoinGeckoClient
	store  *storage.LocalStore
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	identity    string
	tokens      []entity.Token
	holdings    map[string]string
	watchlist   []string
	total       float64
	lastUpdated time.Time
	loading     bool
	lastErr     string
}

// NewPortfolioService creates the aggregation store bound to the
// anonymous namespace.
func NewPortfolioService(cli client.CoinGeckoClient, store *storage.LocalStore, logger *zap.Logger) port.PortfolioService {
	s := &portfolioServiceImpl{
		client:   cli,
		store:    store,
		logger:   logger.Named("PortfolioService"),
		now:      time.Now,
		holdings: map[string]string{},
	}
	s.LoadIdentity("")
	return s
}

func (s *portfolioServiceImpl) FetchTokens(ctx context.Context, page, perPage int, forceRefresh bool) error {
	s.setLoading()

	coins, err := s.client.GetMarketData(ctx, page, perPage, forceRefresh)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		// Previous token list stays intact; the error is advisory.
		s.lastErr = err.Error()
		s.logger.Error("Fetching tokens failed, keeping previous list", zap.Error(err))
		return err
	}

	tokens := make([]entity.Token, 0, len(coins))
	for _, coin := range coins {
		holding, ok := s.holdings[coin.ID]
		if !ok {
			holding = defaultHolding
		}
		tokens = append(tokens, normalizeToken(coin, holding))
	}
	s.tokens = tokens
	s.recomputeLocked()
	return nil
}

func (s *portfolioServiceImpl) AddTokensByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.setLoading()

	coins, err := s.client.GetCoinsByIDs(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error("Adding tokens failed", zap.Strings("ids", ids), zap.Error(err))
		return err
	}

	var added []entity.Token
	for _, coin := range coins {
		if s.hasTokenLocked(coin.ID) {
			// Idempotent add: no duplicate entry and no price refresh
			// side effect for tokens already in the list.
			continue
		}
		if _, ok := s.holdings[coin.ID]; !ok {
			s.holdings[coin.ID] = defaultHolding
		}
		added = append(added, normalizeToken(coin, s.holdings[coin.ID]))
		if !containsID(s.watchlist, coin.ID) {
			s.watchlist = append(s.watchlist, coin.ID)
		}
	}
	if len(added) > 0 {
		// Newest additions show first.
		s.tokens = append(added, s.tokens...)
	}

	s.recomputeLocked()
	s.persistLocked()
	return nil
}

func (s *portfolioServiceImpl) RemoveFromWatchlist(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, wid := range s.watchlist {
		if wid == id {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			break
		}
	}
	for i, tok := range s.tokens {
		if tok.ID == id {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			break
		}
	}
	delete(s.holdings, id)

	s.recomputeLocked()
	s.persistLocked()
}

func (s *portfolioServiceImpl) UpdateHolding(id, amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The raw string is kept for editing; parse failures count as zero
	// in the arithmetic below.
	s.holdings[id] = amount

	s.recomputeLocked()
	s.persistLocked()
}

func (s *portfolioServiceImpl) LoadIdentity(address string) {
	namespace := storage.Namespace(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	if namespace != s.identity {
		// Never leak one identity's token list into another's view.
		s.tokens = nil
		s.identity = namespace
	}

	snap, err := s.store.Load(namespace)
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error("Loading identity namespace failed", zap.String("namespace", namespace), zap.Error(err))
		snap = storage.Snapshot{Watchlist: []string{}, Holdings: map[string]string{}}
	}

	if namespace == storage.AnonymousNamespace && len(snap.Watchlist) == 0 {
		snap.Watchlist = append([]string{}, defaultWatchlist...)
	}

	s.watchlist = snap.Watchlist
	s.holdings = snap.Holdings
	for _, id := range s.watchlist {
		if _, ok := s.holdings[id]; !ok {
			s.holdings[id] = defaultHolding
		}
	}

	s.recomputeLocked()
	s.logger.Info("Identity loaded",
		zap.String("namespace", namespace),
		zap.Int("watchlistSize", len(s.watchlist)))
}

func (s *portfolioServiceImpl) ClearPortfolio() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	if err := s.store.Clear(s.identity); err != nil {
		s.lastErr = err.Error()
		s.logger.Error("Clearing persisted namespace failed", zap.String("namespace", s.identity), zap.Error(err))
	}
}

func (s *portfolioServiceImpl) ClearTokensOnly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *portfolioServiceImpl) Refresh(ctx context.Context) error {
	s.mu.Lock()
	watchlist := append([]string{}, s.watchlist...)
	s.mu.Unlock()

	if len(watchlist) == 0 {
		return nil
	}
	return s.AddTokensByID(ctx, watchlist)
}

func (s *portfolioServiceImpl) State() entity.PortfolioState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := entity.PortfolioState{
		Tokens:      append([]entity.Token{}, s.tokens...),
		Holdings:    make(map[string]string, len(s.holdings)),
		Watchlist:   append([]string{}, s.watchlist...),
		Total:       s.total,
		LastUpdated: s.lastUpdated,
		Loading:     s.loading,
		Error:       s.lastErr,
		Identity:    s.identity,
	}
	for id, h := range s.holdings {
		state.Holdings[id] = h
	}
	return state
}

func (s *portfolioServiceImpl) setLoading() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *portfolioServiceImpl) resetLocked() {
	s.tokens = nil
	s.holdings = map[string]string{}
	s.watchlist = []string{}
	s.total = 0
	s.lastErr = ""
	s.lastUpdated = s.now()
}

// recomputeLocked re-derives every token's displayed value and the
// portfolio total from current holdings and numeric prices. Runs after
// every state-mutating transition.
func (s *portfolioServiceImpl) recomputeLocked() {
	total := 0.0
	for i := range s.tokens {
		tok := &s.tokens[i]
		holding, ok := s.holdings[tok.ID]
		if !ok {
			holding = "0"
		}
		amount := utils.ParseAmount(holding)
		value := amount * tok.CurrentPrice

		tok.Holdings = holding
		tok.Value = utils.FormatUSD(value)
		total += value
	}
	s.total = total
	s.lastUpdated = s.now()
}

func (s *portfolioServiceImpl) persistLocked() {
	snap := storage.Snapshot{
		Watchlist: append([]string{}, s.watchlist...),
		Holdings:  make(map[string]string, len(s.holdings)),
	}
	for id, h := range s.holdings {
		snap.Holdings[id] = h
	}
	if err := s.store.Save(s.identity, snap); err != nil {
		s.lastErr = err.Error()
		s.logger.Error("Persisting namespace failed", zap.String("namespace", s.identity), zap.Error(err))
	}
}

func (s *portfolioServiceImpl) hasTokenLocked(id string) bool {
	for _, tok := range s.tokens {
		if tok.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// normalizeToken maps an upstream market record to the Token shape,
// keeping the numeric price and change alongside the display strings.
func normalizeToken(coin entity.MarketCoin, holding string) entity.Token {
	spark := []float64{}
	if coin.SparklineIn7d != nil {
		spark = utils.LastN(coin.SparklineIn7d.Price, sparkWindow)
	}
	amount := utils.ParseAmount(holding)

	return entity.Token{
		ID:               coin.ID,
		Name:             fmt.Sprintf("%s (%s)", coin.Name, strings.ToUpper(coin.Symbol)),
		Symbol:           strings.ToUpper(coin.Symbol),
		IconURL:          coin.Image,
		Price:            utils.FormatUSD(coin.CurrentPrice),
		Change:           utils.FormatSignedPercent(coin.PriceChangePercentage24h),
		Sparkline:        spark,
		Holdings:         holding,
		Value:            utils.FormatUSD(amount * coin.CurrentPrice),
		CurrentPrice:     coin.CurrentPrice,
		ChangePercent24h: coin.PriceChangePercentage24h,
	}
}
