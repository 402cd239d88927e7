package view

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/pkg/utils"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
)

// DefaultPageSize is how many tokens a page shows when the caller does
// not choose.
const DefaultPageSize = 10

// Page is one displayable slice of the token list plus the derived
// header strings.
type Page struct {
	Tokens             []entity.Token `json:"tokens"`
	Page               int            `json:"page"`
	PageCount          int            `json:"page_count"`
	TotalTokens        int            `json:"total_tokens"`
	TotalDisplay       string         `json:"total_display"`
	LastUpdatedDisplay string         `json:"last_updated_display"`
	Loading            bool           `json:"loading"`
	Error              string         `json:"error,omitempty"`
	Identity           string         `json:"identity"`
}

// Model derives display state from the portfolio service. It holds no
// token data of its own.
type Model struct {
	service  port.PortfolioService
	pageSize int
	logger   *zap.Logger
}

// NewModel creates a view model over the given portfolio service.
func NewModel(service port.PortfolioService, pageSize int, logger *zap.Logger) *Model {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Model{
		service:  service,
		pageSize: pageSize,
		logger:   logger.Named("ViewModel"),
	}
}

// PageSize reports the configured page size.
func (m *Model) PageSize() int { return m.pageSize }

// TokenPage slices the current token list for display. Pages are
// 1-based; out-of-range pages clamp to the nearest valid page.
func (m *Model) TokenPage(page int) Page {
	state := m.service.State()

	pageCount := int(math.Ceil(float64(len(state.Tokens)) / float64(m.pageSize)))
	if pageCount == 0 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * m.pageSize
	end := start + m.pageSize
	if start > len(state.Tokens) {
		start = len(state.Tokens)
	}
	if end > len(state.Tokens) {
		end = len(state.Tokens)
	}

	lastUpdated := ""
	if !state.LastUpdated.IsZero() {
		lastUpdated = utils.FormatClock(state.LastUpdated)
	}

	return Page{
		Tokens:             state.Tokens[start:end],
		Page:               page,
		PageCount:          pageCount,
		TotalTokens:        len(state.Tokens),
		TotalDisplay:       utils.FormatUSD(state.Total),
		LastUpdatedDisplay: lastUpdated,
		Loading:            state.Loading,
		Error:              state.Error,
		Identity:           state.Identity,
	}
}

// RefreshAll re-resolves the watchlist and, when a wallet service and
// address are present, the on-chain wallet value, concurrently. The
// wallet value is advisory; its failure does not fail the refresh.
func (m *Model) RefreshAll(ctx context.Context, wallet port.WalletValueService, address string, chainID int64) (float64, error) {
	var walletValue float64

	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return m.service.Refresh(childCtx)
	})
	if wallet != nil && address != "" {
		eg.Go(func() error {
			value, err := wallet.GetPortfolioValue(childCtx, address, chainID)
			if err != nil {
				m.logger.Warn("Wallet value refresh failed", zap.String("address", address), zap.Error(err))
				return nil
			}
			walletValue = value
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return walletValue, nil
}
