package restapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/savankapadiya/Token-Portfolio/internal/entity"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
	"github.com/savankapadiya/Token-Portfolio/internal/view"
)

// PortfolioHandler serves the portfolio endpoints.
type PortfolioHandler struct {
	service  port.PortfolioService
	wallet   port.WalletValueService
	model    *view.Model
	search   *view.DebouncedSearch
	trending TrendingFetcher
	chainID  int64
	logger   *zap.Logger
}

// TrendingFetcher is the slice of the market data client the trending
// endpoint needs.
type TrendingFetcher interface {
	GetTrendingCoins(ctx context.Context) ([]entity.TrendingCoin, error)
}

// NewPortfolioHandler creates a new instance of PortfolioHandler.
func NewPortfolioHandler(
	service port.PortfolioService,
	wallet port.WalletValueService,
	model *view.Model,
	search *view.DebouncedSearch,
	trending TrendingFetcher,
	chainID int64,
	logger *zap.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		service:  service,
		wallet:   wallet,
		model:    model,
		search:   search,
		trending: trending,
		chainID:  chainID,
		logger:   logger.Named("PortfolioHandler"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetTokensHandler returns one display page of the token list.
func (h *PortfolioHandler) GetTokensHandler(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}
	c.JSON(http.StatusOK, h.model.TokenPage(page))
}

// RefreshTokensHandler refetches the current page of market data,
// bypassing the cache when force=true.
func (h *PortfolioHandler) RefreshTokensHandler(c *gin.Context) {
	force := c.Query("force") == "true"
	page := 1
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}

	if err := h.service.FetchTokens(c.Request.Context(), page, h.model.PageSize(), force); err != nil {
		// Stale data stays visible; report the failure alongside it.
		c.JSON(http.StatusOK, h.model.TokenPage(page))
		return
	}
	c.JSON(http.StatusOK, h.model.TokenPage(page))
}

type addTokensRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// AddTokensHandler adds coins to the watchlist by id.
func (h *PortfolioHandler) AddTokensHandler(c *gin.Context) {
	var req addTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.service.AddTokensByID(c.Request.Context(), req.IDs); err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.model.TokenPage(1))
}

// RemoveTokenHandler removes a coin from the watchlist.
func (h *PortfolioHandler) RemoveTokenHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing token id"})
		return
	}
	h.service.RemoveFromWatchlist(id)
	c.JSON(http.StatusOK, h.model.TokenPage(1))
}

type updateHoldingRequest struct {
	Amount string `json:"amount"`
}

// UpdateHoldingHandler sets the holdings amount for a coin.
func (h *PortfolioHandler) UpdateHoldingHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing token id"})
		return
	}
	var req updateHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.service.UpdateHolding(id, req.Amount)
	c.JSON(http.StatusOK, h.model.TokenPage(1))
}

type identityRequest struct {
	Address string `json:"address"`
}

// SetIdentityHandler switches the active identity namespace.
func (h *PortfolioHandler) SetIdentityHandler(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.service.LoadIdentity(req.Address)
	c.JSON(http.StatusOK, h.model.TokenPage(1))
}

// SearchHandler runs a debounced coin search.
func (h *PortfolioHandler) SearchHandler(c *gin.Context) {
	query := c.Query("q")
	coins, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		if err == view.ErrSuperseded {
			c.JSON(http.StatusOK, gin.H{"coins": []entity.SearchCoin{}, "superseded": true})
			return
		}
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

// TrendingHandler returns the upstream trending list.
func (h *PortfolioHandler) TrendingHandler(c *gin.Context) {
	coins, err := h.trending.GetTrendingCoins(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

// WalletValueHandler resolves the USD value of an on-chain wallet.
func (h *PortfolioHandler) WalletValueHandler(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing address"})
		return
	}
	chainID := h.chainID
	if raw := c.Query("chainId"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			chainID = v
		}
	}

	value, err := h.wallet.GetPortfolioValue(c.Request.Context(), address, chainID)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "chain_id": chainID, "total_usd": value})
}

// ClearPortfolioHandler erases the active namespace, in memory and on
// disk.
func (h *PortfolioHandler) ClearPortfolioHandler(c *gin.Context) {
	h.service.ClearPortfolio()
	c.JSON(http.StatusOK, h.model.TokenPage(1))
}
