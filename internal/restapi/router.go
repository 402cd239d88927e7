package restapi

import (
	"github.com/gin-gonic/gin"
)

// RegisterPortfolioRoutes mounts the portfolio API under /api/v1.
func RegisterPortfolioRoutes(router *gin.Engine, h *PortfolioHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/tokens", h.GetTokensHandler)
		v1.POST("/tokens/refresh", h.RefreshTokensHandler)

		v1.POST("/watchlist", h.AddTokensHandler)
		v1.DELETE("/watchlist/:id", h.RemoveTokenHandler)

		v1.PUT("/holdings/:id", h.UpdateHoldingHandler)

		v1.POST("/identity", h.SetIdentityHandler)
		v1.DELETE("/portfolio", h.ClearPortfolioHandler)

		v1.GET("/search", h.SearchHandler)
		v1.GET("/trending", h.TrendingHandler)
		v1.GET("/wallet/value", h.WalletValueHandler)
	}
}
