package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkarlsen/tradescribe/internal/marketdata"
)

// MarketDataHandler serves ticker autocomplete and quote lookups.
type MarketDataHandler struct {
	quotes *marketdata.Service
}

func NewMarketDataHandler(quotes *marketdata.Service) *MarketDataHandler {
	return &MarketDataHandler{quotes: quotes}
}

// SearchTickers returns common tickers matching a prefix query.
func (h *MarketDataHandler) SearchTickers(c *gin.Context) {
	query := c.Query("q")
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"tickers": marketdata.Search(query, limit)})
}

// GetQuote returns the latest quote for one ticker.
func (h *MarketDataHandler) GetQuote(c *gin.Context) {
	ticker := c.Param("ticker")
	quote, err := h.quotes.Quote(c.Request.Context(), ticker)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}
