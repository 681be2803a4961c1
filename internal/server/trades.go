package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stocksim/internal/auth"
)

type enterTradeRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Type   string `json:"type" binding:"required"`
	Qty    int64  `json:"qty" binding:"required"`
}

// tradesHome answers the trades root with a plain text placeholder.
func (s *Server) tradesHome(c *gin.Context) {
	c.String(http.StatusOK, "Trade route")
}

// showNewTradeForm renders the new trade form.
func (s *Server) showNewTradeForm(c *gin.Context) {
	c.HTML(http.StatusOK, "new_trade.html", gin.H{})
}

// enterTrade creates a new open trade priced at the current quote.
func (s *Server) enterTrade(c *gin.Context) {
	var req enterTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	trade, err := s.Trading.Enter(c.Request.Context(), auth.UserID(c), req.Symbol, req.Type, req.Qty)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// exitTrade closes an open trade and settles the account balance.
func (s *Server) exitTrade(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", "trade id must be an integer")
		return
	}

	result, err := s.Trading.Exit(c.Request.Context(), auth.UserID(c), uint(id))
	if err != nil {
		s.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":          "successful",
		"trade_id":        result.Trade.ID,
		"symbol":          result.Trade.Symbol,
		"type":            result.Trade.Type,
		"qty":             result.Trade.Qty,
		"entry_price":     result.Trade.EntryPrice,
		"exit_price":      result.Trade.LatestPrice.Decimal,
		"exit_date":       result.Trade.ExitDate,
		"pnl":             result.PnL,
		"account_balance": result.AccountBalance,
		"user_id":         result.Trade.UserID,
	})
}

// showOpenPositions renders the user's open positions with unrealized P&L.
func (s *Server) showOpenPositions(c *gin.Context) {
	positions, err := s.Trading.OpenPositions(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"message": "could not load open positions"})
		return
	}
	c.HTML(http.StatusOK, "open_positions.html", gin.H{"positions": positions})
}

// showTradingHistory renders all of the user's trades.
func (s *Server) showTradingHistory(c *gin.Context) {
	trades, err := s.Trading.History(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"message": "could not load trading history"})
		return
	}
	c.HTML(http.StatusOK, "history.html", gin.H{"trades": trades})
}
