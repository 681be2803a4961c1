package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stocksim/internal/auth"
)

type addStockRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func watchlistID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// watchlistHome renders all of the user's watchlists with the create form.
func (s *Server) watchlistHome(c *gin.Context) {
	lists, err := s.Watchlists.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"message": "could not load watchlists"})
		return
	}
	c.HTML(http.StatusOK, "watchlists.html", gin.H{"watchlists": lists})
}

// createWatchlistForm handles the create form post and redirects back to
// the watchlist list, the original flow for this page.
func (s *Server) createWatchlistForm(c *gin.Context) {
	name := c.PostForm("name")
	description := c.PostForm("description")

	if _, err := s.Watchlists.Create(c.Request.Context(), auth.UserID(c), name, description); err != nil {
		lists, _ := s.Watchlists.List(c.Request.Context(), auth.UserID(c))
		c.HTML(http.StatusBadRequest, "watchlists.html", gin.H{
			"watchlists": lists,
			"error":      "Error creating watchlist.",
		})
		return
	}
	c.Redirect(http.StatusFound, "/watchlists/")
}

// showWatchlist renders the detail page with the stock set and live quotes.
func (s *Server) showWatchlist(c *gin.Context) {
	id, ok := watchlistID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/watchlists/")
		return
	}

	wl, err := s.Watchlists.Get(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"message": "watchlist not found"})
		return
	}

	symbols := make([]string, 0, len(wl.Stocks))
	for _, st := range wl.Stocks {
		symbols = append(symbols, st.Symbol)
	}
	prices, err := s.Quotes.LatestPrices(c.Request.Context(), symbols)
	if err != nil {
		prices = nil // page still renders, just without quotes
	}

	c.HTML(http.StatusOK, "watchlist_details.html", gin.H{
		"watchlist": wl,
		"stocks":    wl.Stocks,
		"prices":    prices,
	})
}

// removeWatchlist hard-deletes a watchlist and its stock associations.
func (s *Server) removeWatchlist(c *gin.Context) {
	id, ok := watchlistID(c)
	if !ok {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", "watchlist id must be an integer")
		return
	}

	if err := s.Watchlists.Remove(c.Request.Context(), auth.UserID(c), id); err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// addWatchlistStock associates a validated symbol with the watchlist.
func (s *Server) addWatchlistStock(c *gin.Context) {
	id, ok := watchlistID(c)
	if !ok {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", "watchlist id must be an integer")
		return
	}

	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	stock, err := s.Watchlists.AddStock(c.Request.Context(), auth.UserID(c), id, req.Symbol)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success", "stock": stock})
}

// removeWatchlistStock detaches a symbol from the watchlist.
func (s *Server) removeWatchlistStock(c *gin.Context) {
	id, ok := watchlistID(c)
	if !ok {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", "watchlist id must be an integer")
		return
	}

	if err := s.Watchlists.RemoveStock(c.Request.Context(), auth.UserID(c), id, c.Param("symbol")); err != nil {
		s.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// streamWatchlist upgrades the connection and streams quote snapshots for
// the watchlist's symbols until the client goes away.
func (s *Server) streamWatchlist(c *gin.Context) {
	id, ok := watchlistID(c)
	if !ok {
		s.errJSON(c, http.StatusBadRequest, "validation_failed", "watchlist id must be an integer")
		return
	}

	symbols, err := s.Watchlists.Symbols(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		s.serviceError(c, err)
		return
	}

	s.Streamer.Serve(c, symbols)
}
