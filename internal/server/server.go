package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stocksim/internal/auth"
	"stocksim/internal/config"
	"stocksim/internal/quotes"
	"stocksim/internal/stream"
	"stocksim/internal/trading"
	"stocksim/internal/watchlist"
)

// Server wires the router, services, and middleware.
type Server struct {
	R          *gin.Engine
	Trading    *trading.Service
	Watchlists *watchlist.Service
	Auth       *auth.Service
	Quotes     quotes.Source
	Streamer   *stream.Streamer
	Logger     *zap.Logger
	CookieName string
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer builds the gin engine with all routes registered. templateGlob
// locates the HTML templates relative to the working directory.
func NewServer(
	cfg *config.Config,
	tradingSvc *trading.Service,
	watchlistSvc *watchlist.Service,
	authSvc *auth.Service,
	source quotes.Source,
	streamer *stream.Streamer,
	logger *zap.Logger,
	templateGlob string,
) *Server {
	g := gin.New()

	// Request logging with a per-request id
	g.Use(func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Next()
		logger.Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})
	g.Use(gin.Recovery())

	g.LoadHTMLGlob(templateGlob)

	s := &Server{
		R:          g,
		Trading:    tradingSvc,
		Watchlists: watchlistSvc,
		Auth:       authSvc,
		Quotes:     source,
		Streamer:   streamer,
		Logger:     logger,
		CookieName: cfg.Auth.CookieName,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// Identity
	g.POST("/api/auth/register", s.registerJSON)
	g.POST("/api/auth/login", s.loginJSON)
	g.GET("/login", s.showLogin)
	g.POST("/login", s.loginForm)
	g.GET("/register", s.showRegister)
	g.POST("/register", s.registerForm)
	g.GET("/logout", s.logout)

	requireAPI := authSvc.RequireAPI(s.CookieName)
	requirePage := authSvc.RequirePage(s.CookieName, "/login")

	// Trades
	trades := g.Group("/trades")
	{
		trades.GET("/", s.tradesHome)
		trades.GET("/new", requirePage, s.showNewTradeForm)
		trades.POST("/new", requireAPI, s.enterTrade)
		trades.PUT("/:id", requireAPI, s.exitTrade)
		trades.GET("/open", requirePage, s.showOpenPositions)
		trades.GET("/history", requirePage, s.showTradingHistory)
	}

	// Watchlists
	lists := g.Group("/watchlists")
	{
		lists.GET("/", requirePage, s.watchlistHome)
		lists.POST("/", requirePage, s.createWatchlistForm)
		lists.GET("/:id", requirePage, s.showWatchlist)
		lists.DELETE("/:id", requireAPI, s.removeWatchlist)
		lists.POST("/:id/stocks", requireAPI, s.addWatchlistStock)
		lists.DELETE("/:id/stocks/:symbol", requireAPI, s.removeWatchlistStock)
		lists.GET("/:id/stream", requireAPI, s.streamWatchlist)
	}

	return s
}

// --- Helpers ---

func (s *Server) errJSON(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": apiError{Code: code, Message: msg}})
}

// serviceError maps service sentinels onto HTTP status codes with a
// machine-readable payload: 400 validation, 401 auth, 404 missing,
// 409 conflict, 500 everything else.
func (s *Server) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQty),
		errors.Is(err, trading.ErrInvalidType),
		errors.Is(err, watchlist.ErrNameRequired):
		s.errJSON(c, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, quotes.ErrUnknownSymbol):
		s.errJSON(c, http.StatusBadRequest, "unknown_symbol", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		s.errJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, trading.ErrTradeNotFound),
		errors.Is(err, trading.ErrUserNotFound),
		errors.Is(err, watchlist.ErrNotFound),
		errors.Is(err, watchlist.ErrStockNotIn):
		s.errJSON(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, trading.ErrTradeClosed), errors.Is(err, auth.ErrUsernameTaken):
		s.errJSON(c, http.StatusConflict, "conflict", err.Error())
	default:
		s.Logger.Error("internal_error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		s.errJSON(c, http.StatusInternalServerError, "internal_server_error", "internal server error")
	}
}
