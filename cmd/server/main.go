package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stocksim/internal/auth"
	"stocksim/internal/config"
	"stocksim/internal/database"
	"stocksim/internal/logger"
	"stocksim/internal/quotes"
	"stocksim/internal/server"
	"stocksim/internal/stream"
	"stocksim/internal/trading"
	"stocksim/internal/watchlist"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Connect to the database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Build the quote source chain: provider, then a short TTL cache on top.
	var source quotes.Source
	switch cfg.Quotes.Provider {
	case "alpaca":
		source = quotes.NewAlpacaClient(&cfg.Quotes, log)
		log.Info("Using Alpaca market data")
	default:
		source = quotes.NewMockSource()
		log.Warn("Using mock market data")
	}
	cached, err := quotes.NewCachedSource(source, time.Duration(cfg.Quotes.CacheTTLSecs)*time.Second)
	if err != nil {
		log.Fatal("Failed to build quote cache", zap.Error(err))
	}

	startingBalance, err := decimal.NewFromString(cfg.Trading.StartingBalance)
	if err != nil {
		log.Fatal("Invalid starting balance in config", zap.Error(err))
	}

	// Services
	authSvc := auth.NewService(db, &cfg.Auth, startingBalance, log)
	tradingSvc := trading.NewService(db, cached, log)
	watchlistSvc := watchlist.NewService(db, cached, log)
	streamer := stream.NewStreamer(cached, time.Duration(cfg.Trading.StreamIntervalSecs)*time.Second, log)

	s := server.NewServer(&cfg, tradingSvc, watchlistSvc, authSvc, cached, streamer, log, "web/templates/*.html")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.R,
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go func() {
		log.Info("Starting web server", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
