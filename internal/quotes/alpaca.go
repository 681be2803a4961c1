package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stocksim/internal/config"
)

const defaultBaseURL = "https://data.alpaca.markets"

// AlpacaClient fetches latest trade prices from the Alpaca market data API.
// It implements the Source interface.
type AlpacaClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure AlpacaClient implements the interface
var _ Source = (*AlpacaClient)(nil)

// NewAlpacaClient creates a new Alpaca market data client.
func NewAlpacaClient(cfg *config.Quotes, logger *zap.Logger) *AlpacaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("APCA-API-KEY-ID", cfg.ApiKey).
		SetHeader("APCA-API-SECRET-KEY", cfg.SecretKey)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &AlpacaClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// latestTrade mirrors the "trade" object of the latest-trades endpoints.
// Prices are decoded as json.Number so no binary float ever carries money.
type latestTrade struct {
	Price     json.Number `json:"p"`
	Timestamp string      `json:"t"`
}

type latestTradeResponse struct {
	Symbol string      `json:"symbol"`
	Trade  latestTrade `json:"trade"`
}

type latestTradesResponse struct {
	Trades map[string]latestTrade `json:"trades"`
}

// LatestPrice returns the most recent traded price for one symbol.
func (c *AlpacaClient) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	req := c.client.R().
		SetContext(ctx).
		SetResult(&latestTradeResponse{})

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/v2/stocks/%s/trades/latest", symbol), req)
	if err != nil {
		return decimal.Zero, err
	}

	result := resp.Result().(*latestTradeResponse)
	price, err := decimal.NewFromString(result.Trade.Price.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price for %s: %w", symbol, err)
	}
	return price, nil
}

// LatestPrices returns the most recent traded prices for a batch of symbols.
func (c *AlpacaClient) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&latestTradesResponse{})

	resp, err := c.doRequest(ctx, "GET", "/v2/stocks/trades/latest", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prices: %w", err)
	}

	result := resp.Result().(*latestTradesResponse)
	prices := make(map[string]decimal.Decimal, len(result.Trades))
	for symbol, trade := range result.Trades {
		price, err := decimal.NewFromString(trade.Price.String())
		if err != nil {
			c.logger.Warn("Skipping unparsable price",
				zap.String("symbol", symbol),
				zap.String("price", trade.Price.String()))
			continue
		}
		prices[symbol] = price
	}
	return prices, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *AlpacaClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusNotFound {
				// Alpaca answers 404 for symbols it has no data for.
				return nil, ErrUnknownSymbol
			}
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
