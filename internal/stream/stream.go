package stream

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stocksim/internal/quotes"
)

// Streamer pushes periodic quote snapshots for a set of symbols over a
// websocket, so a watchlist page can show moving prices without polling.
type Streamer struct {
	source   quotes.Source
	interval time.Duration
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewStreamer creates a new quote streamer ticking at the given interval.
func NewStreamer(source quotes.Source, interval time.Duration, logger *zap.Logger) *Streamer {
	return &Streamer{
		source:   source,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Snapshot is one message on the stream: every symbol the source could
// price at that instant.
type Snapshot struct {
	At     time.Time                  `json:"at"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

// Serve upgrades the request and streams snapshots until the client closes
// the connection or the request context ends. One immediate snapshot is
// sent before the ticker takes over.
func (s *Streamer) Serve(c *gin.Context, symbols []string) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain reads so we notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		prices, err := s.source.LatestPrices(ctx, symbols)
		if err != nil {
			s.logger.Warn("Failed to price stream snapshot", zap.Error(err))
		} else {
			if err := conn.WriteJSON(Snapshot{At: time.Now(), Prices: prices}); err != nil {
				return
			}
		}

		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
