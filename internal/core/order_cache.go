package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BoardLoader builds a fresh board, normally OrderService.Kanban.
type BoardLoader func(ctx context.Context) (Board, error)

// OrderCache keeps the last Kanban board in memory. Run refreshes it on a ticker and
// whenever Invalidate is called. A failed refresh keeps the previous board.
type OrderCache struct {
	load     BoardLoader
	interval time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	board   Board
	builtAt time.Time
	ready   bool

	kick chan struct{}
}

func NewOrderCache(load BoardLoader, interval time.Duration, logger *zap.Logger) *OrderCache {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderCache{
		load:     load,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Snapshot returns the cached board and when it was built. ok is false until the
// first successful refresh.
func (c *OrderCache) Snapshot() (board Board, builtAt time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.board, c.builtAt, c.ready
}

// Invalidate requests a rebuild. It never blocks; pending requests coalesce.
func (c *OrderCache) Invalidate() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Refresh rebuilds the board now.
func (c *OrderCache) Refresh(ctx context.Context) error {
	start := time.Now()
	b, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.board = b
	c.builtAt = time.Now()
	c.ready = true
	c.mu.Unlock()
	c.logger.Debug("order cache refreshed", zap.Int("open_orders", b.Total), zap.Duration("took", time.Since(start)))
	return nil
}

// Run refreshes until ctx is done. It always returns nil so it can sit in an errgroup.
func (c *OrderCache) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refreshLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.refreshLogged(ctx)
		case <-c.kick:
			c.refreshLogged(ctx)
		}
	}
}

func (c *OrderCache) refreshLogged(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn("order cache refresh failed, keeping previous snapshot", zap.Error(err))
	}
}
