package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type options struct {
	maxConns      int32
	logger        *zap.Logger
	slowThreshold time.Duration
}

// Option tunes the pool built by NewPool.
type Option func(*options)

// WithMaxConns caps the pool size. Values below 1 are ignored.
func WithMaxConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = int32(n)
		}
	}
}

// WithLogger logs failed queries and queries slower than threshold.
func WithLogger(logger *zap.Logger, threshold time.Duration) Option {
	return func(o *options) {
		o.logger = logger
		o.slowThreshold = threshold
	}
}

// NewPool connects to connStr and verifies the connection with a ping.
func NewPool(ctx context.Context, connStr string, opts ...Option) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	if o.maxConns > 0 {
		config.MaxConns = o.maxConns
	}
	if config.ConnConfig.RuntimeParams["application_name"] == "" {
		config.ConnConfig.RuntimeParams["application_name"] = "taller"
	}
	if o.logger != nil {
		config.ConnConfig.Tracer = newQueryLogger(o.logger, o.slowThreshold)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

// queryLogger is a pgx.QueryTracer.
type queryLogger struct {
	logger    *zap.Logger
	threshold time.Duration
	now       func() time.Time
}

func newQueryLogger(logger *zap.Logger, threshold time.Duration) *queryLogger {
	return &queryLogger{logger: logger.Named("pgx"), threshold: threshold, now: time.Now}
}

func (q *queryLogger) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: q.now()})
}

func (q *queryLogger) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := q.now().Sub(start.at)

	switch {
	case data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) && !errors.Is(data.Err, context.Canceled):
		q.logger.Warn("query failed",
			zap.String("sql", compactSQL(start.sql)),
			zap.Duration("elapsed", elapsed),
			zap.Error(data.Err))
	case q.threshold > 0 && elapsed >= q.threshold:
		q.logger.Info("slow query",
			zap.String("sql", compactSQL(start.sql)),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", data.CommandTag.RowsAffected()))
	}
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
