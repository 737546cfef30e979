package analytics

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Queryer is the slice of the pool the executor needs.
type Queryer interface {
	Queryx(ctx context.Context, q sq.Sqlizer) (pgx.Rows, error)
}

type ExecutorConfig struct {
	// Attempts bounds the total tries per logical query, first try included.
	Attempts int
	// AttemptTimeout bounds each individual try. A timed-out attempt is
	// retried like any other failure.
	AttemptTimeout time.Duration
	// RetryBaseDelay is the first backoff interval; it doubles per attempt.
	RetryBaseDelay time.Duration
}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 30 * time.Second
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 100 * time.Millisecond
	}
	return c
}

// Executor runs compiled queries with bounded retries and per-attempt
// timeouts, and pairs data queries with their count queries concurrently.
type Executor struct {
	pool Queryer
	cfg  ExecutorConfig
}

func NewExecutor(pool Queryer, cfg ExecutorConfig) *Executor {
	return &Executor{pool: pool, cfg: cfg.withDefaults()}
}

// Execute runs q and returns every row's values, with wide integers
// normalized. Retries are strictly sequential; on exhaustion the last cause
// is attached to a typed error.
func (e *Executor) Execute(ctx context.Context, q sq.Sqlizer) ([][]any, error) {
	var collected [][]any

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		defer cancel()

		rows, err := e.pool.Queryx(attemptCtx, q)
		if err != nil {
			return err
		}
		defer rows.Close()

		out := make([][]any, 0, 64)
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			out = append(out, normalizeValues(values))
		}
		if err := rows.Err(); err != nil {
			return err
		}

		collected = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.RetryBaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(e.cfg.Attempts-1)),
		ctx,
	))
	if err != nil {
		logger.Errorf(ctx, "query failed after %d attempts: %s", e.cfg.Attempts, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, constants.ErrQueryTimeout.WithCause(err)
		}
		return nil, constants.ErrQueryFailed.WithCause(err)
	}

	return collected, nil
}

// ExecuteWithCount runs the data query and its count query concurrently, so
// total latency is bounded by the slower of the two.
func (e *Executor) ExecuteWithCount(ctx context.Context, data, count sq.Sqlizer) ([][]any, int, error) {
	var (
		rows  [][]any
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = e.Execute(gctx, data)
		return err
	})
	g.Go(func() error {
		countRows, err := e.Execute(gctx, count)
		if err != nil {
			return err
		}
		if len(countRows) == 0 || len(countRows[0]) == 0 {
			return constants.InternalError("count query returned no rows")
		}
		n, ok := asInt(countRows[0][0])
		if !ok {
			return constants.InternalError("count query returned a non-integer value")
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// normalizeValues converts 64-bit integers to the native int so downstream
// JSON serialization never sees values it cannot represent losslessly.
func normalizeValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int64:
			out[i] = int(n)
		case int32:
			out[i] = int(n)
		case int16:
			out[i] = int(n)
		default:
			out[i] = v
		}
	}
	return out
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	default:
		return 0, false
	}
}
