package pgrows

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// ping is a seam for tests.
var ping = func(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}

// Open connects to dsn through the pgx stdlib driver and waits for the
// database to answer, retrying with capped exponential backoff for up to
// wait.
func Open(ctx context.Context, dsn string, wait time.Duration) (*sql.DB, error) {
	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}

	b := retry.NewExponential(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxDuration(wait, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx, db); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// Connect prepares a pool without touching the network, so callers that
// must start offline can defer the first round trip.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}
