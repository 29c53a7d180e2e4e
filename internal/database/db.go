// Package database opens the MySQL pool and creates the ledger schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-retry"

	"github.com/iliyamo/soulspace-ledger/internal/logging"
)

// Params are the connection settings taken from config.
type Params struct {
	User, Pass, Host, Port, Name string
}

// DSN renders p for the mysql driver. parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps times consistent.
func (p Params) DSN() string {
	auth := p.User
	if p.Pass != "" {
		auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, p.Host, p.Port, p.Name)
}

// Open connects to MySQL and verifies the connection, retrying the ping
// with exponential backoff for up to about half a minute so the service can
// start alongside its database.
func Open(ctx context.Context, p Params, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", p.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	backoff := retry.WithMaxRetries(6, retry.WithCappedDuration(8*time.Second, retry.NewExponential(500*time.Millisecond)))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			log.Warn(ctx, "database not reachable yet", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
