// Package postgres provides a database/sql client backed by the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	// Registers the "pgx" driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fredesa/knowledge-registry/internal/db"
)

const driverName = "pgx"

// HandlerFunc consumes query rows. Rows are closed by the caller.
type HandlerFunc func(rows *sql.Rows) error

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(tx *sql.Tx) error

// Config holds connection parameters.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the config as a postgres:// URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

type options struct {
	dsn    string
	opener func(driver, dsn string) (*sql.DB, error)
}

// Option customizes client construction.
type Option func(*options)

// WithDSN overrides the DSN derived from Config.
func WithDSN(dsn string) Option {
	return func(o *options) { o.dsn = dsn }
}

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(fn func(driver, dsn string) (*sql.DB, error)) Option {
	return func(o *options) { o.opener = fn }
}

// Client wraps a *sql.DB with query helpers.
type Client struct {
	db *sql.DB
}

// New opens a pool, applies pool limits and verifies connectivity.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	o := options{opener: sql.Open}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dsn == "" {
		if cfg.Host == "" {
			return nil, errors.New("postgres: host is required")
		}
		o.dsn = cfg.DSN()
	}

	sqlDB, err := o.opener(driverName, o.dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	c := &Client{db: sqlDB}
	if err := c.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return c, nil
}

// NewFromDB wraps an existing pool without pinging it.
func NewFromDB(sqlDB *sql.DB) *Client {
	return &Client{db: sqlDB}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := c.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// ExecContext runs a statement that returns no rows.
func (c *Client) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpExec, Err: err}
	}
	return res, nil
}

// Query runs a query and hands the rows to handler.
func (c *Client) Query(ctx context.Context, handler HandlerFunc, query string, args ...any) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	if err := handler(rows); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

// Transaction runs fn in a transaction, committing on success.
func (c *Client) Transaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpTx, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return &db.Error{Op: db.OpTx, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}
