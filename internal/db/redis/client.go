package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/fredesa/knowledge-registry/internal/db"
)

var _ db.Cache = (*Store)(nil)

const (
	clientName          = "kregistry"
	defaultDialTimeout  = 5 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// Config describes the cache deployment backing candidate sets and gap tracking.
// Zero durations fall back to package defaults.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	PollInterval time.Duration
}

func (c Config) clientOption() (rueidis.ClientOption, error) {
	if len(c.Addrs) == 0 {
		return rueidis.ClientOption{}, errors.New("cache addrs is required")
	}
	dial := c.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	return rueidis.ClientOption{
		InitAddress: c.Addrs,
		Username:    c.Username,
		Password:    c.Password,
		SelectDB:    c.DB,
		ClientName:  clientName,
		Dialer:      net.Dialer{Timeout: dial},
		// Entries are read once per query; client-side tracking would only add invalidation traffic.
		DisableCache: true,
	}, nil
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval
}

// Store is the registry's cache connection. It serves the KV commands of the
// candidate cache and the counter and list commands of gap tracking.
type Store struct {
	client rueidis.Client
	poll   time.Duration
}

// NewStore connects to the cache described by cfg.
func NewStore(cfg Config) (*Store, error) {
	opt, err := cfg.clientOption()
	if err != nil {
		return nil, err
	}
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect cache %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client, poll: cfg.pollInterval()}, nil
}

// Ping reports whether the cache answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.exec(ctx, db.OpPing, s.b().Ping().Build())
}

// Close releases the connection.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings right away and then every poll interval. On timeout the
// last ping failure is reported with the deadline.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		last := s.Ping(ctx)
		if last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("cache not ready after %s: %w", timeout, errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
