// Package redis provides a Redis-backed circuit breaker store.
//
// Records are stored as JSON under "<prefix>:<key>". The conditional
// write runs as a Lua script so the compare on the stored last-failure
// timestamp and the set happen atomically on the server.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clinton1719/cloud-circuit-breaker/circuitbreaker"
	"github.com/clinton1719/cloud-circuit-breaker/logger"
	"github.com/clinton1719/cloud-circuit-breaker/store"
)

func init() {
	store.Register(store.ProviderRedis, func(_ context.Context, cfg store.Config, log *logger.Logger) (circuitbreaker.Store, error) {
		return NewFromConfig(cfg, log)
	})
}

// record is the JSON wire form of a breaker state. The timestamp is
// epoch seconds so the Lua comparison stays numeric.
type record struct {
	Status          string `json:"status"`
	FailureCount    int    `json:"failureCount"`
	LastFailureTime int64  `json:"lastFailureTime"`
}

// saveIfNotNewer applies the write unless the stored record carries a
// strictly newer lastFailureTime. Returns 1 when applied, 0 when skipped.
var saveIfNotNewer = goredis.NewScript(`
	-- KEYS[1]: record key
	-- ARGV[1]: incoming lastFailureTime (epoch seconds)
	-- ARGV[2]: incoming record JSON
	local cur = redis.call('GET', KEYS[1])
	if cur then
		local decoded = cjson.decode(cur)
		if tonumber(decoded['lastFailureTime']) > tonumber(ARGV[1]) then
			return 0
		end
	end
	redis.call('SET', KEYS[1], ARGV[2])
	return 1
`)

// Store persists breaker records in Redis.
type Store struct {
	client    *goredis.Client
	keyPrefix string
	log       *logger.Logger

	// Now is the time source for Reset stamps.
	Now func() time.Time
}

var _ circuitbreaker.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithLogger wires a logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithKeyPrefix overrides the key namespace. The default is
// store.DefaultKeyPrefix; an empty prefix stores keys bare.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.keyPrefix = prefix }
}

// New creates a store over an existing go-redis client.
func New(client *goredis.Client, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("store: redis client is required")
	}
	s := &Store{
		client:    client,
		keyPrefix: store.DefaultKeyPrefix,
		log:       logger.Nop(),
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("store.redis")
	return s, nil
}

// NewFromConfig builds a Redis-backed store and its client from store
// configuration. Close releases the client it creates.
func NewFromConfig(cfg store.Config, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return New(client, WithLogger(log), WithKeyPrefix(cfg.KeyPrefix))
}

// Get returns the snapshot stored for key, or (nil, nil) if none exists.
func (s *Store) Get(ctx context.Context, key string) (*circuitbreaker.State, error) {
	raw, err := s.client.Get(ctx, s.fullKey(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, &circuitbreaker.StoreError{Op: "get", Key: key, Err: err}
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &circuitbreaker.StoreError{Op: "get", Key: key, Err: err}
	}
	return &circuitbreaker.State{
		Key:             key,
		Status:          circuitbreaker.Status(rec.Status),
		FailureCount:    rec.FailureCount,
		LastFailureTime: time.Unix(rec.LastFailureTime, 0),
	}, nil
}

// Save persists state under key unless a strictly newer record exists,
// in which case the write is logged and dropped.
func (s *Store) Save(ctx context.Context, key string, state circuitbreaker.State) error {
	epoch := state.LastFailureTime.Unix()
	data, err := json.Marshal(record{
		Status:          string(state.Status),
		FailureCount:    state.FailureCount,
		LastFailureTime: epoch,
	})
	if err != nil {
		return &circuitbreaker.StoreError{Op: "save", Key: key, Err: err}
	}

	applied, err := saveIfNotNewer.Run(ctx, s.client, []string{s.fullKey(key)}, epoch, string(data)).Int()
	if err != nil {
		return &circuitbreaker.StoreError{Op: "save", Key: key, Err: err}
	}
	if applied == 0 {
		s.log.Warn("skipped outdated breaker update", logger.Fields(logger.FieldKey, key))
	}
	return nil
}

// Reset overwrites key with a closed, zero-count record stamped now.
func (s *Store) Reset(ctx context.Context, key string) error {
	return s.Save(ctx, key, circuitbreaker.State{
		Key:             key,
		Status:          circuitbreaker.StatusClosed,
		FailureCount:    0,
		LastFailureTime: s.Now(),
	})
}

// Close releases the underlying client connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}
