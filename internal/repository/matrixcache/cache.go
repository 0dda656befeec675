package matrixcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/db"
	"github.com/kailas-cloud/soclens/internal/domain"
)

const cacheKeyPrefix = "soclens:matrix:"

// DefaultMaxEntries bounds the in-memory tier when no limit is configured.
const DefaultMaxEntries = 4

// store is the consumer interface for the persistent tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache keeps encoded corpus matrices in memory and, optionally, in a KV store.
// Keys combine the corpus fingerprint with the encoder identity, so a new
// corpus or artifact never reads a stale matrix.
type Cache struct {
	mu         sync.Mutex
	mem        map[string][]domain.SparseVector
	order      []string
	maxEntries int

	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache. s may be nil for a memory-only cache.
// cacheTotal has labels "tier" and "result"; it may be nil.
func New(
	s store,
	ttl time.Duration,
	maxEntries int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		mem:        make(map[string][]domain.SparseVector),
		maxEntries: maxEntries,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns a cached matrix. The persistent tier is consulted on a memory miss
// and its hits are promoted to memory.
func (c *Cache) Get(ctx context.Context, key string) ([]domain.SparseVector, bool) {
	c.mu.Lock()
	rows, ok := c.mem[key]
	c.mu.Unlock()
	if ok {
		c.inc("memory", "hit")
		return rows, true
	}
	c.inc("memory", "miss")

	if c.store == nil {
		return nil, false
	}

	rows, ok = c.getFromStore(ctx, key)
	if !ok {
		c.inc("kv", "miss")
		return nil, false
	}
	c.inc("kv", "hit")
	c.remember(key, rows)
	return rows, true
}

// Put stores a matrix in both tiers. Store failures are logged, not returned.
func (c *Cache) Put(ctx context.Context, key string, rows []domain.SparseVector) {
	c.remember(key, rows)
	if c.store == nil {
		return
	}

	data := encodeMatrix(rows)
	if err := c.store.SetWithTTL(ctx, storeKey(key), data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache corpus matrix", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) remember(key string, rows []domain.SparseVector) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mem[key]; !ok {
		c.order = append(c.order, key)
	}
	c.mem[key] = rows
	for len(c.order) > c.maxEntries {
		delete(c.mem, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *Cache) getFromStore(ctx context.Context, key string) ([]domain.SparseVector, bool) {
	data, err := c.store.Get(ctx, storeKey(key))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached corpus matrix", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	rows, err := decodeMatrix(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached corpus matrix", zap.String("key", key), zap.Error(err))
		if err := c.store.Del(ctx, storeKey(key)); err != nil {
			c.logger.Warn("Failed to evict cached corpus matrix", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return rows, true
}

func (c *Cache) inc(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func storeKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
