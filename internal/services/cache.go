package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL keeps the history view fresh without hammering the store.
	DefaultCacheTTL = 2 * time.Minute

	recentJournalsKey     = "journals:recent"
	journalsGenerationKey = "journals:generation"
)

// CacheService stores JSON values in Redis. A nil client turns every call
// into a miss so callers never need to special-case a missing cache.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheService{client: client, ttl: ttl}
}

// Get decodes the cached value into dest. A miss returns (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key with the service TTL.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, data, c.ttl).Err()
}

// Generation returns the counter stored under key, 0 when it is unset.
func (c *CacheService) Generation(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	n, err := c.client.Get(ctx, CacheKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump increments the counter under key. The counter never expires.
func (c *CacheService) Bump(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, CacheKeyPrefix+key).Err()
}

// CachedJournalStore serves Recent from Redis and invalidates on Insert.
// The cache holds the newest MaxRecentLimit entries; smaller reads are sliced
// from it. Snapshots are keyed by a generation counter that every Insert
// bumps, so a read that raced an insert can only warm a generation no reader
// will ask for again. Cache failures are logged and fall through to the store.
type CachedJournalStore struct {
	JournalStore
	cache  *CacheService
	logger *zap.Logger
}

func NewCachedJournalStore(store JournalStore, cache *CacheService, logger *zap.Logger) *CachedJournalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedJournalStore{JournalStore: store, cache: cache, logger: logger}
}

func (s *CachedJournalStore) Insert(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	saved, err := s.JournalStore.Insert(ctx, entry)
	if err != nil {
		return saved, err
	}
	if err := s.cache.Bump(ctx, journalsGenerationKey); err != nil {
		s.logger.Warn("journal cache invalidation failed", zap.Error(err))
	}
	return saved, nil
}

func (s *CachedJournalStore) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	limit = clampRecentLimit(limit)

	gen, err := s.cache.Generation(ctx, journalsGenerationKey)
	if err != nil {
		s.logger.Warn("journal cache read failed", zap.Error(err))
		return s.JournalStore.Recent(ctx, limit)
	}
	key := recentSnapshotKey(gen)

	var cached []models.JournalEntry
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("journal cache read failed", zap.Error(err))
	}
	if hit {
		return firstN(cached, limit), nil
	}

	entries, err := s.JournalStore.Recent(ctx, MaxRecentLimit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, entries); err != nil {
		s.logger.Warn("journal cache warm failed", zap.Error(err))
	}
	return firstN(entries, limit), nil
}

func recentSnapshotKey(gen int64) string {
	return recentJournalsKey + ":" + strconv.FormatInt(gen, 10)
}

func firstN(entries []models.JournalEntry, n int) []models.JournalEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
