package release

import (
	"context"
	"time"

	"github.com/miguelmota/go-filecache"

	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
)

// DefaultLatestTTL bounds how long "latest" is trusted when TTL is longer.
const DefaultLatestTTL = 5 * time.Minute

// Store is a key-value cache with per-entry expiry.
type Store interface {
	Get(key string, dst interface{}) (bool, error)
	Set(key string, value interface{}, ttl time.Duration) error
}

// FileStore is the default Store, backed by go-filecache in the system
// temp directory.
type FileStore struct{}

// Get loads key into dst.
func (FileStore) Get(key string, dst interface{}) (bool, error) {
	return filecache.Get(key, dst)
}

// Set stores value under key for ttl.
func (FileStore) Set(key string, value interface{}, ttl time.Duration) error {
	return filecache.Set(key, value, ttl)
}

// CacheConfig configures a CachedProvider.
type CacheConfig struct {
	Store Store
	// TTL applies to pinned tags. Zero disables caching.
	TTL time.Duration
	// LatestTTL applies to "latest" lookups. Zero means min(TTL, DefaultLatestTTL).
	LatestTTL time.Duration
	Logger    logging.Logger
}

// CachedProvider memoises another provider's results.
type CachedProvider struct {
	next      Provider
	store     Store
	ttl       time.Duration
	latestTTL time.Duration
	logger    logging.Logger
}

// NewCachedProvider wraps next with a metadata cache.
func NewCachedProvider(next Provider, cfg CacheConfig) *CachedProvider {
	c := &CachedProvider{
		next:      next,
		store:     cfg.Store,
		ttl:       cfg.TTL,
		latestTTL: cfg.LatestTTL,
		logger:    logging.OrNop(cfg.Logger),
	}
	if c.store == nil {
		c.store = FileStore{}
	}
	if c.latestTTL == 0 {
		c.latestTTL = min(c.ttl, DefaultLatestTTL)
	}
	return c
}

// Resolve returns a cached release if present, otherwise asks the wrapped
// provider and stores the answer. Cache failures are logged, never returned.
func (c *CachedProvider) Resolve(ctx context.Context, owner, repo, tag string) (*Release, error) {
	ttl := c.ttl
	if IsLatest(tag) {
		ttl = c.latestTTL
	}
	if ttl <= 0 {
		return c.next.Resolve(ctx, owner, repo, tag)
	}

	key := cacheKey(owner, repo, tag)

	var cached Release
	found, err := c.store.Get(key, &cached)
	if err != nil {
		c.logger.Warn("release cache read failed", "key", key, "error", err)
	}
	if found && err == nil {
		c.logger.Debug("release cache hit", "key", key, "tag", cached.Tag)
		return &cached, nil
	}

	rel, err := c.next.Resolve(ctx, owner, repo, tag)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(key, rel, ttl); err != nil {
		c.logger.Warn("release cache write failed", "key", key, "error", err)
	}
	return rel, nil
}

func cacheKey(owner, repo, tag string) string {
	return "binstall/release/" + owner + "/" + repo + "/" + displayTag(tag)
}
