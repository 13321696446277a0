package jobs

import (
	"context"

	"github.com/wonny/valuescreen/internal/cache"
	"github.com/wonny/valuescreen/pkg/logger"
)

// ExpiringCache drops expired entries (cache.MemoryCache)
type ExpiringCache interface {
	CleanExpired() int
	Stats() cache.CacheStats
}

// CacheCleanupJob cleans expired in-memory cache entries
type CacheCleanupJob struct {
	cache  ExpiringCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache ExpiringCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run removes expired entries and reports what is left
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := j.cache.CleanExpired()
	stats := j.cache.Stats()
	j.logger.WithFields(map[string]interface{}{
		"removed": removed,
		"entries": stats.TotalCount,
		"fresh":   stats.FreshCount,
	}).Debug("Cache cleanup completed")
	return nil
}
