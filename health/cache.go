package health

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jonwraymond/surcharge/cache"
)

// DiskChecker probes a cache directory.
type DiskChecker struct {
	disk *cache.DiskTier

	// WarnBytes marks the check degraded once the directory holds more than
	// this many bytes of cache files. Zero disables the limit.
	WarnBytes int64
}

// NewDiskChecker creates a checker for disk.
func NewDiskChecker(disk *cache.DiskTier) *DiskChecker {
	return &DiskChecker{disk: disk}
}

// Name returns "disk".
func (c *DiskChecker) Name() string { return "disk" }

// Check probes the directory and reports its usage.
func (c *DiskChecker) Check(ctx context.Context) Result {
	if c.disk == nil {
		return Degraded("no disk tier configured")
	}
	if err := c.disk.Probe(ctx); err != nil {
		return Unhealthy("cache directory not writable", err).
			WithDetails(map[string]any{"dir": c.disk.Dir()})
	}

	files, size, err := c.disk.Usage()
	if err != nil {
		return Unhealthy("cache directory not readable", err).
			WithDetails(map[string]any{"dir": c.disk.Dir()})
	}
	details := map[string]any{
		"dir":   c.disk.Dir(),
		"files": files,
		"size":  humanize.Bytes(uint64(size)),
	}

	if c.WarnBytes > 0 && size > c.WarnBytes {
		return Degraded(fmt.Sprintf("cache directory holds %s, above %s",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(c.WarnBytes)))).
			WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d cached fields", files)).WithDetails(details)
}

// CacheChecker reports the state of a cache manager.
type CacheChecker struct {
	manager *cache.Manager
}

// NewCacheChecker creates a checker for m.
func NewCacheChecker(m *cache.Manager) *CacheChecker {
	return &CacheChecker{manager: m}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check reports degraded while the disk tier is bypassed.
func (c *CacheChecker) Check(_ context.Context) Result {
	if c.manager == nil {
		return Unhealthy("no cache manager", cache.ErrNilCache)
	}

	stats := c.manager.Stats()
	details := map[string]any{
		"memory_entries": c.manager.Memory().Len(),
		"memory_hits":    stats.MemoryHits,
		"disk_hits":      stats.DiskHits,
		"misses":         stats.Misses,
		"computations":   stats.Computations,
		"disk_errors":    stats.DiskErrors,
		"hit_ratio":      stats.HitRatio(),
	}

	if c.manager.Disk() == nil {
		return Healthy("memory only").WithDetails(details)
	}
	details["disk_state"] = c.manager.DiskState()
	if state := c.manager.DiskState(); state != "closed" {
		return Degraded("disk tier " + state + ", serving from memory").WithDetails(details)
	}
	return Healthy("memory and disk tiers available").WithDetails(details)
}
