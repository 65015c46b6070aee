package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarnHeap is the heap size that triggers degraded status.
	// Default: 1 GiB
	WarnHeap uint64

	// CriticalHeap is the heap size that triggers unhealthy status.
	// Default: 4 GiB
	CriticalHeap uint64
}

// MemoryChecker watches heap usage. The memory cache tier never evicts, so
// a long-running process accumulates every field it has computed.
type MemoryChecker struct {
	config MemoryCheckerConfig
	read   func(*runtime.MemStats)
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarnHeap == 0 {
		config.WarnHeap = 1 << 30
	}
	if config.CriticalHeap == 0 {
		config.CriticalHeap = 4 << 30
	}
	if config.CriticalHeap < config.WarnHeap {
		config.CriticalHeap = config.WarnHeap
	}
	return &MemoryChecker{config: config, read: runtime.ReadMemStats}
}

// Name returns "memory".
func (m *MemoryChecker) Name() string { return "memory" }

// Check compares the live heap with the configured thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.read(&stats)

	heap := stats.HeapAlloc
	details := map[string]any{
		"heap_alloc": humanize.Bytes(heap),
		"heap_sys":   humanize.Bytes(stats.HeapSys),
		"num_gc":     stats.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}

	switch {
	case heap >= m.config.CriticalHeap:
		return Unhealthy(fmt.Sprintf("heap %s at or above %s", humanize.Bytes(heap), humanize.Bytes(m.config.CriticalHeap)),
			ErrCheckFailed).WithDetails(details)
	case heap >= m.config.WarnHeap:
		return Degraded(fmt.Sprintf("heap %s at or above %s", humanize.Bytes(heap), humanize.Bytes(m.config.WarnHeap))).
			WithDetails(details)
	default:
		return Healthy("heap " + humanize.Bytes(heap)).WithDetails(details)
	}
}
