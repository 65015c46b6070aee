// Package health reports whether the stress cache can do its job.
//
// A Checker reports a Status: Healthy, Degraded or Unhealthy. DiskChecker
// probes the cache directory with the same write and rename sequence the
// disk tier uses, CacheChecker watches the manager's disk guard and hit
// counters, and MemoryChecker watches the heap, which the never-evicting
// memory tier can grow without bound.
//
// An Aggregator runs checkers in parallel and folds their results:
//
//	agg := health.NewAggregator()
//	agg.Register("disk", health.NewDiskChecker(disk))
//	agg.Register("cache", health.NewCacheChecker(manager))
//	report := agg.Report(ctx)
//	fmt.Println(report.Status)
package health
