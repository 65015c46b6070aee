// Package cache provides content-addressed caching for computed stress fields.
//
// A Keyer derives a Key from the rounded computation inputs. A Manager
// answers GetOrCompute from its MemoryTier, then its DiskTier, and otherwise
// runs the computation once per key, storing the result in both tiers. Disk
// entries are NumPy .npz archives written atomically, so several processes
// may share one cache directory.
package cache
