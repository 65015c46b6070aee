package cache

import "time"

// Policy configures how the Manager uses its tiers.
type Policy struct {
	// AutoPersist writes every freshly computed field to the disk tier.
	AutoPersist bool

	// ReadThrough consults the disk tier on a memory miss before computing.
	ReadThrough bool

	// WriteRetries is the number of additional disk write attempts after a
	// failed write. Zero disables retries.
	WriteRetries int

	// RetryDelay is the delay before the first retry; it doubles per attempt.
	RetryDelay time.Duration

	// BreakerThreshold is the number of consecutive disk failures after which
	// the disk tier is skipped for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int

	// BreakerCooldown is how long the disk tier is skipped once tripped.
	BreakerCooldown time.Duration
}

// DefaultPolicy returns the default caching policy.
// AutoPersist and ReadThrough on, 2 retries from 50ms, breaker after 5
// failures with a 30 second cooldown.
func DefaultPolicy() Policy {
	return Policy{
		AutoPersist:      true,
		ReadThrough:      true,
		WriteRetries:     2,
		RetryDelay:       50 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// MemoryOnlyPolicy returns a policy that never touches the disk tier
// implicitly. Explicit Load and Save still work when a disk tier is set.
func MemoryOnlyPolicy() Policy {
	return Policy{}
}

// UsesDisk reports whether GetOrCompute consults or fills the disk tier.
func (p Policy) UsesDisk() bool {
	return p.AutoPersist || p.ReadThrough
}
