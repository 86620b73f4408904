package flink

import (
	"sync"
	"time"
)

// JobCache is a single-slot snapshot of the last successful listing. The
// whole slot is replaced on write; concurrent refreshes after expiry are
// allowed to race, with last-writer-wins semantics. There is one slot for
// the whole process, so it must not be shared across differently
// parameterized locators.
type JobCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	jobs    []Job
	fetched time.Time
	filled  bool
}

// NewJobCache returns a cache with the given TTL. A TTL of zero or less
// disables caching entirely.
func NewJobCache(ttl time.Duration) *JobCache {
	return &JobCache{ttl: ttl, now: time.Now}
}

// Get returns the cached listing and true while the snapshot is fresh.
func (c *JobCache) Get() ([]Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.filled || c.ttl <= 0 {
		return nil, false
	}
	if c.now().Sub(c.fetched) >= c.ttl {
		return nil, false
	}
	return c.jobs, true
}

// Put replaces the snapshot with a new listing taken now.
func (c *JobCache) Put(jobs []Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = jobs
	c.fetched = c.now()
	c.filled = true
}
