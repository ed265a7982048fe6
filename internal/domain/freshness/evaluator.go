package freshness

import "time"

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Evaluator decides whether cached rows are still valid under a Policy.
type Evaluator struct {
	policy Policy
	now    Clock
}

// NewEvaluator builds an evaluator. A nil clock falls back to SystemClock.
func NewEvaluator(policy Policy, clock Clock) *Evaluator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Evaluator{policy: policy, now: clock}
}

func (e *Evaluator) Now() time.Time { return e.now() }

func (e *Evaluator) Policy() Policy { return e.policy }

// TTL returns the time-to-live configured for c.
func (e *Evaluator) TTL(c Category) time.Duration { return e.policy.TTL(c) }

// IsValid reports whether a row cached at cachedAtMillis is younger than ttl.
// A row aged exactly ttl is stale.
func (e *Evaluator) IsValid(cachedAtMillis int64, ttl time.Duration) bool {
	age := e.now().UnixMilli() - cachedAtMillis
	return age < ttl.Milliseconds()
}

// IsValidSet reports whether every row is valid. An empty set is never valid;
// callers that need "fetched, empty" consult the fetch sentinels.
func (e *Evaluator) IsValidSet(cachedAtMillis []int64, ttl time.Duration) bool {
	if len(cachedAtMillis) == 0 {
		return false
	}
	for _, at := range cachedAtMillis {
		if !e.IsValid(at, ttl) {
			return false
		}
	}
	return true
}

// IsFresh is IsValid for the TTL of category c.
func (e *Evaluator) IsFresh(cachedAtMillis int64, c Category) bool {
	return e.IsValid(cachedAtMillis, e.TTL(c))
}

// AreFresh is IsValidSet for the TTL of category c.
func (e *Evaluator) AreFresh(cachedAtMillis []int64, c Category) bool {
	return e.IsValidSet(cachedAtMillis, e.TTL(c))
}
