package engine

import (
	"sync/atomic"

	"ghostline/types"
)

// statCounters holds the session usage counters. Increments are atomic;
// nothing broader is needed since the counters are independent.
type statCounters struct {
	totalRequests         atomic.Int64
	successfulCompletions atomic.Int64
	acceptedCompletions   atomic.Int64
}

func (c *statCounters) snapshot() types.UsageStats {
	return types.UsageStats{
		TotalRequests:         c.totalRequests.Load(),
		SuccessfulCompletions: c.successfulCompletions.Load(),
		AcceptedCompletions:   c.acceptedCompletions.Load(),
	}
}

func (c *statCounters) reset() {
	c.totalRequests.Store(0)
	c.successfulCompletions.Store(0)
	c.acceptedCompletions.Store(0)
}

func (c *statCounters) restore(stats types.UsageStats) {
	c.totalRequests.Store(stats.TotalRequests)
	c.successfulCompletions.Store(stats.SuccessfulCompletions)
	c.acceptedCompletions.Store(stats.AcceptedCompletions)
}
