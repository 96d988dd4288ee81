package engine

import "sync/atomic"

// Counters is the set of monotonic counters read by the reporting path
// and mutated concurrently from every search goroutine.
type Counters struct {
	QueryAll            int64
	Uncached            int64
	Enqueued            int64
	Requeued            int64
	Unscored            int64
	InflightRequests    int64
	SumInflightRequests int64
	SumInflightUncached int64
	ReprobeQueryall     int64
}

func (c *Counters) incQueryAll()   { atomic.AddInt64(&c.QueryAll, 1) }
func (c *Counters) incUncached()   { atomic.AddInt64(&c.Uncached, 1) }
func (c *Counters) incEnqueued()   { atomic.AddInt64(&c.Enqueued, 1) }
func (c *Counters) incRequeued()   { atomic.AddInt64(&c.Requeued, 1) }
func (c *Counters) addUnscored(n int64) {
	atomic.AddInt64(&c.Unscored, n)
}
func (c *Counters) incReprobe() { atomic.AddInt64(&c.ReprobeQueryall, 1) }

func (c *Counters) beginInflight(uncached bool) {
	n := atomic.AddInt64(&c.InflightRequests, 1)
	atomic.AddInt64(&c.SumInflightRequests, n)
	if uncached {
		atomic.AddInt64(&c.SumInflightUncached, n)
	}
}

func (c *Counters) endInflight() { atomic.AddInt64(&c.InflightRequests, -1) }

func (c *Counters) snapshotReprobe() int64  { return atomic.LoadInt64(&c.ReprobeQueryall) }
func (c *Counters) snapshotUncached() int64 { return atomic.LoadInt64(&c.Uncached) }

// Snapshot atomically reads every counter at once, for the reporting path.
func (c *Counters) Snapshot() Counters {
	return Counters{
		QueryAll:            atomic.LoadInt64(&c.QueryAll),
		Uncached:            atomic.LoadInt64(&c.Uncached),
		Enqueued:            atomic.LoadInt64(&c.Enqueued),
		Requeued:            atomic.LoadInt64(&c.Requeued),
		Unscored:            atomic.LoadInt64(&c.Unscored),
		InflightRequests:    atomic.LoadInt64(&c.InflightRequests),
		SumInflightRequests: atomic.LoadInt64(&c.SumInflightRequests),
		SumInflightUncached: atomic.LoadInt64(&c.SumInflightUncached),
		ReprobeQueryall:     atomic.LoadInt64(&c.ReprobeQueryall),
	}
}
