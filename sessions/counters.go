package sessions

import (
	"context"

	"github.com/rs/zerolog/log"
)

type counterKey struct {
	date      string
	memberID  string
	breakCode string
}

// DailyCounters caches how many breaks of each type a member has completed
// today. It is a read-through cache over the durable log, not a source of
// truth: on a miss the count is recomputed from closed log entries for the
// date and cached. The cache resets at the first access of a later day;
// accesses with an earlier date (a cancel of a break that straddled
// midnight) read through under their own key without disturbing the current
// day's counts.
//
// Known consistency relaxation: an increment is visible to this process
// immediately but reaches the durable log only when the break closes, so a
// second process would not see it until then. This staleness window is an
// accepted latency trade-off, not a bug.
//
// DailyCounters performs no internal locking: callers must hold the Guard.
type DailyCounters struct {
	store  Store
	day    string
	counts map[counterKey]int
}

// NewDailyCounters creates an empty cache backed by store.
func NewDailyCounters(store Store) *DailyCounters {
	return &DailyCounters{
		store:  store,
		counts: make(map[counterKey]int),
	}
}

// Get returns the member's completed-break count for the break code on the
// given date. On a miss it recomputes from the durable log; if the store is
// unreachable it degrades to zero without caching, so the next access
// retries.
func (d *DailyCounters) Get(ctx context.Context, memberID, breakCode, date string) int {
	d.rollover(date)
	key := counterKey{date: date, memberID: memberID, breakCode: breakCode}
	if count, ok := d.counts[key]; ok {
		return count
	}
	count, err := d.store.CountClosed(ctx, date, memberID, breakCode)
	if err != nil {
		log.Warn().Err(err).
			Str("member", memberID).
			Str("break", breakCode).
			Msg("daily counter recompute failed, assuming zero")
		return 0
	}
	d.counts[key] = count
	return count
}

// Increment bumps the member's count for the break code on date.
func (d *DailyCounters) Increment(ctx context.Context, memberID, breakCode, date string) {
	count := d.Get(ctx, memberID, breakCode, date)
	d.counts[counterKey{date: date, memberID: memberID, breakCode: breakCode}] = count + 1
}

// Decrement undoes an increment after a cancellation. The count never goes
// below zero.
func (d *DailyCounters) Decrement(ctx context.Context, memberID, breakCode, date string) {
	count := d.Get(ctx, memberID, breakCode, date)
	if count > 0 {
		d.counts[counterKey{date: date, memberID: memberID, breakCode: breakCode}] = count - 1
	}
}

// rollover discards all cached counts at the first access of a later day;
// yesterday's counts must never be trusted for today. An earlier date never
// rolls the day backwards: dates sort lexicographically in DateLayout.
func (d *DailyCounters) rollover(date string) {
	if date <= d.day {
		return
	}
	d.day = date
	d.counts = make(map[counterKey]int)
}
