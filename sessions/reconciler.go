package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/breaks"
)

// RunStatus records the outcome of one reconciliation pass, kept for
// operator visibility on the health endpoint.
type RunStatus struct {
	Time     time.Time
	OK       bool
	Error    string
	Pushed   int // registry entries written back to the store's open view
	Evicted  int // registry entries removed for lack of justification
	Restored int // store open-view rows re-created in the registry
}

// Reconciler heals drift between the registry and the durable punch log. It
// runs on a timer, and synchronously when a registry write approaches the
// capacity ceiling. Every effect is idempotent: running a pass twice changes
// nothing the second time. A pass tolerates partial store failures and is
// never fatal.
type Reconciler struct {
	registry     *Registry
	store        Store
	guard        *Guard
	catalog      breaks.Catalog
	loc          *time.Location
	graceMinutes int
	nowTime      func() time.Time

	mu   sync.Mutex
	last RunStatus
}

// ReconcilerOption modifies a Reconciler at construction time.
type ReconcilerOption func(*Reconciler)

// WithReconcilerNowTime sets the clock (primarily for testing).
func WithReconcilerNowTime(nowFunc func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.nowTime = nowFunc }
}

// WithReconcilerGrace sets the grace period, in minutes, granted to breaks
// that straddled midnight before they count as stale. It must match the
// sweeper's grace so the sweeper always gets to close them first.
func WithReconcilerGrace(minutes int) ReconcilerOption {
	return func(r *Reconciler) { r.graceMinutes = minutes }
}

// NewReconciler wires a Reconciler to the registry and store it keeps
// consistent.
func NewReconciler(registry *Registry, store Store, guard *Guard, catalog breaks.Catalog, loc *time.Location, options ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		registry:     registry,
		store:        store,
		guard:        guard,
		catalog:      catalog,
		loc:          loc,
		graceMinutes: 5,
		nowTime:      time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Start runs a pass every interval until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Run(ctx)
		}
	}
}

// Run executes one pass, acquiring the Guard. A contended lock is reported
// as a failed run and retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) RunStatus {
	if !r.guard.Acquire() {
		status := RunStatus{Time: r.nowTime(), Error: "lock contended"}
		r.record(status)
		return status
	}
	defer r.guard.Release()
	return r.RunLocked(ctx)
}

// RunLocked executes one pass with the Guard already held by the caller.
func (r *Reconciler) RunLocked(ctx context.Context) RunStatus {
	now := r.nowTime()
	today := DateString(now, r.loc)
	status := RunStatus{Time: now, OK: true}

	openView, openErr := r.store.QueryOpenOnDate(ctx, today)
	if openErr != nil {
		log.Error().Err(openErr).Msg("reconcile: open view unavailable")
		status.OK = false
		status.Error = openErr.Error()
	}
	closed, closedErr := r.store.QueryClosedByDate(ctx, today)
	if closedErr != nil {
		log.Error().Err(closedErr).Msg("reconcile: closed log unavailable")
		status.OK = false
		status.Error = closedErr.Error()
	}

	yesterday := DateString(now.AddDate(0, 0, -1), r.loc)
	closedStarts := make(map[string]bool, len(closed))
	for _, entry := range closed {
		closedStarts[closedKey(entry.MemberID, entry.StartTime, entry.BreakCode)] = true
	}
	inOpenView := make(map[string]bool, len(openView))
	for _, record := range openView {
		inOpenView[record.MemberID] = true
	}

	// Registry side: evict entries with no justification, push legitimate
	// ones the open view is missing.
	for memberID, record := range r.registry.Snapshot() {
		if reason := r.unjustified(record, now, today, yesterday, closedStarts, closedErr == nil); reason != "" {
			r.registry.Remove(memberID)
			status.Evicted++
			log.Warn().Str("member", memberID).Str("reason", reason).Msg("reconcile: evicted registry entry")
			if openErr == nil {
				if err := r.store.DeleteOpen(ctx, memberID, record.StartDate); err != nil {
					log.Error().Err(err).Str("member", memberID).Msg("reconcile: open view cleanup failed")
				}
			}
			continue
		}
		if openErr == nil && !inOpenView[memberID] {
			if err := r.store.PutOpen(ctx, record); err != nil {
				log.Error().Err(err).Str("member", memberID).Msg("reconcile: push to open view failed")
				status.OK = false
				status.Error = err.Error()
				continue
			}
			status.Pushed++
		}
	}

	// Store side: restore open breaks the registry lost (e.g. after a
	// process restart that raced a write).
	if openErr == nil {
		for _, record := range openView {
			if _, ok := r.registry.Get(record.MemberID); ok {
				continue
			}
			if closedStarts[closedKey(record.MemberID, ClockString(record.StartedAt, r.loc), record.BreakCode)] {
				continue // already closed, stale open row
			}
			r.registry.Put(record)
			status.Restored++
			log.Info().Str("member", record.MemberID).Msg("reconcile: restored registry entry from open view")
		}
	}

	r.record(status)
	return status
}

// unjustified returns a non-empty reason when a registry entry has no
// business being there: wrong date, failed integrity checks, or a closed log
// entry already covering it. A break that opened yesterday but is still
// within its expected duration plus grace straddled midnight and stays: the
// sweeper closes it once the allowance runs out.
func (r *Reconciler) unjustified(record SessionRecord, now time.Time, today, yesterday string, closedStarts map[string]bool, closedFresh bool) string {
	if record.MemberID == "" || record.ExpectedMinutes <= 0 {
		return "corrupt record"
	}
	if _, ok := r.catalog.Get(record.BreakCode); !ok {
		return "unknown break code"
	}
	switch record.StartDate {
	case today:
	case yesterday:
		if ElapsedMinutes(record.StartedAt, now, r.loc) > record.ExpectedMinutes+r.graceMinutes {
			return "stale date"
		}
	default:
		return "stale date"
	}
	if closedFresh && closedStarts[closedKey(record.MemberID, ClockString(record.StartedAt, r.loc), record.BreakCode)] {
		return "already closed in log"
	}
	return ""
}

// closedKey identifies a closed log entry by who opened it, when, and what
// kind it was. Start time alone is not enough: a member can close a break
// and open a different one within the same wall-clock second.
func closedKey(memberID, startTime, breakCode string) string {
	return memberID + "|" + startTime + "|" + breakCode
}

// LastStatus returns the most recent pass outcome.
func (r *Reconciler) LastStatus() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reconciler) record(status RunStatus) {
	r.mu.Lock()
	r.last = status
	r.mu.Unlock()
}
