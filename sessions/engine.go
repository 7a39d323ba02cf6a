package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/breaks"
	errs "github.com/jrsteele09/go-punch-server/internal/errors"
)

// OpenResult reports the outcome of opening a break.
type OpenResult struct {
	Record       SessionRecord
	Count        int            // member's usage of this break type today, including this one
	DailyLimit   int            // configured advisory quota for the type
	LimitReached bool           // set when Count exceeds the quota; the open still succeeds
	Existing     *SessionRecord // set when the open failed with ErrAlreadyActive
}

// CloseResult reports the outcome of closing a break.
type CloseResult struct {
	Record          SessionRecord
	Outcome         Outcome
	MinutesSpent    int
	ExpectedMinutes int
	DeltaMinutes    int // positive when over the expected duration
}

// CancelResult reports the outcome of cancelling a break.
type CancelResult struct {
	Record SessionRecord
}

// Engine is the per-member break state machine. Every mutation acquires the
// Guard, applies registry and counter changes atomically relative to other
// operations, and hands durable writes to the Appender. Daily limits are
// advisory: nobody is ever prevented from taking a break, they are only
// warned.
type Engine struct {
	catalog      breaks.Catalog
	registry     *Registry
	counters     *DailyCounters
	guard        *Guard
	store        Store
	sink         Appender
	loc          *time.Location
	softCapBytes int

	// capacityReconcile runs synchronously, with the Guard already held,
	// when a write would push the registry past the soft cap.
	capacityReconcile func(context.Context)
}

// EngineOption modifies an Engine at construction time.
type EngineOption func(*Engine)

// WithSoftCapBytes sets the registry size that triggers a synchronous
// reconciliation before a write completes.
func WithSoftCapBytes(bytes int) EngineOption {
	return func(e *Engine) { e.softCapBytes = bytes }
}

// NewEngine wires the lifecycle engine to its stores.
func NewEngine(catalog breaks.Catalog, registry *Registry, counters *DailyCounters, guard *Guard, store Store, sink Appender, loc *time.Location, options ...EngineOption) *Engine {
	e := &Engine{
		catalog:  catalog,
		registry: registry,
		counters: counters,
		guard:    guard,
		store:    store,
		sink:     sink,
		loc:      loc,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// SetCapacityReconciler installs the synchronous reconciliation hook. The
// hook is called with the Guard held and must not acquire it again.
func (e *Engine) SetCapacityReconciler(fn func(context.Context)) {
	e.capacityReconcile = fn
}

// Open starts a break for the member. It fails with ErrAlreadyActive (and the
// existing record in the result) if the member already has one, and with
// ErrUnknownBreak for codes outside the catalogue. A member at or over the
// daily quota still gets the break; the result just carries LimitReached.
func (e *Engine) Open(ctx context.Context, memberID, breakCode, chatID string, now time.Time) (OpenResult, error) {
	if !e.guard.Acquire() {
		return OpenResult{}, errs.ErrBusy
	}
	defer e.guard.Release()

	if existing, ok := e.registry.Get(memberID); ok {
		return OpenResult{Existing: &existing}, errs.ErrAlreadyActive
	}

	breakType, ok := e.catalog.Get(breakCode)
	if !ok {
		return OpenResult{}, errs.ErrUnknownBreak
	}

	date := DateString(now, e.loc)
	used := e.counters.Get(ctx, memberID, breakCode, date)
	record := SessionRecord{
		ID:              uuid.NewString(),
		MemberID:        memberID,
		BreakCode:       breakCode,
		StartedAt:       now.In(e.loc),
		StartDate:       date,
		ExpectedMinutes: breakType.DurationMinutes,
		ChatID:          chatID,
	}

	// Reconcile before the write if the serialized registry is near its
	// capacity ceiling, so growth stays bounded and the write cannot hit a
	// hard failure.
	if e.softCapBytes > 0 && e.capacityReconcile != nil && e.registry.SizeEstimate() >= e.softCapBytes {
		log.Warn().Int("size_bytes", e.registry.SizeEstimate()).Msg("registry near capacity, reconciling before write")
		e.capacityReconcile(ctx)
	}

	e.registry.Put(record)
	e.counters.Increment(ctx, memberID, breakCode, date)
	e.sink.PutOpen(record)

	return OpenResult{
		Record:       record,
		Count:        used + 1,
		DailyLimit:   breakType.DailyLimit,
		LimitReached: used >= breakType.DailyLimit,
	}, nil
}

// Close ends the member's open break, classifies it as on-time or overtime,
// and appends a durable log entry. It fails with ErrNoActiveSession if the
// member has no open break.
func (e *Engine) Close(ctx context.Context, memberID string, now time.Time) (CloseResult, error) {
	if !e.guard.Acquire() {
		return CloseResult{}, errs.ErrBusy
	}
	defer e.guard.Release()
	return e.closeLocked(memberID, now, false)
}

// AutoClose is invoked only by the sweeper, never by member action. It closes
// like Close but forces the auto-closed-overtime outcome. A member who closed
// concurrently yields ErrNoActiveSession, which the sweeper skips silently.
func (e *Engine) AutoClose(ctx context.Context, memberID string, now time.Time) (CloseResult, error) {
	if !e.guard.Acquire() {
		return CloseResult{}, errs.ErrBusy
	}
	defer e.guard.Release()
	return e.closeLocked(memberID, now, true)
}

func (e *Engine) closeLocked(memberID string, now time.Time, auto bool) (CloseResult, error) {
	record, ok := e.registry.Get(memberID)
	if !ok {
		return CloseResult{}, errs.ErrNoActiveSession
	}

	minutes := ElapsedMinutes(record.StartedAt, now, e.loc)
	outcome := OutcomeOnTime
	if minutes > record.ExpectedMinutes {
		outcome = OutcomeOvertime
	}
	if auto {
		outcome = OutcomeAutoClosed
	}

	e.registry.Remove(memberID)
	e.sink.AppendClosed(LogEntry{
		ID:           uuid.NewString(),
		Date:         record.StartDate,
		StartTime:    ClockString(record.StartedAt, e.loc),
		MemberID:     memberID,
		BreakCode:    record.BreakCode,
		MinutesSpent: minutes,
		EndTime:      ClockString(now, e.loc),
		Outcome:      outcome,
		ChatID:       record.ChatID,
	})
	e.sink.DeleteOpen(memberID, record.StartDate)

	return CloseResult{
		Record:          record,
		Outcome:         outcome,
		MinutesSpent:    minutes,
		ExpectedMinutes: record.ExpectedMinutes,
		DeltaMinutes:    minutes - record.ExpectedMinutes,
	}, nil
}

// Cancel removes the member's open break as if it never happened: the counter
// increment is undone and no durable log entry is written.
func (e *Engine) Cancel(ctx context.Context, memberID string) (CancelResult, error) {
	if !e.guard.Acquire() {
		return CancelResult{}, errs.ErrBusy
	}
	defer e.guard.Release()

	record, ok := e.registry.Get(memberID)
	if !ok {
		return CancelResult{}, errs.ErrNoActiveSession
	}

	e.registry.Remove(memberID)
	e.counters.Decrement(ctx, memberID, record.BreakCode, record.StartDate)
	e.sink.DeleteOpen(memberID, record.StartDate)

	return CancelResult{Record: record}, nil
}

// Rebuild replays today's open view from the durable log into the registry.
// It runs on cold start, before any traffic is served.
func (e *Engine) Rebuild(ctx context.Context, now time.Time) error {
	if !e.guard.Acquire() {
		return errs.ErrBusy
	}
	defer e.guard.Release()

	date := DateString(now, e.loc)
	records, err := e.store.QueryOpenOnDate(ctx, date)
	if err != nil {
		return errs.Wrapf(err, "replaying open breaks for %s", date)
	}
	for _, record := range records {
		e.registry.Put(record)
	}
	if len(records) > 0 {
		log.Info().Int("count", len(records)).Msg("restored open breaks from punch log")
	}
	return nil
}

// SnapshotOpen returns a copy of all open breaks, acquiring the Guard for at
// most wait. It returns false when the lock is contended; callers treat that
// as "try again later".
func (e *Engine) SnapshotOpen(wait time.Duration) (map[string]SessionRecord, bool) {
	if !e.guard.AcquireWait(wait) {
		return nil, false
	}
	defer e.guard.Release()
	return e.registry.Snapshot(), true
}
