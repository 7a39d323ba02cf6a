package sessions

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	errs "github.com/jrsteele09/go-punch-server/internal/errors"
)

// Sweeper force-closes breaks that have overrun their expected duration plus
// the grace period. It snapshots the registry, then auto-closes each overdue
// member through the engine under the normal lock discipline; a member who
// punched back between the snapshot and the auto-close is skipped silently.
type Sweeper struct {
	engine       *Engine
	notifier     Notifier
	graceMinutes int
	loc          *time.Location
	nowTime      func() time.Time
	snapshotWait time.Duration
}

// SweeperOption modifies a Sweeper at construction time.
type SweeperOption func(*Sweeper)

// WithSweeperNowTime sets the clock (primarily for testing).
func WithSweeperNowTime(nowFunc func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.nowTime = nowFunc }
}

// NewSweeper creates a Sweeper with the given grace period in minutes.
func NewSweeper(engine *Engine, notifier Notifier, graceMinutes int, loc *time.Location, options ...SweeperOption) *Sweeper {
	s := &Sweeper{
		engine:       engine,
		notifier:     notifier,
		graceMinutes: graceMinutes,
		loc:          loc,
		nowTime:      time.Now,
		snapshotWait: 2 * time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Start sweeps every interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep over all open breaks and returns how many
// were force-closed.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	now := s.nowTime()
	snapshot, ok := s.engine.SnapshotOpen(s.snapshotWait)
	if !ok {
		log.Debug().Msg("sweep skipped, lock contended")
		return 0
	}

	closed := 0
	for memberID, record := range snapshot {
		elapsed := ElapsedMinutes(record.StartedAt, now, s.loc)
		if elapsed <= record.ExpectedMinutes+s.graceMinutes {
			continue
		}

		result, err := s.engine.AutoClose(ctx, memberID, now)
		switch {
		case err == nil:
			closed++
			log.Info().
				Str("member", memberID).
				Str("break", record.BreakCode).
				Int("minutes", result.MinutesSpent).
				Msg("auto-closed overdue break")
			if s.notifier != nil && record.ChatID != "" {
				s.notifier.Notify(ctx, record.ChatID, Event{
					Kind:            EventAutoClosed,
					MemberID:        memberID,
					BreakCode:       record.BreakCode,
					ExpectedMinutes: result.ExpectedMinutes,
					ActualMinutes:   result.MinutesSpent,
				})
			}
		case errs.Is(err, errs.ErrNoActiveSession):
			// Closed or cancelled between snapshot and auto-close; nothing to do.
		case errs.Is(err, errs.ErrBusy):
			log.Debug().Str("member", memberID).Msg("auto-close deferred, lock contended")
		default:
			log.Error().Err(err).Str("member", memberID).Msg("auto-close failed")
		}
	}
	return closed
}
