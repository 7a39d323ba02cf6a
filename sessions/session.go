// Package sessions implements the break-session state machine and the stores
// that keep it consistent: a fast in-memory registry of open breaks, a
// read-through daily counter cache, a global advisory lock serializing
// mutations, a background writer feeding the durable punch log, a reconciler
// that heals drift between the registry and the log, and a sweeper that
// force-closes overdue breaks.
package sessions

import (
	"math"
	"time"
)

// Layouts for calendar dates and punch times as stored in the durable log.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Outcome classifies how a break ended.
type Outcome string

const (
	OutcomeOnTime     Outcome = "on-time"
	OutcomeOvertime   Outcome = "overtime"
	OutcomeAutoClosed Outcome = "auto-closed-overtime"
)

// SessionRecord is one currently-open break. The expected duration is copied
// from the catalogue at open time so later configuration changes never affect
// breaks already in flight.
type SessionRecord struct {
	ID              string    // Unique record identifier (UUID)
	MemberID        string    // Stable member identity
	BreakCode       string    // Break type code, e.g. "wc"
	StartedAt       time.Time // When the break opened, in the deployment timezone
	StartDate       string    // Calendar date of opening (DateLayout)
	ExpectedMinutes int       // Expected duration at open time
	ChatID          string    // Channel to deliver later notifications to
}

// LogEntry is one closed (or force-closed) break, immutable once appended.
// Cancelled breaks never produce a LogEntry.
type LogEntry struct {
	ID           string
	Date         string // Calendar date the break opened (DateLayout)
	StartTime    string // Time of day the break opened (TimeLayout)
	MemberID     string
	BreakCode    string
	MinutesSpent int
	EndTime      string // Time of day the break closed (TimeLayout)
	Outcome      Outcome
	ChatID       string
}

// DateString formats t as a calendar date in loc.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ClockString formats t as a time of day in loc.
func ClockString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

func secondsOfDay(t time.Time, loc *time.Location) int {
	t = t.In(loc)
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// ElapsedMinutes computes the rounded minutes between two punch times using
// time-of-day arithmetic in loc. A negative raw difference means the break
// crossed midnight, so a day's worth of seconds is added back. The result is
// never negative.
func ElapsedMinutes(start, end time.Time, loc *time.Location) int {
	elapsed := secondsOfDay(end, loc) - secondsOfDay(start, loc)
	if elapsed < 0 {
		elapsed += 24 * 3600
	}
	minutes := int(math.Round(float64(elapsed) / 60.0))
	if minutes < 0 {
		return 0
	}
	return minutes
}
