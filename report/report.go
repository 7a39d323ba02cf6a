// Package report builds the end-of-day break report and runs the monthly
// archive job over the punch log.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/dispatch"
	"github.com/jrsteele09/go-punch-server/sessions"
)

// Summary aggregates one day's closed breaks.
type Summary struct {
	TotalsByCode  map[string]int
	LeadersByCode map[string]Leader
	Chats         []string // distinct origin chats seen that day
}

// Leader is the member with the most breaks of one type.
type Leader struct {
	MemberID string
	Count    int
}

// Generator queries the punch log and sends the daily report.
type Generator struct {
	store   sessions.Store
	sender  dispatch.Sender
	loc     *time.Location
	nowTime func() time.Time
}

// Option modifies a Generator at construction time.
type Option func(*Generator)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Generator) { g.nowTime = nowFunc }
}

// New creates a Generator.
func New(store sessions.Store, sender dispatch.Sender, loc *time.Location, options ...Option) *Generator {
	g := &Generator{
		store:   store,
		sender:  sender,
		loc:     loc,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Summarize aggregates closed entries into per-type totals and leaders.
func Summarize(entries []sessions.LogEntry) Summary {
	summary := Summary{
		TotalsByCode:  make(map[string]int),
		LeadersByCode: make(map[string]Leader),
	}
	perMember := make(map[string]map[string]int) // code -> member -> count
	chats := make(map[string]bool)

	for _, entry := range entries {
		summary.TotalsByCode[entry.BreakCode]++
		if perMember[entry.BreakCode] == nil {
			perMember[entry.BreakCode] = make(map[string]int)
		}
		perMember[entry.BreakCode][entry.MemberID]++
		if entry.ChatID != "" {
			chats[entry.ChatID] = true
		}
	}

	for code, counts := range perMember {
		var leader Leader
		members := make([]string, 0, len(counts))
		for member := range counts {
			members = append(members, member)
		}
		sort.Strings(members) // deterministic tie-break
		for _, member := range members {
			if counts[member] > leader.Count {
				leader = Leader{MemberID: member, Count: counts[member]}
			}
		}
		summary.LeadersByCode[code] = leader
	}

	for chat := range chats {
		summary.Chats = append(summary.Chats, chat)
	}
	sort.Strings(summary.Chats)
	return summary
}

var leaderTitles = []struct {
	code  string
	title string
}{
	{"bwc", "💩 King of Poop (BWC)"},
	{"wc", "🚽 King of Pee (WC)"},
	{"cy", "🚬 King of Smoke (CY)"},
}

// Render formats the daily report for a date.
func Render(date string, summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 DAILY REPORT - %s\n\n", date)

	b.WriteString("📊 TOTAL BREAKS TODAY:\n")
	codes := make([]string, 0, len(summary.TotalsByCode))
	for code := range summary.TotalsByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, "%s: %dx\n", strings.ToUpper(code), summary.TotalsByCode[code])
	}

	b.WriteString("\n🏆 LEADERBOARD:\n")
	for _, entry := range leaderTitles {
		if leader, ok := summary.LeadersByCode[entry.code]; ok && leader.Count > 0 {
			fmt.Fprintf(&b, "%s: @%s\n", entry.title, leader.MemberID)
		}
	}
	return b.String()
}

// SendDaily builds today's report and sends it to every chat that had
// activity. A day with no closed breaks sends nothing.
func (g *Generator) SendDaily(ctx context.Context) error {
	date := sessions.DateString(g.nowTime(), g.loc)
	entries, err := g.store.QueryClosedByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("loading punch logs for report: %w", err)
	}
	if len(entries) == 0 {
		log.Info().Str("date", date).Msg("no breaks today, skipping daily report")
		return nil
	}

	summary := Summarize(entries)
	text := Render(date, summary)
	for _, chat := range summary.Chats {
		if err := g.sender.SendMessage(ctx, chat, text); err != nil {
			log.Error().Err(err).Str("chat", chat).Msg("sending daily report failed")
		}
	}
	return nil
}

// RunDailyAt sends the report every day at the given hour until ctx is
// cancelled.
func (g *Generator) RunDailyAt(ctx context.Context, hour int) {
	for {
		now := g.nowTime().In(g.loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, g.loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := g.SendDaily(ctx); err != nil {
				log.Error().Err(err).Msg("daily report failed")
			}
		}
	}
}
