package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-punch-server/report"
	"github.com/jrsteele09/go-punch-server/sessions"
	fakepunchstore "github.com/jrsteele09/go-punch-server/sessions/repofakes"
)

type fakeSender struct {
	chatIDs  []string
	messages []string
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return nil
}

func closedEntry(memberID, breakCode, chatID string) sessions.LogEntry {
	return sessions.LogEntry{
		ID:           memberID + "-" + breakCode,
		Date:         "2026-03-14",
		StartTime:    "09:00:00",
		MemberID:     memberID,
		BreakCode:    breakCode,
		MinutesSpent: 8,
		EndTime:      "09:08:00",
		Outcome:      sessions.OutcomeOnTime,
		ChatID:       chatID,
	}
}

func TestSummarize(t *testing.T) {
	entries := []sessions.LogEntry{
		closedEntry("alice", "wc", "chat-1"),
		closedEntry("alice", "wc", "chat-1"),
		closedEntry("bob", "wc", "chat-2"),
		closedEntry("bob", "cy", "chat-2"),
	}

	summary := report.Summarize(entries)

	require.Equal(t, map[string]int{"wc": 3, "cy": 1}, summary.TotalsByCode)
	require.Equal(t, report.Leader{MemberID: "alice", Count: 2}, summary.LeadersByCode["wc"])
	require.Equal(t, report.Leader{MemberID: "bob", Count: 1}, summary.LeadersByCode["cy"])
	require.Equal(t, []string{"chat-1", "chat-2"}, summary.Chats)
}

func TestSummarizeTieBreaksAlphabetically(t *testing.T) {
	entries := []sessions.LogEntry{
		closedEntry("zoe", "wc", "chat-1"),
		closedEntry("alice", "wc", "chat-1"),
	}

	summary := report.Summarize(entries)

	require.Equal(t, "alice", summary.LeadersByCode["wc"].MemberID)
}

func TestRender(t *testing.T) {
	summary := report.Summarize([]sessions.LogEntry{
		closedEntry("alice", "wc", "chat-1"),
		closedEntry("alice", "bwc", "chat-1"),
		closedEntry("bob", "cy", "chat-1"),
	})

	text := report.Render("2026-03-14", summary)

	require.Contains(t, text, "📊 DAILY REPORT - 2026-03-14")
	require.Contains(t, text, "WC: 1x")
	require.Contains(t, text, "BWC: 1x")
	require.Contains(t, text, "CY: 1x")
	require.Contains(t, text, "💩 King of Poop (BWC): @alice")
	require.Contains(t, text, "🚽 King of Pee (WC): @alice")
	require.Contains(t, text, "🚬 King of Smoke (CY): @bob")
}

func TestRenderSkipsEmptyLeaderSlots(t *testing.T) {
	summary := report.Summarize([]sessions.LogEntry{
		closedEntry("alice", "wc", "chat-1"),
	})

	text := report.Render("2026-03-14", summary)

	require.Contains(t, text, "King of Pee")
	require.NotContains(t, text, "King of Poop")
	require.NotContains(t, text, "King of Smoke")
}

func TestSendDaily(t *testing.T) {
	ctx := context.Background()
	store := fakepunchstore.NewFakePunchStore()
	require.NoError(t, store.AppendClosed(ctx, closedEntry("alice", "wc", "chat-1")))
	require.NoError(t, store.AppendClosed(ctx, closedEntry("bob", "cy", "chat-2")))

	sender := &fakeSender{}
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	generator := report.New(store, sender, time.UTC,
		report.WithNowTime(func() time.Time { return now }))

	require.NoError(t, generator.SendDaily(ctx))

	require.Equal(t, []string{"chat-1", "chat-2"}, sender.chatIDs)
	require.Len(t, sender.messages, 2)
	require.Equal(t, sender.messages[0], sender.messages[1], "every chat gets the same report")
	require.Contains(t, sender.messages[0], "DAILY REPORT - 2026-03-14")
}

func TestSendDailySkipsQuietDays(t *testing.T) {
	store := fakepunchstore.NewFakePunchStore()
	sender := &fakeSender{}
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	generator := report.New(store, sender, time.UTC,
		report.WithNowTime(func() time.Time { return now }))

	require.NoError(t, generator.SendDaily(context.Background()))

	require.Empty(t, sender.messages)
}

func TestSendDailyPropagatesStoreErrors(t *testing.T) {
	store := fakepunchstore.NewFakePunchStore()
	store.QueryErr = context.DeadlineExceeded
	sender := &fakeSender{}
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	generator := report.New(store, sender, time.UTC,
		report.WithNowTime(func() time.Time { return now }))

	err := generator.SendDaily(context.Background())

	require.Error(t, err)
	require.Empty(t, sender.messages)
}
