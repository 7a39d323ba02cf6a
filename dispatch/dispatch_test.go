package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-punch-server/breaks"
	"github.com/jrsteele09/go-punch-server/dispatch"
	"github.com/jrsteele09/go-punch-server/sessions"
	fakepunchstore "github.com/jrsteele09/go-punch-server/sessions/repofakes"
)

type fakeSender struct {
	chatIDs  []string
	messages []string
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type dispatchFixture struct {
	dispatcher *dispatch.Dispatcher
	sender     *fakeSender
	clock      *time.Time
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	catalog := breaks.Default()
	store := fakepunchstore.NewFakePunchStore()
	sink := fakepunchstore.NewSyncSink(store)
	engine := sessions.NewEngine(
		catalog,
		sessions.NewRegistry(),
		sessions.NewDailyCounters(store),
		sessions.NewGuard(time.Second),
		store,
		sink,
		time.UTC,
	)
	sender := &fakeSender{}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	fixture := &dispatchFixture{sender: sender, clock: &now}
	fixture.dispatcher = dispatch.New(engine, catalog, sender,
		dispatch.WithNowTime(func() time.Time { return *fixture.clock }))
	return fixture
}

func (f *dispatchFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func event(text string) dispatch.InboundEvent {
	return dispatch.InboundEvent{ChatID: "chat-1", MemberID: "alice", Text: text}
}

func TestHandleOpensBreak(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle(context.Background(), event("wc"))

	require.Len(t, f.sender.messages, 1)
	require.Equal(t, "chat-1", f.sender.chatIDs[0])
	message := f.sender.last(t)
	require.Contains(t, message, "👤 @alice")
	require.Contains(t, message, "Waste Control (10 min)")
	require.Contains(t, message, "Status: OK | 1/5 used today")
}

func TestHandleRejectsSecondOpen(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, event("wc"))
	f.dispatcher.Handle(ctx, event("cy"))

	message := f.sender.last(t)
	require.Contains(t, message, "You already have an active break!")
	require.Contains(t, message, "Active: wc (09:00:00)")
}

func TestHandleClosesOnTime(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, event("wc"))
	f.advance(7 * time.Minute)
	f.dispatcher.Handle(ctx, event("back"))

	message := f.sender.last(t)
	require.Contains(t, message, "⏱️ Expected: 10min")
	require.Contains(t, message, "📊 Actual: 7min")
	require.Contains(t, message, "(3min under)")
	require.NotContains(t, message, "Over by")
}

func TestHandleClosesOvertime(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, event("cy"))
	f.advance(18 * time.Minute)
	f.dispatcher.Handle(ctx, event("b"))

	message := f.sender.last(t)
	require.Contains(t, message, "⏱️ Expected: 10min")
	require.Contains(t, message, "📊 Actual: 18min")
	require.Contains(t, message, "🚨 Over by 8min!")
}

func TestHandleBackWithoutBreak(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle(context.Background(), event("back"))

	require.Contains(t, f.sender.last(t), "👤 @alice")
	// One of the no-active-break lines, never a break confirmation.
	require.NotContains(t, f.sender.last(t), "Expected:")
}

func TestHandleCancel(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, event("bwc"))
	f.dispatcher.Handle(ctx, event("cancel"))

	require.Len(t, f.sender.messages, 2)

	// Cancelled break leaves nothing behind, so the next one reads 1/limit.
	f.dispatcher.Handle(ctx, event("bwc"))
	require.Contains(t, f.sender.last(t), "Status: OK | 1/3 used today")
}

func TestHandleCancelWithoutBreak(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle(context.Background(), event("c"))

	require.Contains(t, f.sender.last(t), "⚠️ No entry to cancel today!")
}

func TestHandleInvalidCode(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle(context.Background(), event("lunch please"))

	require.Len(t, f.sender.messages, 1)
	require.Contains(t, f.sender.last(t), "👤 @alice")
}

func TestHandleLimitReached(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.dispatcher.Handle(ctx, event("cy"))
		f.advance(5 * time.Minute)
		f.dispatcher.Handle(ctx, event("back"))
		f.advance(time.Minute)
	}
	f.dispatcher.Handle(ctx, event("cy"))

	// The break still opens, the reply just swaps the status line.
	message := f.sender.last(t)
	require.Contains(t, message, "Smoking Break (10 min)")
	require.NotContains(t, message, "used today")
}

func TestNotifyRendersAutoClose(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Notify(context.Background(), "chat-9", sessions.Event{
		Kind:            sessions.EventAutoClosed,
		MemberID:        "bob",
		BreakCode:       "bwc",
		ExpectedMinutes: 20,
		ActualMinutes:   26,
	})

	require.Equal(t, []string{"chat-9"}, f.sender.chatIDs)
	message := f.sender.last(t)
	require.Contains(t, message, "👤 @bob")
	require.Contains(t, message, "BWC")
	require.Contains(t, message, "⏱️ Expected: 20min")
	require.Contains(t, message, "📊 Actual: 26min")
	require.Contains(t, message, "🚨 Over by 6min")
}

func TestNotifyIgnoresOtherEvents(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Notify(context.Background(), "chat-9", sessions.Event{Kind: "something-else"})

	require.Empty(t, f.sender.messages)
}
