package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-punch-server/sessions"
	fakepunchstore "github.com/jrsteele09/go-punch-server/sessions/repofakes"
)

func TestLogWriterAppliesQueuedWrites(t *testing.T) {
	store := fakepunchstore.NewFakePunchStore()
	writer := sessions.NewLogWriter(store, 16)

	ctx, cancel := context.WithCancel(context.Background())
	writer.Start(ctx)

	record := testRecord("alice", "wc", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	writer.PutOpen(record)
	writer.AppendClosed(sessions.LogEntry{
		ID:       "entry-1",
		Date:     "2026-03-14",
		MemberID: "alice",
		Outcome:  sessions.OutcomeOnTime,
	})
	writer.DeleteOpen("alice", "2026-03-14")

	// Stopping the worker drains whatever is still queued.
	cancel()
	writer.Wait()

	require.Len(t, store.ClosedEntries(), 1)
	require.Empty(t, store.OpenRecords())
}

func TestLogWriterDropsWhenQueueFull(t *testing.T) {
	store := fakepunchstore.NewFakePunchStore()
	writer := sessions.NewLogWriter(store, 1)

	// Without a running worker the queue holds one task; the rest drop
	// instead of blocking the caller.
	writer.DeleteOpen("alice", "2026-03-14")
	done := make(chan struct{})
	go func() {
		writer.DeleteOpen("bob", "2026-03-14")
		writer.DeleteOpen("carol", "2026-03-14")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
