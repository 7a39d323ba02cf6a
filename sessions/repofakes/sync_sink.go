package fakepunchstore

import (
	"context"

	"github.com/jrsteele09/go-punch-server/sessions"
)

var _ sessions.Appender = (*SyncSink)(nil)

// SyncSink is a sessions.Appender that writes straight through to a store,
// so tests observe durable writes without waiting on a background worker.
type SyncSink struct {
	Store sessions.Store
}

func NewSyncSink(store sessions.Store) *SyncSink {
	return &SyncSink{Store: store}
}

func (s *SyncSink) AppendClosed(entry sessions.LogEntry) {
	_ = s.Store.AppendClosed(context.Background(), entry)
}

func (s *SyncSink) PutOpen(record sessions.SessionRecord) {
	_ = s.Store.PutOpen(context.Background(), record)
}

func (s *SyncSink) DeleteOpen(memberID, date string) {
	_ = s.Store.DeleteOpen(context.Background(), memberID, date)
}
