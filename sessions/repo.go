package sessions

import "context"

// Store is the durable punch log: slow, authoritative and append-only for
// closed breaks, plus a live view of open breaks used for cold-start replay
// and reconciliation. After a reconciliation pass the store is the sole
// source of truth.
type Store interface {
	// AppendClosed records a closed break. Entries are never mutated or
	// reordered after being written.
	AppendClosed(ctx context.Context, entry LogEntry) error

	// QueryClosedByDate returns all closed entries for a calendar date.
	QueryClosedByDate(ctx context.Context, date string) ([]LogEntry, error)

	// CountClosed counts closed entries for one member and break code on a date.
	CountClosed(ctx context.Context, date, memberID, breakCode string) (int, error)

	// PutOpen upserts a record into the live view of open breaks.
	PutOpen(ctx context.Context, record SessionRecord) error

	// DeleteOpen removes a member's record from the live view for a date.
	// Removing a record that does not exist is not an error.
	DeleteOpen(ctx context.Context, memberID, date string) error

	// QueryOpenOnDate returns the live view of open breaks for a date.
	QueryOpenOnDate(ctx context.Context, date string) ([]SessionRecord, error)
}

// Appender receives durable-write requests from the lifecycle engine. The
// production implementation (LogWriter) dispatches them to a background
// worker so member-facing responses never wait on the store.
type Appender interface {
	AppendClosed(entry LogEntry)
	PutOpen(record SessionRecord)
	DeleteOpen(memberID, date string)
}
