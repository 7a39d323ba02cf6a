package sessions

import "context"

// EventKind identifies what happened to a break.
type EventKind string

const (
	EventAutoClosed EventKind = "auto-closed"
)

// Event is the structured payload handed to the notification collaborator.
// The core never renders user-facing text; the collaborator owns the copy.
type Event struct {
	Kind            EventKind
	MemberID        string
	BreakCode       string
	ExpectedMinutes int
	ActualMinutes   int
}

// Notifier delivers structured break events to a channel. Implemented by the
// dispatcher, which renders and sends the actual message.
type Notifier interface {
	Notify(ctx context.Context, channel string, event Event)
}
