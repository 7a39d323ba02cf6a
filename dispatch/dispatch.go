// Package dispatch decodes inbound chat events into lifecycle calls and
// renders lifecycle results into outbound notifications. All user-facing
// copy lives here; the core only ever returns structured results.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/breaks"
	errs "github.com/jrsteele09/go-punch-server/internal/errors"
	"github.com/jrsteele09/go-punch-server/sessions"
)

// InboundEvent is one decoded chat message. The transport (webhook handler)
// owns the raw payload shape; the dispatcher only ever sees this.
type InboundEvent struct {
	ChatID   string
	MemberID string
	Text     string
}

// Sender delivers a rendered message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Dispatcher routes inbound events to the lifecycle engine and replies with
// rendered results.
type Dispatcher struct {
	engine  *sessions.Engine
	catalog breaks.Catalog
	sender  Sender
	nowTime func() time.Time
}

// Option modifies a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(d *Dispatcher) { d.nowTime = nowFunc }
}

// New creates a Dispatcher.
func New(engine *sessions.Engine, catalog breaks.Catalog, sender Sender, options ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:  engine,
		catalog: catalog,
		sender:  sender,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Handle routes one inbound event: punch-back keywords close, cancel words
// cancel, a recognized break code opens, anything else gets the invalid-code
// reply.
func (d *Dispatcher) Handle(ctx context.Context, event InboundEvent) {
	switch {
	case breaks.IsBack(event.Text):
		d.reply(ctx, event.ChatID, d.handleBack(ctx, event))
	case breaks.IsCancel(event.Text):
		d.reply(ctx, event.ChatID, d.handleCancel(ctx, event))
	default:
		breakType, ok := d.catalog.ParseCode(event.Text)
		if !ok {
			d.reply(ctx, event.ChatID, header(event.MemberID)+pick(invalidCodeMessages))
			return
		}
		d.reply(ctx, event.ChatID, d.handleOpen(ctx, event, breakType))
	}
}

func (d *Dispatcher) handleOpen(ctx context.Context, event InboundEvent, breakType breaks.Type) string {
	result, err := d.engine.Open(ctx, event.MemberID, breakType.Code, event.ChatID, d.nowTime())
	switch {
	case err == nil:
		status := fmt.Sprintf("Status: OK | %d/%d used today", result.Count, result.DailyLimit)
		if result.LimitReached {
			status = pickForCode(breakType.Code, "limitReached")
		}
		return header(event.MemberID) +
			pickForCode(breakType.Code, "breakStarted") +
			fmt.Sprintf("\n\n⏱️ %s (%d min)\n📊 %s", breakType.Name, breakType.DurationMinutes, status)
	case errs.Is(err, errs.ErrAlreadyActive):
		existing := result.Existing
		return header(event.MemberID) + fmt.Sprintf(
			"🤨 You already have an active break!\n\nActive: %s (%s)\n\nType \"back\" to close it first!",
			existing.BreakCode, existing.StartedAt.Format(sessions.TimeLayout))
	case errs.Is(err, errs.ErrBusy):
		return header(event.MemberID) + "⚠️ System busy, please try again in a few seconds."
	default:
		log.Error().Err(err).Str("member", event.MemberID).Msg("open break failed")
		return header(event.MemberID) + "⚠️ Something went wrong, please try again."
	}
}

func (d *Dispatcher) handleBack(ctx context.Context, event InboundEvent) string {
	result, err := d.engine.Close(ctx, event.MemberID, d.nowTime())
	switch {
	case err == nil:
		if result.Outcome == sessions.OutcomeOvertime {
			return header(event.MemberID) +
				pickForCode(result.Record.BreakCode, "overtimeWarning") +
				fmt.Sprintf("\n\n⏱️ Expected: %dmin\n📊 Actual: %dmin\n🚨 Over by %dmin!",
					result.ExpectedMinutes, result.MinutesSpent, result.DeltaMinutes)
		}
		detail := fmt.Sprintf("⏱️ Expected: %dmin\n📊 Actual: %dmin", result.ExpectedMinutes, result.MinutesSpent)
		if result.DeltaMinutes < 0 {
			detail += fmt.Sprintf("\n(%dmin under)", -result.DeltaMinutes)
		}
		return header(event.MemberID) +
			pickForCode(result.Record.BreakCode, "welcomeBack") + "\n\n" + detail
	case errs.Is(err, errs.ErrNoActiveSession):
		return header(event.MemberID) + pick(noActiveBreakMessages)
	case errs.Is(err, errs.ErrBusy):
		return header(event.MemberID) + "⚠️ System busy, please try again in a few seconds."
	default:
		log.Error().Err(err).Str("member", event.MemberID).Msg("close break failed")
		return header(event.MemberID) + "⚠️ Something went wrong, please try again."
	}
}

func (d *Dispatcher) handleCancel(ctx context.Context, event InboundEvent) string {
	result, err := d.engine.Cancel(ctx, event.MemberID)
	switch {
	case err == nil:
		return header(event.MemberID) + pickForCode(result.Record.BreakCode, "cancelled")
	case errs.Is(err, errs.ErrNoActiveSession):
		return header(event.MemberID) + "⚠️ No entry to cancel today!"
	case errs.Is(err, errs.ErrBusy):
		return header(event.MemberID) + "⚠️ System busy, try again."
	default:
		log.Error().Err(err).Str("member", event.MemberID).Msg("cancel break failed")
		return header(event.MemberID) + "⚠️ Error cancelling break."
	}
}

// Notify implements sessions.Notifier for the sweeper: it renders an
// auto-close warning and sends it to the break's origin chat.
func (d *Dispatcher) Notify(ctx context.Context, channel string, event sessions.Event) {
	if event.Kind != sessions.EventAutoClosed {
		return
	}
	message := header(event.MemberID) +
		pickForCode(event.BreakCode, "overtimeWarning") +
		fmt.Sprintf("\n\n%s\n⏱️ Expected: %dmin\n📊 Actual: %dmin\n🚨 Over by %dmin",
			strings.ToUpper(event.BreakCode), event.ExpectedMinutes, event.ActualMinutes,
			event.ActualMinutes-event.ExpectedMinutes)
	d.reply(ctx, channel, message)
}

func (d *Dispatcher) reply(ctx context.Context, chatID, text string) {
	if err := d.sender.SendMessage(ctx, chatID, text); err != nil {
		log.Error().Err(err).Str("chat", chatID).Msg("sending reply failed")
	}
}

func header(memberID string) string {
	return fmt.Sprintf("👤 @%s\n\n", memberID)
}
