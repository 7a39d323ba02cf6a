package sessions

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// LogWriter feeds durable-log writes to a background worker over a bounded
// queue. Writes are best-effort: a full queue or a failing store drops the
// write with an error record instead of blocking or retrying inline — the
// reconciler heals any resulting drift on its next pass.
type LogWriter struct {
	store Store
	tasks chan logTask
	wg    sync.WaitGroup
}

type logTask struct {
	kind     string
	entry    LogEntry
	record   SessionRecord
	memberID string
	date     string
}

// NewLogWriter creates a LogWriter with the given queue capacity.
func NewLogWriter(store Store, buffer int) *LogWriter {
	return &LogWriter{
		store: store,
		tasks: make(chan logTask, buffer),
	}
}

// Start launches the background worker. It drains until ctx is cancelled.
func (w *LogWriter) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.drain()
				return
			case task := <-w.tasks:
				w.apply(context.Background(), task)
			}
		}
	}()
}

// drain flushes whatever is still queued at shutdown.
func (w *LogWriter) drain() {
	for {
		select {
		case task := <-w.tasks:
			w.apply(context.Background(), task)
		default:
			return
		}
	}
}

// Wait blocks until the worker has stopped.
func (w *LogWriter) Wait() {
	w.wg.Wait()
}

// AppendClosed enqueues a closed-break append.
func (w *LogWriter) AppendClosed(entry LogEntry) {
	w.enqueue(logTask{kind: "append_closed", entry: entry})
}

// PutOpen enqueues an open-view upsert.
func (w *LogWriter) PutOpen(record SessionRecord) {
	w.enqueue(logTask{kind: "put_open", record: record})
}

// DeleteOpen enqueues an open-view delete.
func (w *LogWriter) DeleteOpen(memberID, date string) {
	w.enqueue(logTask{kind: "delete_open", memberID: memberID, date: date})
}

func (w *LogWriter) enqueue(task logTask) {
	select {
	case w.tasks <- task:
	default:
		log.Error().Str("task", task.kind).Msg("punch log write queue full, dropping write")
	}
}

func (w *LogWriter) apply(ctx context.Context, task logTask) {
	var err error
	switch task.kind {
	case "append_closed":
		err = w.store.AppendClosed(ctx, task.entry)
	case "put_open":
		err = w.store.PutOpen(ctx, task.record)
	case "delete_open":
		err = w.store.DeleteOpen(ctx, task.memberID, task.date)
	}
	if err != nil {
		log.Error().Err(err).Str("task", task.kind).Msg("punch log write failed, dropping write")
	}
}
