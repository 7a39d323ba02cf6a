package punchlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	errs "github.com/jrsteele09/go-punch-server/internal/errors"
	"github.com/jrsteele09/go-punch-server/sessions"
)

var _ sessions.Store = (*Store)(nil)

// Store is the SQLite-backed durable punch log.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore wraps an open database. loc is the deployment timezone used to
// reconstruct open-break timestamps from their stored date and time.
func NewStore(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", errs.ErrStoreUnavailable, op, err)
}

// AppendClosed inserts a closed break. The table is append-only: rows are
// never updated or deleted outside monthly archiving.
func (s *Store) AppendClosed(ctx context.Context, entry sessions.LogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punch_logs (id, date, start_time, member_id, break_code, minutes_spent, end_time, outcome, chat_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Date, entry.StartTime, entry.MemberID, entry.BreakCode,
		entry.MinutesSpent, entry.EndTime, string(entry.Outcome), entry.ChatID,
	)
	if err != nil {
		return storeErr("appending punch log", err)
	}
	return nil
}

// QueryClosedByDate returns all closed entries for a date in append order.
func (s *Store) QueryClosedByDate(ctx context.Context, date string) ([]sessions.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, start_time, member_id, break_code, minutes_spent, end_time, outcome, chat_id
		FROM punch_logs WHERE date = ? ORDER BY rowid`, date)
	if err != nil {
		return nil, storeErr("querying punch logs", err)
	}
	defer rows.Close()

	var entries []sessions.LogEntry
	for rows.Next() {
		var entry sessions.LogEntry
		var outcome string
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.StartTime, &entry.MemberID,
			&entry.BreakCode, &entry.MinutesSpent, &entry.EndTime, &outcome, &entry.ChatID); err != nil {
			return nil, storeErr("scanning punch log", err)
		}
		entry.Outcome = sessions.Outcome(outcome)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating punch logs", err)
	}
	return entries, nil
}

// CountClosed counts closed entries for one member and break code on a date.
func (s *Store) CountClosed(ctx context.Context, date, memberID, breakCode string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM punch_logs WHERE date = ? AND member_id = ? AND break_code = ?`,
		date, memberID, breakCode).Scan(&count)
	if err != nil {
		return 0, storeErr("counting punch logs", err)
	}
	return count, nil
}

// PutOpen upserts a member's record into the live open view.
func (s *Store) PutOpen(ctx context.Context, record sessions.SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO live_breaks (member_id, date, id, start_time, break_code, expected_minutes, chat_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, date) DO UPDATE SET
			id = excluded.id,
			start_time = excluded.start_time,
			break_code = excluded.break_code,
			expected_minutes = excluded.expected_minutes,
			chat_id = excluded.chat_id`,
		record.MemberID, record.StartDate, record.ID,
		sessions.ClockString(record.StartedAt, s.loc), record.BreakCode,
		record.ExpectedMinutes, record.ChatID,
	)
	if err != nil {
		return storeErr("upserting live break", err)
	}
	return nil
}

// DeleteOpen removes a member's row from the live open view.
func (s *Store) DeleteOpen(ctx context.Context, memberID, date string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM live_breaks WHERE member_id = ? AND date = ?`, memberID, date); err != nil {
		return storeErr("deleting live break", err)
	}
	return nil
}

// QueryOpenOnDate returns the live open view for a date.
func (s *Store) QueryOpenOnDate(ctx context.Context, date string) ([]sessions.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, date, id, start_time, break_code, expected_minutes, chat_id
		FROM live_breaks WHERE date = ?`, date)
	if err != nil {
		return nil, storeErr("querying live breaks", err)
	}
	defer rows.Close()

	var records []sessions.SessionRecord
	for rows.Next() {
		var record sessions.SessionRecord
		var startTime string
		if err := rows.Scan(&record.MemberID, &record.StartDate, &record.ID, &startTime,
			&record.BreakCode, &record.ExpectedMinutes, &record.ChatID); err != nil {
			return nil, storeErr("scanning live break", err)
		}
		startedAt, err := time.ParseInLocation(sessions.DateLayout+" "+sessions.TimeLayout,
			record.StartDate+" "+startTime, s.loc)
		if err != nil {
			return nil, storeErr("parsing live break start", err)
		}
		record.StartedAt = startedAt
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating live breaks", err)
	}
	return records, nil
}

// ArchiveBefore moves closed entries older than cutoffDate into the archive
// table and returns how many rows moved. The first-of-month job uses it to
// keep the hot table bounded.
func (s *Store) ArchiveBefore(ctx context.Context, cutoffDate string, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("starting archive transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO punch_logs_archive (id, date, start_time, member_id, break_code, minutes_spent, end_time, outcome, chat_id, archived_at)
		SELECT id, date, start_time, member_id, break_code, minutes_spent, end_time, outcome, chat_id, ?
		FROM punch_logs WHERE date < ?`,
		now.In(s.loc).Format(sessions.DateLayout), cutoffDate)
	if err != nil {
		return 0, storeErr("copying to archive", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("counting archived rows", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM punch_logs WHERE date < ?`, cutoffDate); err != nil {
		return 0, storeErr("pruning archived rows", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr("committing archive", err)
	}
	return int(moved), nil
}
