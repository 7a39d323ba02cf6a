package fakepunchstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-punch-server/sessions"
)

var _ sessions.Store = (*FakePunchStore)(nil)

// FakePunchStore is an in-memory sessions.Store for tests. Individual
// operations can be made to fail by setting the matching error field.
type FakePunchStore struct {
	lock   sync.RWMutex
	closed []sessions.LogEntry
	open   map[string]sessions.SessionRecord // memberID|date

	AppendErr error
	QueryErr  error
	OpenErr   error
}

func NewFakePunchStore() *FakePunchStore {
	return &FakePunchStore{
		open: make(map[string]sessions.SessionRecord),
	}
}

func openKey(memberID, date string) string {
	return memberID + "|" + date
}

func (s *FakePunchStore) AppendClosed(_ context.Context, entry sessions.LogEntry) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = append(s.closed, entry)
	return nil
}

func (s *FakePunchStore) QueryClosedByDate(_ context.Context, date string) ([]sessions.LogEntry, error) {
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	var entries []sessions.LogEntry
	for _, entry := range s.closed {
		if entry.Date == date {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *FakePunchStore) CountClosed(_ context.Context, date, memberID, breakCode string) (int, error) {
	if s.QueryErr != nil {
		return 0, s.QueryErr
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	count := 0
	for _, entry := range s.closed {
		if entry.Date == date && entry.MemberID == memberID && entry.BreakCode == breakCode {
			count++
		}
	}
	return count, nil
}

func (s *FakePunchStore) PutOpen(_ context.Context, record sessions.SessionRecord) error {
	if s.OpenErr != nil {
		return s.OpenErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.open[openKey(record.MemberID, record.StartDate)] = record
	return nil
}

func (s *FakePunchStore) DeleteOpen(_ context.Context, memberID, date string) error {
	if s.OpenErr != nil {
		return s.OpenErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.open, openKey(memberID, date))
	return nil
}

func (s *FakePunchStore) QueryOpenOnDate(_ context.Context, date string) ([]sessions.SessionRecord, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	var records []sessions.SessionRecord
	for _, record := range s.open {
		if record.StartDate == date {
			records = append(records, record)
		}
	}
	return records, nil
}

// ClosedEntries returns a copy of everything appended so far.
func (s *FakePunchStore) ClosedEntries() []sessions.LogEntry {
	s.lock.RLock()
	defer s.lock.RUnlock()
	entries := make([]sessions.LogEntry, len(s.closed))
	copy(entries, s.closed)
	return entries
}

// OpenRecords returns a copy of the live open view.
func (s *FakePunchStore) OpenRecords() []sessions.SessionRecord {
	s.lock.RLock()
	defer s.lock.RUnlock()
	records := make([]sessions.SessionRecord, 0, len(s.open))
	for _, record := range s.open {
		records = append(records, record)
	}
	return records
}
