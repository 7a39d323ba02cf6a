package sessions

import "encoding/json"

// Registry is the fast in-memory view of currently-open breaks, one record
// per member. It performs no internal locking: callers must hold the Guard
// for every call. It is rebuilt from the durable log's open view on cold
// start.
type Registry struct {
	records   map[string]SessionRecord
	sizes     map[string]int // serialized bytes per record
	sizeBytes int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]SessionRecord),
		sizes:   make(map[string]int),
	}
}

// Get returns the member's open record, if any.
func (r *Registry) Get(memberID string) (SessionRecord, bool) {
	record, ok := r.records[memberID]
	return record, ok
}

// Put stores a record under its member ID, overwriting any existing entry.
// Callers check Get first to preserve the one-open-break-per-member rule.
func (r *Registry) Put(record SessionRecord) {
	r.Remove(record.MemberID)
	size := recordSize(record)
	r.records[record.MemberID] = record
	r.sizes[record.MemberID] = size
	r.sizeBytes += size
}

// Remove drops the member's record. Removing an absent member is a no-op.
func (r *Registry) Remove(memberID string) {
	if _, ok := r.records[memberID]; !ok {
		return
	}
	r.sizeBytes -= r.sizes[memberID]
	delete(r.records, memberID)
	delete(r.sizes, memberID)
}

// Snapshot returns a copy of all entries.
func (r *Registry) Snapshot() map[string]SessionRecord {
	snapshot := make(map[string]SessionRecord, len(r.records))
	for memberID, record := range r.records {
		snapshot[memberID] = record
	}
	return snapshot
}

// Len returns the number of open breaks.
func (r *Registry) Len() int {
	return len(r.records)
}

// SizeEstimate returns the approximate serialized size of the registry in
// bytes. The running total is maintained on every Put/Remove so the estimate
// is O(1); the engine checks it on every write against the configured soft
// cap.
func (r *Registry) SizeEstimate() int {
	return r.sizeBytes
}

func recordSize(record SessionRecord) int {
	encoded, err := json.Marshal(record)
	if err != nil {
		return 0
	}
	return len(encoded) + len(record.MemberID) + 4 // key + separators
}
