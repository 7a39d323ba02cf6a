package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-punch-server/sessions"
)

const contentTypeJSON = "application/json; charset=utf-8"

type healthStatus struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	ActiveBreaks    int       `json:"activeBreaks"`
	StoreReachable  bool      `json:"storeReachable"`
	LastReconcile   time.Time `json:"lastReconcile,omitempty"`
	ReconcileOK     bool      `json:"reconcileOk"`
	ReconcileDetail string    `json:"reconcileDetail,omitempty"`
}

// HealthHandler reports liveness of the fast and slow tiers plus the last
// reconciliation outcome. Reads are best-effort snapshots; a contended lock
// degrades the report rather than blocking it.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
		}

		if snapshot, ok := s.engine.SnapshotOpen(500 * time.Millisecond); ok {
			status.ActiveBreaks = len(snapshot)
		} else {
			status.Status = "degraded"
			status.ReconcileDetail = "registry lock contended"
		}

		today := sessions.DateString(time.Now(), s.loc)
		if _, err := s.store.QueryOpenOnDate(r.Context(), today); err != nil {
			status.Status = "degraded"
			status.StoreReachable = false
		} else {
			status.StoreReachable = true
		}

		last := s.reconciler.LastStatus()
		status.LastReconcile = last.Time
		status.ReconcileOK = last.OK
		if last.Error != "" {
			status.ReconcileDetail = last.Error
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
