package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProbeOutcome string

const (
	ProbeMatched   ProbeOutcome = "matched"
	ProbeEmpty     ProbeOutcome = "empty"
	ProbeFailed    ProbeOutcome = "failed"
	ProbeCancelled ProbeOutcome = "cancelled"
)

// Probe records what a single chain answered during a resolution.
type Probe struct {
	Chain    Chain         `json:"chain"`
	Outcome  ProbeOutcome  `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Resolution is the outcome of looking a hash up across the registry.
// When Found is set, every row came from Chain and carries Hash.
type Resolution struct {
	ID        uuid.UUID     `json:"id"`
	Hash      string        `json:"hash"`
	Found     bool          `json:"found"`
	Chain     Chain         `json:"chain,omitempty"`
	Rows      []ActionRow   `json:"rows"`
	Probes    []Probe       `json:"probes"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// FailedChains lists chains whose probe errored. A non-empty list on a
// not-found resolution means the answer may be incomplete.
func (r Resolution) FailedChains() []Chain {
	var failed []Chain
	for _, probe := range r.Probes {
		if probe.Outcome == ProbeFailed {
			failed = append(failed, probe.Chain)
		}
	}
	return failed
}

// User returns the first account found among the rows.
func (r Resolution) User() (string, bool) {
	for _, row := range r.Rows {
		if row.User != nil && *row.User != "" {
			return *row.User, true
		}
	}
	return "", false
}

// Timestamp returns the time of the first row.
func (r Resolution) Timestamp() (time.Time, bool) {
	if len(r.Rows) == 0 {
		return time.Time{}, false
	}
	return r.Rows[0].Timestamp, true
}

func (r Resolution) Record() LookupRecord {
	return LookupRecord{
		ID:           r.ID,
		Hash:         r.Hash,
		Found:        r.Found,
		Chain:        r.Chain,
		RowCount:     len(r.Rows),
		ProbeCount:   len(r.Probes),
		FailedChains: len(r.FailedChains()),
		RequestedAt:  r.StartedAt,
		Elapsed:      r.Elapsed,
	}
}

// LookupRecord is the summary of a resolution kept in history and audit stores.
type LookupRecord struct {
	ID           uuid.UUID     `json:"id"`
	Hash         string        `json:"hash"`
	Found        bool          `json:"found"`
	Chain        Chain         `json:"chain,omitempty"`
	RowCount     int           `json:"row_count"`
	ProbeCount   int           `json:"probe_count"`
	FailedChains int           `json:"failed_chains"`
	RequestedAt  time.Time     `json:"requested_at"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}
