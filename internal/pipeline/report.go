package pipeline

import (
	"encoding/json"
	"time"

	"github.com/clubmontagne/membercards/internal/logger"
)

// Outcome is the final state of one roster row
type Outcome string

const (
	// OutcomeSuccess means the card was emailed
	OutcomeSuccess Outcome = "success"
	// OutcomeVerificationOnly means page and QR code were written but no email was attempted
	OutcomeVerificationOnly Outcome = "verification-only"
	// OutcomeSkipped means the ledger shows the card was already delivered
	OutcomeSkipped Outcome = "skipped"
	// OutcomeEmailFailed means the card could not be sent
	OutcomeEmailFailed Outcome = "email-failed"
	// OutcomeAborted means the row failed and stopped the run
	OutcomeAborted Outcome = "aborted"
)

// Outcomes lists every outcome in report order
var Outcomes = []Outcome{
	OutcomeSuccess,
	OutcomeVerificationOnly,
	OutcomeSkipped,
	OutcomeEmailFailed,
	OutcomeAborted,
}

// Duration marshals as a human-readable string
type Duration time.Duration

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// String returns the duration text
func (d Duration) String() string {
	return time.Duration(d).String()
}

// RowResult describes what happened to one roster row
type RowResult struct {
	Row         int       `json:"row"`
	Member      string    `json:"member"`
	Email       string    `json:"email,omitempty"`
	Status      string    `json:"status"`
	Valid       bool      `json:"valid"`
	Method      string    `json:"method"`
	Evidence    string    `json:"evidence,omitempty"`
	VerifyError string    `json:"verify_error,omitempty"`
	Expires     string    `json:"expires,omitempty"`
	CardURL     string    `json:"card_url,omitempty"`
	PagePath    string    `json:"page_path,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	Duration    Duration  `json:"duration"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Report summarizes a run
type Report struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Elapsed   Duration        `json:"elapsed"`
	Rows      []*RowResult    `json:"rows"`
	Counts    map[Outcome]int `json:"counts"`
	Metrics   logger.Snapshot `json:"metrics"`
}

func newReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: startedAt.UTC(),
		Rows:      make([]*RowResult, 0),
		Counts:    make(map[Outcome]int),
	}
}

func (r *Report) add(row *RowResult) {
	r.Rows = append(r.Rows, row)
	r.Counts[row.Outcome]++
}

// Count returns the number of rows with the given outcome
func (r *Report) Count(o Outcome) int {
	return r.Counts[o]
}

// Valid returns the number of rows that passed verification
func (r *Report) Valid() int {
	n := 0
	for _, row := range r.Rows {
		if row.Valid {
			n++
		}
	}
	return n
}

// HasEmailFailures reports whether any card could not be sent
func (r *Report) HasEmailFailures() bool {
	return r.Count(OutcomeEmailFailed) > 0
}
