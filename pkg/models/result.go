package models

import "time"

// VerificationReport contains the complete result of one verify pass.
// It is built fresh per invocation and handed to the caller; the engine
// never persists it.
type VerificationReport struct {
	// Summary
	RunID     string        `json:"run_id"`
	Root      string        `json:"root"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Outcomes ordered by relative path
	Outcomes []VerificationOutcome `json:"outcomes"`

	// Counts per category
	Unchanged int `json:"unchanged"`
	Modified  int `json:"modified"`
	Missing   int `json:"missing"`
	New       int `json:"new"`

	// Files that could not be probed or hashed during the pass
	FailedFiles []string `json:"failed_files,omitempty"`

	// Run characteristics
	HashedFiles int  `json:"hashed_files"`
	DeepVerify  bool `json:"deep_verify"`
	AddNew      bool `json:"add_new"`
	WorkersUsed int  `json:"workers_used"`

	// Incomplete is set when the pass was cancelled before every file
	// was classified.
	Incomplete bool `json:"incomplete,omitempty"`
}

// AddOutcome appends an outcome and updates the category counts.
func (r *VerificationReport) AddOutcome(o VerificationOutcome) {
	r.Outcomes = append(r.Outcomes, o)

	switch o.Outcome {
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeModified:
		r.Modified++
	case OutcomeMissing:
		r.Missing++
	case OutcomeNew:
		r.New++
	}
}

// Clean reports whether the pass found no integrity drift.
func (r *VerificationReport) Clean() bool {
	return r.Modified == 0 && r.Missing == 0
}

// GenerateSummary contains the result of one manifest generation pass.
type GenerateSummary struct {
	RunID          string        `json:"run_id"`
	Root           string        `json:"root"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    []string      `json:"failed_files,omitempty"`
	WorkersUsed    int           `json:"workers_used"`
	Incomplete     bool          `json:"incomplete,omitempty"`
}
