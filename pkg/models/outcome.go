package models

import "time"

// Outcome classifies one tracked file after a verification pass.
type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeModified  Outcome = "modified"
	OutcomeMissing   Outcome = "missing"
	OutcomeNew       Outcome = "new"
)

// FileState is a point-in-time snapshot of a file's integrity attributes.
type FileState struct {
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modified_time"`
}

// VerificationOutcome is the per-file result of a verify pass.
// Before and After are both populated for OutcomeModified so reports can
// show what drifted; After alone is set for absorbed new files.
type VerificationOutcome struct {
	RelativePath string     `json:"relative_path"`
	Outcome      Outcome    `json:"outcome"`
	Before       *FileState `json:"before,omitempty"`
	After        *FileState `json:"after,omitempty"`
}
