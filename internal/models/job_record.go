package models

import (
	"time"
)

// FailedJobID is the sentinel job id recorded when a submission is rejected
// by the remote service. Entries carrying it are skipped during status polling.
// The PHASTER service could in principle issue this literal id; the collision
// is a known limitation of the ledger format and is kept as-is.
const FailedJobID = "Failed"

// Status strings written by this tool. Everything else in the status column
// is free text copied verbatim from the PHASTER API.
const (
	StatusSubmissionFailed = "Submission failed"
	StatusPollFailed       = "Get request failed"
	StatusDownloaded       = "Completed and downloaded"
)

// CheckedAtFormat is the timestamp format stamped on new and updated records.
const CheckedAtFormat = time.RFC3339

// JobRecord is one tracked submission in the job ledger, keyed by JobID.
// CheckedAt is kept as the raw persisted string so that a well-formed ledger
// file round-trips without transformation regardless of how the timestamp
// was originally written.
type JobRecord struct {
	Filename  string // Source FASTA file the job was submitted from
	JobID     string // Accession issued by the remote service
	Status    string // Last known status text
	CheckedAt string // Timestamp of the last submit/poll
}

// NewJobRecord creates a record for a fresh submission, stamped with the
// current time.
func NewJobRecord(filename, jobID, status string) JobRecord {
	return JobRecord{
		Filename:  filename,
		JobID:     jobID,
		Status:    status,
		CheckedAt: time.Now().Format(CheckedAtFormat),
	}
}

// Touch updates the last-checked timestamp to now.
func (r *JobRecord) Touch() {
	r.CheckedAt = time.Now().Format(CheckedAtFormat)
}

// IsFailedSentinel returns true if this record holds the "Failed" marker
// written after a rejected submission.
func (r *JobRecord) IsFailedSentinel() bool {
	return r.JobID == FailedJobID
}
