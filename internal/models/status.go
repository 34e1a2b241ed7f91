package models

import (
	"strings"
)

// StatusKind classifies the free-text status reported by the PHASTER API.
type StatusKind int

const (
	// StatusUnknown is any status this tool does not recognise; it is passed
	// through unchanged rather than treated as an error.
	StatusUnknown StatusKind = iota
	// StatusQueued means other submissions are ahead of this one.
	StatusQueued
	// StatusRunning means annotation is in progress.
	StatusRunning
	// StatusFinished means results are available for download.
	StatusFinished
)

// String returns a lowercase name for the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps a poll response onto the job lifecycle. The PHASTER API
// has no structured status field, so classification is substring matching on
// the status text, checked in priority order:
//
//  1. "submissions ahead of yours" -> queued
//  2. "Running"                    -> running
//  3. non-empty zip field          -> finished
//
// Anything else is an intermediate or unknown state. The rules live in this
// one function so they stay centrally testable and can be swapped for a
// structured enum if the API contract is ever formalised.
func ClassifyStatus(status, zip string) StatusKind {
	switch {
	case strings.Contains(status, "submissions ahead of yours"):
		return StatusQueued
	case strings.Contains(status, "Running"):
		return StatusRunning
	case zip != "":
		return StatusFinished
	default:
		return StatusUnknown
	}
}
