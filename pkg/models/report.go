package models

import (
	"time"
)

// RunReport summarizes one reconciliation run
type RunReport struct {
	// Run details
	RunID     string `json:"run_id"`
	LeftRoot  string `json:"left_root"`
	RightRoot string `json:"right_root"`
	Mode      string `json:"mode"`
	Pairing   string `json:"pairing"`

	// Timing
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Statistics
	Stats Statistics `json:"stats"`

	// Overall status
	Status RunStatus `json:"status"`
}

// Statistics holds run counters
type Statistics struct {
	LeftFiles      int     `json:"left_files"`
	RightFiles     int     `json:"right_files"`
	Fingerprinted  int     `json:"fingerprinted"`
	CandidatePairs int     `json:"candidate_pairs"`
	PairsCompared  int     `json:"pairs_compared"`
	PairsIdentical int     `json:"pairs_identical"`
	PairsFailed    int     `json:"pairs_failed"`
	PairsAborted   int     `json:"pairs_aborted"`
	UnmatchedLeft  int     `json:"unmatched_left"`
	UnmatchedRight int     `json:"unmatched_right"`
	Warnings       int     `json:"warnings"`
	BytesHashed    int64   `json:"bytes_hashed"`
	AverageScore   float64 `json:"average_score"`
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every pair was compared without warnings
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates the run completed with warnings
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run could not complete
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was aborted between batches
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the process exit code for the status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
