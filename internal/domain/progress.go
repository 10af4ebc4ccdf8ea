package domain

import "fmt"

// Progress is the quorum status of a proposal against its wallet's current roster.
type Progress struct {
	ApprovedWeight uint64 `json:"approvedWeight"`
	Threshold      uint32 `json:"threshold"`
	IsApproved     bool   `json:"isApproved"`
	Summary        string `json:"summary"`
}

// NewProgress builds a Progress and its human readable summary.
func NewProgress(approved uint64, threshold uint32) Progress {
	return Progress{
		ApprovedWeight: approved,
		Threshold:      threshold,
		IsApproved:     approved >= uint64(threshold),
		Summary:        fmt.Sprintf("%d of %d approved", approved, threshold),
	}
}
