package core

import "fmt"

// CorrectionStatus is the review state of a correction.
type CorrectionStatus string

// Correction status constants.
const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionAccepted CorrectionStatus = "accepted"
	CorrectionRejected CorrectionStatus = "rejected"
)

// ParseCorrectionStatus validates a status string.
func ParseCorrectionStatus(s string) (CorrectionStatus, error) {
	switch st := CorrectionStatus(s); st {
	case CorrectionPending, CorrectionAccepted, CorrectionRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown correction status %q (want pending, accepted or rejected)", s)
	}
}

// Correction is one detected cell-level difference between the original
// and the corrected grid of a sheet.
type Correction struct {
	Sheet      string           `json:"sheet"`
	OldValue   string           `json:"old_value"`
	NewValue   string           `json:"new_value"`
	Coordinate Coordinate       `json:"coordinates"`
	Cell       string           `json:"cell"`
	Status     CorrectionStatus `json:"status"`
}

// Suggestion is the canonical per-text result returned by a correction backend.
// Status true means the text needed no correction.
type Suggestion struct {
	Status       bool   `json:"status"`
	FixedText    string `json:"fixed_text"`
	OriginalText string `json:"original_text"`
}
