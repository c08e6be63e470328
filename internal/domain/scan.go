package domain

import "time"

// ScanStatus enumerates recorded board statuses.
type ScanStatus string

const (
	ScanStatusPending ScanStatus = "PENDING"
	ScanStatusPass    ScanStatus = "PASS"
	ScanStatusFail    ScanStatus = "FAIL"
)

// IsTerminal reports whether the status finalizes a board.
func (s ScanStatus) IsTerminal() bool {
	return s == ScanStatusPass || s == ScanStatusFail
}

// Scan records a pass/fail status event for a board. A board's most recent
// scan determines its current status. Editing preserves the original scanner
// and stamps the editor separately.
type Scan struct {
	ID           string
	BoardID      string
	Status       ScanStatus
	Note         string
	ScannedBy    string
	DepartmentID *string
	ScannedAt    time.Time
	EditedBy     *string
	EditedAt     *time.Time
}
