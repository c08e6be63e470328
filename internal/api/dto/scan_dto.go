package dto

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// ScanRequest carries a scanned barcode payload.
type ScanRequest struct {
	Code string `json:"code"`
}

// ScanEditRequest payload for manager/admin scan edits.
type ScanEditRequest struct {
	Status domain.ScanStatus `json:"status"`
	Note   string            `json:"note"`
}

// ScanResponse is the API shape of a scan record.
type ScanResponse struct {
	ID           string            `json:"id"`
	BoardID      string            `json:"board_id"`
	Status       domain.ScanStatus `json:"status"`
	Note         string            `json:"note,omitempty"`
	ScannedBy    string            `json:"scanned_by"`
	DepartmentID *string           `json:"department_id,omitempty"`
	ScannedAt    time.Time         `json:"scanned_at"`
	EditedBy     *string           `json:"edited_by,omitempty"`
	EditedAt     *time.Time        `json:"edited_at,omitempty"`
}

// NewScanResponse maps a domain scan.
func NewScanResponse(scan *domain.Scan) ScanResponse {
	return ScanResponse{
		ID:           scan.ID,
		BoardID:      scan.BoardID,
		Status:       scan.Status,
		Note:         scan.Note,
		ScannedBy:    scan.ScannedBy,
		DepartmentID: scan.DepartmentID,
		ScannedAt:    scan.ScannedAt,
		EditedBy:     scan.EditedBy,
		EditedAt:     scan.EditedAt,
	}
}
