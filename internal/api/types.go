package api

import "time"

// SnapshotSummary is one row of the snapshot history listing.
type SnapshotSummary struct {
	ID            int       `json:"id"`
	TotalValue    float64   `json:"total_value"`
	TotalInvested float64   `json:"total_invested"`
	XIRR          float64   `json:"xirr"`
	UploadDate    time.Time `json:"upload_date"`
}

// SnapshotHistoryResponse lists stored snapshots, newest first.
type SnapshotHistoryResponse struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	Total     int               `json:"total"`
}
