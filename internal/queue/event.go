// Package queue defines message payloads exchanged over the message broker.
package queue

// SeasonClosedEvent is published when a season is closed for audit.
// It carries enough information for downstream consumers to log,
// notify, or trigger exports without querying the primary database.
type SeasonClosedEvent struct {
	SeasonID   uint64 `json:"season_id"`
	SchoolID   uint64 `json:"school_id"`
	SnapshotID string `json:"snapshot_id"`
	ClosedAt   string `json:"closed_at"`
}

// SnapshotCreatedEvent is published when an audit snapshot is frozen,
// whether automatically at close or as an ad-hoc checkpoint.
type SnapshotCreatedEvent struct {
	SnapshotID   string `json:"snapshot_id"`
	SeasonID     uint64 `json:"season_id"`
	SnapshotType string `json:"snapshot_type"`
	Checksum     string `json:"checksum"`
	CreatedAt    string `json:"created_at"`
}
