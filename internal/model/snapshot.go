package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrChecksumMismatch is returned by VerifyIntegrity when the stored
// snapshot payload no longer hashes to the recorded checksum.  It
// signals tampering or corruption and must be treated as fatal by the
// caller that requested verification, never downgraded to a warning.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// SeasonSnapshot is an immutable, checksummed point-in-time copy of
// season state kept for audit purposes.  A snapshot is created once
// (typically when a season closes) and never updated or deleted.
// The checksum is computed over a canonical serialization of
// SnapshotData in the constructor, so an immutable record can never
// exist without one.
//
// Fields:
//  ID           – generated uuid identifier.
//  SeasonID     – the season this snapshot belongs to.
//  SnapshotType – free-form tag ("season_closed", "audit", ...).
//  SnapshotData – arbitrary structured payload (JSON).
//  SnapshotDate – when the captured state was current.
//  IsImmutable  – when true, every mutation path must fail.
//  CreatedBy    – user who requested the snapshot (nullable).
//  Description  – free-form note.
//  Checksum     – SHA-256 hex digest of the canonical SnapshotData.
//  CreatedAt    – row creation timestamp.
type SeasonSnapshot struct {
	ID           string          // season_snapshots.id (uuid)
	SeasonID     uint64          // season_snapshots.season_id
	SnapshotType string          // season_snapshots.snapshot_type
	SnapshotData json.RawMessage // season_snapshots.snapshot_data (JSON)
	SnapshotDate time.Time       // season_snapshots.snapshot_date
	IsImmutable  bool            // season_snapshots.is_immutable
	CreatedBy    *uint64         // season_snapshots.created_by (nullable)
	Description  string          // season_snapshots.description
	Checksum     string          // season_snapshots.checksum (sha256 hex)
	CreatedAt    time.Time       // season_snapshots.created_at
}

// NewSeasonSnapshot builds a snapshot record and freezes its checksum
// in the same step.  The payload must be valid JSON; it is stored in
// canonical form so that verification after the fact hashes the same
// bytes regardless of the original key order or whitespace.
func NewSeasonSnapshot(seasonID uint64, snapshotType string, data json.RawMessage, createdBy *uint64, description string) (*SeasonSnapshot, error) {
	canon, err := CanonicalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot payload: %w", err)
	}
	sum := sha256.Sum256(canon)
	return &SeasonSnapshot{
		ID:           uuid.NewString(),
		SeasonID:     seasonID,
		SnapshotType: snapshotType,
		SnapshotData: canon,
		SnapshotDate: time.Now().UTC(),
		IsImmutable:  true,
		CreatedBy:    createdBy,
		Description:  description,
		Checksum:     hex.EncodeToString(sum[:]),
	}, nil
}

// VerifyIntegrity recomputes the checksum from the stored payload and
// compares it to the recorded one.  A mismatch returns
// ErrChecksumMismatch.
func (s *SeasonSnapshot) VerifyIntegrity() error {
	canon, err := CanonicalJSON(s.SnapshotData)
	if err != nil {
		return fmt.Errorf("snapshot payload: %w", err)
	}
	sum := sha256.Sum256(canon)
	if hex.EncodeToString(sum[:]) != s.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// CanonicalJSON re-encodes a JSON document deterministically: object
// keys sorted, no insignificant whitespace.  encoding/json sorts map
// keys on marshal, so a decode/encode round trip yields a stable form.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber() // keep numbers textually intact across the round trip
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
