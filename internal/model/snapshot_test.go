package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewSeasonSnapshotVerifies(t *testing.T) {
	by := uint64(7)
	s, err := NewSeasonSnapshot(3, "season_closed", json.RawMessage(`{"total_bookings":12,"name":"Winter"}`), &by, "closing checkpoint")
	if err != nil {
		t.Fatalf("new snapshot: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("id not generated")
	}
	if !s.IsImmutable {
		t.Fatalf("snapshot must be born immutable")
	}
	if s.Checksum == "" {
		t.Fatalf("checksum not computed at construction")
	}
	if err := s.VerifyIntegrity(); err != nil {
		t.Fatalf("fresh snapshot failed verification: %v", err)
	}
}

func TestVerifyIntegrityDetectsTampering(t *testing.T) {
	s, err := NewSeasonSnapshot(3, "audit", json.RawMessage(`{"count":1}`), nil, "")
	if err != nil {
		t.Fatalf("new snapshot: %v", err)
	}
	s.SnapshotData = json.RawMessage(`{"count":2}`)
	if err := s.VerifyIntegrity(); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestChecksumIndependentOfKeyOrder(t *testing.T) {
	a, err := NewSeasonSnapshot(1, "audit", json.RawMessage(`{"b":2,"a":1}`), nil, "")
	if err != nil {
		t.Fatalf("snapshot a: %v", err)
	}
	b, err := NewSeasonSnapshot(1, "audit", json.RawMessage(`{ "a": 1, "b": 2 }`), nil, "")
	if err != nil {
		t.Fatalf("snapshot b: %v", err)
	}
	if a.Checksum != b.Checksum {
		t.Fatalf("same document hashed differently: %s vs %s", a.Checksum, b.Checksum)
	}
}

func TestNewSeasonSnapshotRejectsBadJSON(t *testing.T) {
	if _, err := NewSeasonSnapshot(1, "audit", json.RawMessage(`{"broken"`), nil, ""); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestCanonicalJSONKeepsNumbersIntact(t *testing.T) {
	got, err := CanonicalJSON(json.RawMessage(`{"big":9007199254740993}`))
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if string(got) != `{"big":9007199254740993}` {
		t.Fatalf("number mangled through round trip: %s", got)
	}
}
