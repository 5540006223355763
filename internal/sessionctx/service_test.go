package sessionctx

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/veltara/school-season-booking/internal/repository"
)

// memCarrier is a map-backed Carrier standing in for the sessions
// table.
type memCarrier struct {
	payloads map[uint64]json.RawMessage
}

func newMemCarrier() *memCarrier {
	return &memCarrier{payloads: make(map[uint64]json.RawMessage)}
}

func (m *memCarrier) Read(_ context.Context, sessionID uint64) (json.RawMessage, error) {
	p, ok := m.payloads[sessionID]
	if !ok {
		return nil, repository.ErrNoSession
	}
	return p, nil
}

func (m *memCarrier) Write(_ context.Context, sessionID uint64, payload json.RawMessage) error {
	m.payloads[sessionID] = payload
	return nil
}

func TestGetEmptyPayload(t *testing.T) {
	carrier := newMemCarrier()
	carrier.payloads[1] = json.RawMessage(`{}`)
	svc := New(carrier)

	c, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.SchoolID != nil || c.SeasonID != nil {
		t.Fatalf("empty payload decoded to %+v", c)
	}
}

func TestGetNoSession(t *testing.T) {
	svc := New(newMemCarrier())
	if _, err := svc.Get(context.Background(), 99); !errors.Is(err, repository.ErrNoSession) {
		t.Fatalf("got %v, want ErrNoSession", err)
	}
}

func TestSetSchoolMaterializesSeasonNull(t *testing.T) {
	carrier := newMemCarrier()
	carrier.payloads[1] = json.RawMessage(`{}`)
	svc := New(carrier)

	c, err := svc.SetSchool(context.Background(), 1, 42)
	if err != nil {
		t.Fatalf("set school: %v", err)
	}
	if c.SchoolID == nil || *c.SchoolID != 42 {
		t.Fatalf("school not set: %+v", c)
	}
	if c.SeasonID != nil {
		t.Fatalf("season appeared from nowhere: %+v", c)
	}

	// The stored payload must carry season_id explicitly as null.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(carrier.payloads[1], &raw); err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	v, ok := raw["season_id"]
	if !ok {
		t.Fatalf("season_id key not materialized")
	}
	if string(v) != "null" {
		t.Fatalf("season_id = %s, want null", v)
	}
}

func TestSetSchoolPreservesSeason(t *testing.T) {
	carrier := newMemCarrier()
	carrier.payloads[1] = json.RawMessage(`{"school_id":1,"season_id":7}`)
	svc := New(carrier)

	c, err := svc.SetSchool(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("set school: %v", err)
	}
	if c.SchoolID == nil || *c.SchoolID != 2 {
		t.Fatalf("school not updated: %+v", c)
	}
	if c.SeasonID == nil || *c.SeasonID != 7 {
		t.Fatalf("season selection lost on school switch: %+v", c)
	}
}

func TestSetSeasonLeavesSchool(t *testing.T) {
	carrier := newMemCarrier()
	carrier.payloads[1] = json.RawMessage(`{"school_id":3}`)
	svc := New(carrier)

	c, err := svc.SetSeason(context.Background(), 1, 11)
	if err != nil {
		t.Fatalf("set season: %v", err)
	}
	if c.SeasonID == nil || *c.SeasonID != 11 {
		t.Fatalf("season not set: %+v", c)
	}
	if c.SchoolID == nil || *c.SchoolID != 3 {
		t.Fatalf("school disturbed: %+v", c)
	}
}

func TestMergePreservesForeignKeys(t *testing.T) {
	carrier := newMemCarrier()
	carrier.payloads[1] = json.RawMessage(`{"school_id":1,"theme":"dark","cart":{"items":[1,2]}}`)
	svc := New(carrier)

	if _, err := svc.SetSeason(context.Background(), 1, 5); err != nil {
		t.Fatalf("set season: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(carrier.payloads[1], &raw); err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	if string(raw["theme"]) != `"dark"` {
		t.Fatalf("theme key damaged: %s", raw["theme"])
	}
	if string(raw["cart"]) != `{"items":[1,2]}` {
		t.Fatalf("cart key damaged: %s", raw["cart"])
	}
}

func TestMutationsErrorWithoutSession(t *testing.T) {
	svc := New(newMemCarrier())
	if _, err := svc.SetSchool(context.Background(), 9, 1); !errors.Is(err, repository.ErrNoSession) {
		t.Fatalf("set school: got %v, want ErrNoSession", err)
	}
	if _, err := svc.SetSeason(context.Background(), 9, 1); !errors.Is(err, repository.ErrNoSession) {
		t.Fatalf("set season: got %v, want ErrNoSession", err)
	}
}
