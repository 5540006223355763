// Package sessionctx resolves and persists the active (school,
// season) pair for a principal's session.  The pair lives in the
// session's opaque payload blob; this service only ever reads, merges
// and writes that blob through the injected Carrier and never assumes
// anything else about its contents — foreign keys placed there by
// other subsystems survive every merge untouched.
package sessionctx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veltara/school-season-booking/internal/model"
)

// Carrier is the externally-owned per-principal payload store.  Read
// must return repository.ErrNoSession (or a wrapper) when the
// principal has no attachable session; Write persists synchronously.
type Carrier interface {
	Read(ctx context.Context, sessionID uint64) (json.RawMessage, error)
	Write(ctx context.Context, sessionID uint64, payload json.RawMessage) error
}

// Service reads and mutates session context.  Context is small,
// session-scoped and read seldom relative to the season cache, so
// there is deliberately no caching in front of the carrier.
type Service struct {
	carrier Carrier
}

func New(carrier Carrier) *Service { return &Service{carrier: carrier} }

const (
	schoolKey = "school_id"
	seasonKey = "season_id"
)

// Get returns the principal's current context.  Keys never touched
// decode to nil, same as keys holding explicit null.
func (s *Service) Get(ctx context.Context, sessionID uint64) (model.Context, error) {
	payload, err := s.carrier.Read(ctx, sessionID)
	if err != nil {
		return model.Context{}, err
	}
	var c model.Context
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &c); err != nil {
			return model.Context{}, fmt.Errorf("decode session payload: %w", err)
		}
	}
	return c, nil
}

// SetSchool updates only school_id, preserving whatever season_id
// value exists — including none: the season key is materialized as an
// explicit null when absent, so "present but unset" is observable
// afterwards.  Changing school intentionally does NOT clear the
// season selection; callers that need school/season consistency
// re-validate at use time.
func (s *Service) SetSchool(ctx context.Context, sessionID, schoolID uint64) (model.Context, error) {
	return s.merge(ctx, sessionID, func(m map[string]json.RawMessage) error {
		v, err := json.Marshal(schoolID)
		if err != nil {
			return err
		}
		m[schoolKey] = v
		if _, ok := m[seasonKey]; !ok {
			m[seasonKey] = json.RawMessage("null")
		}
		return nil
	})
}

// SetSeason updates only season_id, leaving school_id as it is.
func (s *Service) SetSeason(ctx context.Context, sessionID, seasonID uint64) (model.Context, error) {
	return s.merge(ctx, sessionID, func(m map[string]json.RawMessage) error {
		v, err := json.Marshal(seasonID)
		if err != nil {
			return err
		}
		m[seasonKey] = v
		return nil
	})
}

// merge decodes the payload into a loose key map, applies the edit,
// and writes the whole blob back synchronously.  Unknown keys pass
// through byte-for-byte.
func (s *Service) merge(ctx context.Context, sessionID uint64, edit func(map[string]json.RawMessage) error) (model.Context, error) {
	payload, err := s.carrier.Read(ctx, sessionID)
	if err != nil {
		return model.Context{}, err
	}
	m := make(map[string]json.RawMessage)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &m); err != nil {
			return model.Context{}, fmt.Errorf("decode session payload: %w", err)
		}
	}
	if err := edit(m); err != nil {
		return model.Context{}, err
	}
	out, err := json.Marshal(m)
	if err != nil {
		return model.Context{}, err
	}
	if err := s.carrier.Write(ctx, sessionID, out); err != nil {
		return model.Context{}, err
	}
	var c model.Context
	if err := json.Unmarshal(out, &c); err != nil {
		return model.Context{}, err
	}
	return c, nil
}
