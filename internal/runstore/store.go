package runstore

import (
	"context"
	"time"

	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

// TTL bounds how long a run stays queryable.
const TTL = 24 * time.Hour

type staticErr string

func (e staticErr) Error() string { return string(e) }

const ErrNotFound = staticErr("run not found")

// Record is the latest known status of one sequencing run.
type Record struct {
	RunID     string              `json:"run_id"`
	State     sequencer.State     `json:"state"`
	Manifest  *sequencer.Manifest `json:"manifest,omitempty"`
	Error     string              `json:"error,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store keeps run records. Save overwrites the previous record for a run.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, runID string) (*Record, error)
	// List returns up to limit records, most recently updated first.
	List(ctx context.Context, limit int) ([]*Record, error)
}

// Listener adapts a store to sequencer state notifications. Save failures
// are passed to onErr, which may be nil.
func Listener(s Store, onErr func(error)) sequencer.Listener {
	return func(ctx context.Context, st sequencer.State, m *sequencer.Manifest) {
		rec := &Record{State: st, Manifest: m, UpdatedAt: time.Now().UTC()}
		if m != nil {
			rec.RunID = m.RunID
			rec.Error = m.Error
		}
		if err := s.Save(ctx, rec); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
