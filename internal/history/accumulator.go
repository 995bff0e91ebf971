package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Accumulator holds the history loaded at the start of a run plus the rows
// produced during it. Nothing reaches the store until Flush.
type Accumulator struct {
	store   Store
	loaded  []FeatureRow
	pending []FeatureRow
}

// NewAccumulator loads the existing history from store
func NewAccumulator(ctx context.Context, store Store) (*Accumulator, error) {
	rows, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature history: %w", err)
	}
	log.Debug().Int("rows", len(rows)).Msg("loaded feature history")
	return &Accumulator{store: store, loaded: rows}, nil
}

// Add stages rows for the next Flush
func (a *Accumulator) Add(rows ...FeatureRow) {
	a.pending = append(a.pending, rows...)
}

// Rows returns the cumulative history including staged rows
func (a *Accumulator) Rows() []FeatureRow {
	all := make([]FeatureRow, 0, len(a.loaded)+len(a.pending))
	all = append(all, a.loaded...)
	return append(all, a.pending...)
}

// Pending returns the number of staged rows
func (a *Accumulator) Pending() int {
	return len(a.pending)
}

// Flush appends the staged rows to the store in one write
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.pending) == 0 {
		return nil
	}
	if err := a.store.Append(ctx, a.pending); err != nil {
		return fmt.Errorf("failed to append feature history: %w", err)
	}

	log.Info().Int("appended", len(a.pending)).Int("total", len(a.loaded)+len(a.pending)).Msg("feature history updated")
	a.loaded = append(a.loaded, a.pending...)
	a.pending = nil
	return nil
}
