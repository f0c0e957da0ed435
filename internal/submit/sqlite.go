package submit

import (
	"context"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/store"
)

// StoreSubmitter writes reports to the local SQLite report store.
type StoreSubmitter struct {
	store *store.Store
}

// NewStore wraps an open report store.
func NewStore(s *store.Store) *StoreSubmitter {
	return &StoreSubmitter{store: s}
}

// Name implements Submitter.
func (s *StoreSubmitter) Name() string { return "sqlite" }

// Submit implements Submitter.
func (s *StoreSubmitter) Submit(ctx context.Context, r interview.Report) (string, error) {
	return s.store.SaveReport(ctx, r)
}
