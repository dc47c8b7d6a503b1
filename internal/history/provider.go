package history

import (
	"context"
	"time"

	"github.com/perfci/slogate/pkg/types"
)

// RunOutcome is one prior CI run as seen by the consecutive-pass counter,
// newest first. Related marks runs belonging to this gate; Passed means
// the run concluded successfully and its SLO results for the
// configuration are verifiable.
type RunOutcome struct {
	RunID     int64
	Related   bool
	Passed    bool
	CreatedAt time.Time
}

// Provider supplies historical data for a configuration. Implementations
// may fail partially: returning fewer results than exist is not an error.
type Provider interface {
	// RecentOutcomes returns up to limit run outcomes, newest first.
	RecentOutcomes(ctx context.Context, configurationID string, limit int) ([]RunOutcome, error)

	// RecentMeasurements returns the measurement sets recorded within the
	// lookback window, for drift analysis.
	RecentMeasurements(ctx context.Context, configurationID string, window time.Duration) ([]types.MeasurementSet, error)
}
