package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/perfci/slogate/internal/history"
	"github.com/perfci/slogate/internal/store"
	"github.com/perfci/slogate/pkg/types"
)

// Engine composes the three gate signals into one decision. Provider may
// be nil for offline runs; Log may be nil in tests that don't care about
// recording.
type Engine struct {
	Config   Config
	Provider history.Provider
	Log      *store.RunLog
}

// Evaluate runs the gate for one measurement set. Critical failures
// short-circuit: drift and consecutive passes are never computed for
// them. The outcome is recorded to the run log regardless of the
// decision, since future streaks depend on it.
func (e *Engine) Evaluate(ctx context.Context, current types.MeasurementSet, commit, resultsDigest string) types.Decision {
	decision := types.Decision{
		ConfigurationID: current.ConfigurationID,
		Platform:        current.Platform,
		Commit:          commit,
		EvaluatedAt:     time.Now().UTC(),
		RequiredPasses:  e.Config.ConsecutivePassesRequired,
	}

	criticalPass, failures := CheckCritical(e.Config.Critical, current)
	decision.CriticalMetricsPass = criticalPass
	decision.CriticalFailures = failures
	if !criticalPass {
		decision.Reason = "Gate FAIL: critical metrics failed: " + strings.Join(failures, "; ")
		e.record(decision, current, resultsDigest)
		return decision
	}

	samples := e.fetchHistory(ctx, current.ConfigurationID)
	driftPass, violations := AnalyzeDrift(current, samples, e.Config.DriftThresholdPercent)
	decision.DriftCheckPass = driftPass
	decision.DriftViolations = violations

	decision.ConsecutivePasses = CountConsecutivePasses(ctx, e.Provider, e.Log, current.ConfigurationID, e.Config.RunLookback)

	switch {
	case driftPass:
		decision.GateDecision = true
		decision.Reason = fmt.Sprintf("Gate PASS: critical metrics pass, drift within %.1f%% threshold", e.Config.DriftThresholdPercent)
	case decision.ConsecutivePasses >= e.Config.ConsecutivePassesRequired:
		decision.GateDecision = true
		decision.Reason = fmt.Sprintf("Gate PASS: critical metrics pass, %d consecutive passes", decision.ConsecutivePasses)
	default:
		details := make([]string, 0, len(violations))
		for _, name := range sortedViolationNames(violations) {
			details = append(details, fmt.Sprintf("%s: %.1f%%", name, violations[name]))
		}
		remaining := e.Config.ConsecutivePassesRequired - decision.ConsecutivePasses
		decision.Reason = fmt.Sprintf(
			"Gate FAIL: drift > %.1f%% (%s) and only %d/%d consecutive passes (%d more needed)",
			e.Config.DriftThresholdPercent, strings.Join(details, ", "),
			decision.ConsecutivePasses, e.Config.ConsecutivePassesRequired, remaining)
	}

	e.record(decision, current, resultsDigest)
	return decision
}

// fetchHistory degrades to "no data" on any provider failure: absent
// history must never block a release.
func (e *Engine) fetchHistory(ctx context.Context, configurationID string) []types.MeasurementSet {
	if e.Provider == nil {
		return nil
	}
	window := time.Duration(e.Config.RollingWindowDays) * 24 * time.Hour
	samples, err := e.Provider.RecentMeasurements(ctx, configurationID, window)
	if err != nil {
		logrus.Warnf("historical metrics unavailable for %s, skipping drift analysis: %v", configurationID, err)
		return nil
	}
	return samples
}

func (e *Engine) record(decision types.Decision, current types.MeasurementSet, resultsDigest string) {
	if e.Log == nil {
		return
	}
	metrics := make(map[string]float64, len(current.Metrics))
	for name, value := range current.Metrics {
		metrics[name] = value
	}
	rec := types.RunRecord{
		ID:              uuid.NewString(),
		Timestamp:       decision.EvaluatedAt,
		ConfigurationID: decision.ConfigurationID,
		Commit:          decision.Commit,
		ResultsDigest:   resultsDigest,
		GatePassed:      decision.GateDecision,
		Metrics:         metrics,
	}
	if err := e.Log.Append(rec); err != nil {
		logrus.Warnf("record gate outcome for %s: %v", decision.ConfigurationID, err)
	}
}
