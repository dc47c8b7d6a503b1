package gate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfci/slogate/internal/history"
	"github.com/perfci/slogate/internal/store"
	"github.com/perfci/slogate/pkg/types"
)

func testEngine(t *testing.T, provider history.Provider) (*Engine, *store.RunLog) {
	t.Helper()
	log := store.NewRunLog(filepath.Join(t.TempDir(), "history.json"))
	cfg := DefaultConfig()
	cfg.Critical = CriticalTable{
		{Name: "input.latency.p99_us", Threshold: 2000.0},
		{Name: "audio.jitter.p99_us", Threshold: 200.0},
	}
	return &Engine{Config: cfg, Provider: provider, Log: log}, log
}

func passingSet() types.MeasurementSet {
	return types.MeasurementSet{
		ConfigurationID: "ref-sku-01",
		Platform:        "qemu-q35",
		Metrics: map[string]float64{
			"input.latency.p99_us": 1500.0,
			"audio.jitter.p99_us":  150.0,
		},
	}
}

func TestEvaluate_NoHistoryPassesVacuously(t *testing.T) {
	provider := &fakeProvider{}
	engine, _ := testEngine(t, provider)

	decision := engine.Evaluate(context.Background(), passingSet(), "abc1234", "")

	assert.True(t, decision.GateDecision)
	assert.True(t, decision.CriticalMetricsPass)
	assert.True(t, decision.DriftCheckPass)
	assert.Equal(t, 0, decision.ConsecutivePasses)
	assert.Contains(t, decision.Reason, "drift within")
}

func TestEvaluate_CriticalFailureShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	engine, log := testEngine(t, provider)

	current := passingSet()
	current.Metrics["input.latency.p99_us"] = 2500.0

	decision := engine.Evaluate(context.Background(), current, "abc1234", "")

	assert.False(t, decision.GateDecision)
	assert.False(t, decision.CriticalMetricsPass)
	assert.Contains(t, decision.Reason, "input.latency.p99_us")
	assert.Contains(t, decision.Reason, "2500.000")
	assert.Contains(t, decision.Reason, "2000.000")

	// drift and streak signals are never computed on critical failure
	assert.Zero(t, provider.measureCalls)
	assert.Zero(t, provider.outcomeCalls)

	// the failing outcome is still recorded
	records, err := log.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].GatePassed)
}

func TestEvaluate_ConsecutivePassOverride(t *testing.T) {
	history7d := []types.MeasurementSet{
		{Metrics: map[string]float64{"input.latency.p99_us": 1000.0}},
		{Metrics: map[string]float64{"input.latency.p99_us": 1000.0}},
		{Metrics: map[string]float64{"input.latency.p99_us": 1000.0}},
	}
	// current 1500 vs median 1000 → 50% drift; remote gives no streak
	// signal, the local log's two passes take over.
	provider := &fakeProvider{measurements: history7d}
	engine, log := testEngine(t, provider)
	seedEngineLog(t, log, "ref-sku-01", []bool{true, true})

	decision := engine.Evaluate(context.Background(), passingSet(), "abc1234", "")

	assert.True(t, decision.GateDecision)
	assert.False(t, decision.DriftCheckPass)
	assert.Equal(t, 2, decision.ConsecutivePasses)
	assert.Contains(t, decision.Reason, "2 consecutive passes")
}

func TestEvaluate_DriftWithoutOverrideFails(t *testing.T) {
	history7d := []types.MeasurementSet{
		{Metrics: map[string]float64{"input.latency.p99_us": 1000.0}},
	}
	provider := &fakeProvider{measurements: history7d}
	engine, _ := testEngine(t, provider)

	decision := engine.Evaluate(context.Background(), passingSet(), "abc1234", "")

	assert.False(t, decision.GateDecision)
	assert.False(t, decision.DriftCheckPass)
	assert.Contains(t, decision.Reason, "input.latency.p99_us: 50.0%")
	assert.Contains(t, decision.Reason, "0/2 consecutive passes")
	assert.Contains(t, decision.Reason, "2 more needed")
}

func TestEvaluate_RemoteFailureDegradesToNoData(t *testing.T) {
	provider := &fakeProvider{measureErr: assert.AnError, outcomesErr: assert.AnError}
	engine, _ := testEngine(t, provider)

	decision := engine.Evaluate(context.Background(), passingSet(), "abc1234", "")

	assert.True(t, decision.GateDecision, "provider failure must not block the release")
	assert.True(t, decision.DriftCheckPass)
}

func TestEvaluate_RecordsEveryOutcome(t *testing.T) {
	provider := &fakeProvider{}
	engine, log := testEngine(t, provider)

	engine.Evaluate(context.Background(), passingSet(), "sha-1", "sha256:aa")
	failing := passingSet()
	failing.Metrics["audio.jitter.p99_us"] = 999.0
	engine.Evaluate(context.Background(), failing, "sha-2", "sha256:bb")

	records, err := log.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].GatePassed)
	assert.False(t, records[1].GatePassed)
	assert.Equal(t, "sha-1", records[0].Commit)
	assert.Equal(t, "sha256:aa", records[0].ResultsDigest)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, 150.0, records[0].Metrics["audio.jitter.p99_us"])
}

func seedEngineLog(t *testing.T, log *store.RunLog, sku string, passes []bool) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i, passed := range passes {
		rec := types.RunRecord{
			ID:              "seed",
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
			ConfigurationID: sku,
			GatePassed:      passed,
			Metrics:         map[string]float64{},
		}
		if err := log.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}
