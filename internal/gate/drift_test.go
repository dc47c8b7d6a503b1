package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perfci/slogate/pkg/types"
)

func sample(values map[string]float64) types.MeasurementSet {
	return types.MeasurementSet{Metrics: values}
}

func TestAnalyzeDrift_EmptyHistoryPasses(t *testing.T) {
	current := sample(map[string]float64{"input.latency.p99_us": 999999})
	pass, violations := AnalyzeDrift(current, nil, 5.0)
	assert.True(t, pass)
	assert.Empty(t, violations)
}

func TestAnalyzeDrift_ViolationAboveThreshold(t *testing.T) {
	history := []types.MeasurementSet{
		sample(map[string]float64{"m": 10}),
		sample(map[string]float64{"m": 12}),
		sample(map[string]float64{"m": 14}),
	}
	// median 12, current 12.7 → 5.83% drift
	pass, violations := AnalyzeDrift(sample(map[string]float64{"m": 12.7}), history, 5.0)
	assert.False(t, pass)
	assert.InDelta(t, 5.833, violations["m"], 0.01)
}

func TestAnalyzeDrift_WithinThreshold(t *testing.T) {
	history := []types.MeasurementSet{
		sample(map[string]float64{"m": 10}),
		sample(map[string]float64{"m": 12}),
		sample(map[string]float64{"m": 14}),
	}
	// median 12, current 12.5 → 4.17% drift
	pass, violations := AnalyzeDrift(sample(map[string]float64{"m": 12.5}), history, 5.0)
	assert.True(t, pass)
	assert.Empty(t, violations)
}

func TestAnalyzeDrift_MetricAbsentFromHistorySkipped(t *testing.T) {
	history := []types.MeasurementSet{sample(map[string]float64{"other": 100})}
	pass, violations := AnalyzeDrift(sample(map[string]float64{"m": 50}), history, 5.0)
	assert.True(t, pass)
	assert.Empty(t, violations)
}

func TestAnalyzeDrift_ZeroMedianSkipped(t *testing.T) {
	history := []types.MeasurementSet{
		sample(map[string]float64{"m": 0}),
		sample(map[string]float64{"m": 0}),
	}
	pass, violations := AnalyzeDrift(sample(map[string]float64{"m": 10}), history, 5.0)
	assert.True(t, pass)
	assert.Empty(t, violations)
}

func TestAnalyzeDrift_SparseHistory(t *testing.T) {
	// Only two of four samples carry the metric; median over present values.
	history := []types.MeasurementSet{
		sample(map[string]float64{"m": 10}),
		sample(map[string]float64{"other": 1}),
		sample(map[string]float64{"m": 20}),
		sample(map[string]float64{}),
	}
	// median of [10, 20] is 15; current 30 → 100% drift
	pass, violations := AnalyzeDrift(sample(map[string]float64{"m": 30}), history, 5.0)
	assert.False(t, pass)
	assert.InDelta(t, 100.0, violations["m"], 0.001)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 12.0, median([]float64{14, 10, 12}))
	assert.Equal(t, 11.0, median([]float64{14, 10, 12, 10}))
	assert.Equal(t, 7.0, median([]float64{7}))
}
