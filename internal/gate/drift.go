package gate

import (
	"math"
	"sort"

	"github.com/perfci/slogate/pkg/types"
)

// AnalyzeDrift compares every current metric against its rolling median
// over the historical samples. No history means no information, which
// passes vacuously. Metrics absent from history, or whose median is not
// strictly positive, are skipped: no drift judgment is possible.
func AnalyzeDrift(current types.MeasurementSet, history []types.MeasurementSet, thresholdPercent float64) (bool, map[string]float64) {
	violations := map[string]float64{}
	if len(history) == 0 {
		return true, violations
	}

	historical := map[string][]float64{}
	for _, sample := range history {
		for name, value := range sample.Metrics {
			historical[name] = append(historical[name], value)
		}
	}

	for name, currentValue := range current.Metrics {
		values := historical[name]
		if len(values) == 0 {
			continue
		}
		med := median(values)
		if med <= 0 {
			continue
		}
		driftPercent := math.Abs(currentValue-med) / med * 100
		if driftPercent > thresholdPercent {
			violations[name] = driftPercent
		}
	}
	return len(violations) == 0, violations
}

// median of a sample: middle value for odd length, mean of the two middle
// values for even length.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sortedViolationNames gives a deterministic enumeration order for
// reason strings and reports.
func sortedViolationNames(violations map[string]float64) []string {
	names := make([]string, 0, len(violations))
	for name := range violations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
