package gate

import (
	"fmt"

	"github.com/perfci/slogate/pkg/types"
)

// CheckCritical evaluates the current sample against the critical-metric
// table, in table order. A metric missing from the sample is a failure in
// its own right, never a silent skip.
func CheckCritical(table CriticalTable, current types.MeasurementSet) (bool, []string) {
	failures := []string{}
	for _, m := range table {
		value, ok := current.Metrics[m.Name]
		if !ok {
			failures = append(failures, fmt.Sprintf("missing critical metric: %s", m.Name))
			continue
		}
		if value > m.Threshold {
			failures = append(failures, fmt.Sprintf(
				"SLO violation: %s = %.3f%s > %.3f%s",
				m.Name, value, types.MetricUnit(m.Name), m.Threshold, types.MetricUnit(m.Name)))
		}
	}
	return len(failures) == 0, failures
}
