package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/perfci/slogate/internal/gate"
	"github.com/perfci/slogate/pkg/types"
)

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// BuildMarkdown renders the gate decision report: overall and per-check
// status, the reason string, and one line per measured metric with its
// unit-suffixed value and, for critical metrics, threshold and status.
func BuildMarkdown(decision types.Decision, current types.MeasurementSet, table gate.CriticalTable) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# SLO Gate Report - %s\n\n", decision.ConfigurationID))
	b.WriteString(fmt.Sprintf("**Platform:** %s\n", decision.Platform))
	if decision.Commit != "" {
		b.WriteString(fmt.Sprintf("**Commit:** %s\n", decision.Commit))
	}
	b.WriteString(fmt.Sprintf("**Timestamp:** %s\n", decision.EvaluatedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("**Gate Decision:** %s\n\n", passFail(decision.GateDecision)))

	b.WriteString("## Gate Analysis\n\n")
	b.WriteString(fmt.Sprintf("- **Critical Metrics:** %s\n", passFail(decision.CriticalMetricsPass)))
	b.WriteString(fmt.Sprintf("- **Drift Check:** %s\n", passFail(decision.DriftCheckPass)))
	b.WriteString(fmt.Sprintf("- **Consecutive Passes:** %d/%d\n\n", decision.ConsecutivePasses, decision.RequiredPasses))
	b.WriteString(fmt.Sprintf("**Reason:** %s\n\n", decision.Reason))

	b.WriteString("## Measured Metrics\n\n")
	for _, name := range current.SortedMetricNames() {
		value := current.Metrics[name]
		unit := types.MetricUnit(name)
		if threshold, ok := table.Threshold(name); ok {
			status := "PASS"
			if value > threshold {
				status = "FAIL"
			}
			b.WriteString(fmt.Sprintf("- [%s] **%s:** %.3f%s (threshold: %.3f%s)\n",
				status, name, value, unit, threshold, unit))
			continue
		}
		b.WriteString(fmt.Sprintf("- **%s:** %.3f%s\n", name, value, unit))
	}
	return b.String()
}

func WriteMarkdown(path string, decision types.Decision, current types.MeasurementSet, table gate.CriticalTable) error {
	return os.WriteFile(path, []byte(BuildMarkdown(decision, current, table)), 0o644)
}
