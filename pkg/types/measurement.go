package types

import (
	"sort"
	"strings"
	"time"
)

// MeasurementSet is one sample of SLO metrics for a configuration.
// Metric keys carry their unit as a suffix (_ms, _us, _w, or none) and
// must be preserved verbatim for reporting.
type MeasurementSet struct {
	ConfigurationID string             `json:"configuration_id,omitempty"`
	Platform        string             `json:"platform"`
	Timestamp       time.Time          `json:"timestamp,omitempty"`
	Metrics         map[string]float64 `json:"metrics"`
}

func (m MeasurementSet) SortedMetricNames() []string {
	names := make([]string, 0, len(m.Metrics))
	for name := range m.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetricUnit decodes the display unit from a metric key suffix.
func MetricUnit(name string) string {
	switch {
	case strings.HasSuffix(name, "_ms"):
		return "ms"
	case strings.HasSuffix(name, "_us"):
		return "µs"
	case strings.HasSuffix(name, "_w"):
		return "W"
	default:
		return ""
	}
}
