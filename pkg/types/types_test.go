package types

import (
	"reflect"
	"testing"
)

func TestMetricUnit(t *testing.T) {
	cases := map[string]string{
		"input.latency.p99_us": "µs",
		"frame.time.p99_ms":    "ms",
		"gpu.power.avg_w":      "W",
		"cache.hit_ratio":      "",
	}
	for name, want := range cases {
		if got := MetricUnit(name); got != want {
			t.Errorf("MetricUnit(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSortedMetricNames(t *testing.T) {
	m := MeasurementSet{Metrics: map[string]float64{
		"c.metric": 1,
		"a.metric": 2,
		"b.metric": 3,
	}}
	want := []string{"a.metric", "b.metric", "c.metric"}
	if got := m.SortedMetricNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedMetricNames = %v, want %v", got, want)
	}
}
