package gate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CriticalMetric is one row of the critical-metric table: a metric that
// must stay at or below Threshold for the gate to open.
type CriticalMetric struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
}

// CriticalTable preserves the order metrics were declared in, so failure
// enumeration and reports are stable across runs.
type CriticalTable []CriticalMetric

func (t CriticalTable) Threshold(name string) (float64, bool) {
	for _, m := range t {
		if m.Name == name {
			return m.Threshold, true
		}
	}
	return 0, false
}

// UnmarshalYAML decodes a YAML mapping while keeping document order.
func (t *CriticalTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("critical_metrics must be a mapping of metric name to threshold")
	}
	out := make(CriticalTable, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}
		var threshold float64
		if err := value.Content[i+1].Decode(&threshold); err != nil {
			return fmt.Errorf("threshold for %s: %w", name, err)
		}
		out = append(out, CriticalMetric{Name: name, Threshold: threshold})
	}
	*t = out
	return nil
}

// Config carries every tunable of the gate. It is injected into the
// engine rather than read from globals so tests can substitute tables.
type Config struct {
	TableVersion              int           `yaml:"table_version"`
	DriftThresholdPercent     float64       `yaml:"drift_threshold_percent"`
	RollingWindowDays         int           `yaml:"rolling_window_days"`
	ConsecutivePassesRequired int           `yaml:"consecutive_passes_required"`
	RunLookback               int           `yaml:"run_lookback"`
	HistoryFile               string        `yaml:"history_file"`
	WorkflowFilter            string        `yaml:"workflow_filter"`
	Critical                  CriticalTable `yaml:"critical_metrics"`
}

// criticalTableV1 is the original metric-name schema (values in µs, unit
// not encoded in the key).
var criticalTableV1 = CriticalTable{
	{Name: "input.latency.p99", Threshold: 2000.0},
	{Name: "compositor.jitter.p99", Threshold: 300.0},
	{Name: "compositor.cpu_time.p99", Threshold: 1500.0},
	{Name: "audio.jitter.p99", Threshold: 200.0},
	{Name: "ipc.rtt.same_core.p99", Threshold: 3.0},
	{Name: "cap.revoke.p99", Threshold: 200.0},
	{Name: "memory.anon_fault.p99", Threshold: 15.0},
	{Name: "memory.tlb_shootdown.p99", Threshold: 40.0},
}

// criticalTableV2 carries the unit suffix in the metric key.
var criticalTableV2 = CriticalTable{
	{Name: "input.latency.p99_us", Threshold: 2000.0},
	{Name: "compositor.jitter.p99_us", Threshold: 300.0},
	{Name: "compositor.cpu_time.p99_us", Threshold: 1500.0},
	{Name: "audio.jitter.p99_us", Threshold: 200.0},
	{Name: "ipc.rtt.same_core.p99_us", Threshold: 3.0},
	{Name: "cap.revoke.p99_us", Threshold: 200.0},
	{Name: "memory.anon_fault.p99_us", Threshold: 15.0},
	{Name: "memory.tlb_shootdown.p99_us", Threshold: 40.0},
}

func builtinTable(version int) (CriticalTable, error) {
	switch version {
	case 1:
		return append(CriticalTable(nil), criticalTableV1...), nil
	case 2:
		return append(CriticalTable(nil), criticalTableV2...), nil
	default:
		return nil, fmt.Errorf("unknown critical table version %d", version)
	}
}

func DefaultConfig() Config {
	table, _ := builtinTable(2)
	return Config{
		TableVersion:              2,
		DriftThresholdPercent:     5.0,
		RollingWindowDays:         7,
		ConsecutivePassesRequired: 2,
		RunLookback:               20,
		HistoryFile:               ".slogate/history.json",
		WorkflowFilter:            "slo",
		Critical:                  table,
	}
}

// LoadConfig reads a YAML config over the defaults. An explicit
// critical_metrics block overrides the built-in table for the selected
// version.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.Critical = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Critical) == 0 {
		table, err := builtinTable(cfg.TableVersion)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Critical = table
	}
	if cfg.DriftThresholdPercent <= 0 {
		return Config{}, fmt.Errorf("config %s: drift_threshold_percent must be positive", path)
	}
	if cfg.ConsecutivePassesRequired < 1 {
		return Config{}, fmt.Errorf("config %s: consecutive_passes_required must be at least 1", path)
	}
	return cfg, nil
}
