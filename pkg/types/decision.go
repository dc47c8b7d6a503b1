package types

import "time"

// Decision is the gate engine's output for one invocation. It is built
// once and never mutated after the engine returns it.
type Decision struct {
	ConfigurationID     string             `json:"configuration_id"`
	Platform            string             `json:"platform"`
	Commit              string             `json:"commit"`
	EvaluatedAt         time.Time          `json:"evaluated_at"`
	CriticalMetricsPass bool               `json:"critical_metrics_pass"`
	DriftCheckPass      bool               `json:"drift_check_pass"`
	ConsecutivePasses   int                `json:"consecutive_passes"`
	RequiredPasses      int                `json:"required_passes"`
	GateDecision        bool               `json:"gate_decision"`
	Reason              string             `json:"reason"`
	CriticalFailures    []string           `json:"critical_failures,omitempty"`
	DriftViolations     map[string]float64 `json:"drift_violations,omitempty"`
}

// RunRecord is one entry in the local run-history log.
type RunRecord struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	ConfigurationID string             `json:"configuration_id"`
	Commit          string             `json:"commit"`
	ResultsDigest   string             `json:"results_digest,omitempty"`
	GatePassed      bool               `json:"gate_passed"`
	Metrics         map[string]float64 `json:"metrics"`
}
