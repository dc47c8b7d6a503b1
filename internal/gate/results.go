package gate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/perfci/slogate/pkg/schema"
	"github.com/perfci/slogate/pkg/types"
)

// resultsSchema describes the current-measurement document. Validation
// failures here are fatal: the gate cannot run without its primary input.
const resultsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["platform", "metrics"],
  "properties": {
    "platform": {"type": "string"},
    "timestamp": {"type": "string"},
    "configuration_id": {"type": "string"},
    "metrics": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "number"}
    }
  }
}`

// LoadResults reads and validates the current measurement set.
func LoadResults(path string) (types.MeasurementSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.MeasurementSet{}, fmt.Errorf("read SLO results %s: %w", path, err)
	}
	errs, err := schema.ValidateBytes(resultsSchema, raw)
	if err != nil {
		return types.MeasurementSet{}, fmt.Errorf("SLO results %s: %w", path, err)
	}
	if len(errs) > 0 {
		return types.MeasurementSet{}, fmt.Errorf("SLO results %s invalid: %v", path, errs)
	}
	var current types.MeasurementSet
	if err := json.Unmarshal(raw, &current); err != nil {
		return types.MeasurementSet{}, fmt.Errorf("parse SLO results %s: %w", path, err)
	}
	return current, nil
}
