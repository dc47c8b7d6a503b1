package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/perfci/slogate/internal/gate"
	"github.com/perfci/slogate/pkg/types"
)

// Document is the machine-readable gate artifact: the decision plus the
// inputs needed to re-render the human report later in the pipeline.
type Document struct {
	Decision types.Decision       `json:"decision"`
	Current  types.MeasurementSet `json:"current"`
	Critical gate.CriticalTable   `json:"critical_metrics"`
}

func WriteJSON(path string, doc Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func ReadJSON(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read decision %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse decision %s: %w", path, err)
	}
	return doc, nil
}
