package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/perfci/slogate/pkg/types"
)

// DefaultMaxRecords caps the run log across all configuration ids.
const DefaultMaxRecords = 50

// RunLog is the local append-only log of prior gate decisions, stored as
// a single JSON document {"runs": [...]}. Appends hold an exclusive file
// lock so concurrent pipeline runs cannot interleave partial writes.
type RunLog struct {
	path       string
	maxRecords int
}

func NewRunLog(path string) *RunLog {
	return &RunLog{path: path, maxRecords: DefaultMaxRecords}
}

type logDocument struct {
	Runs []types.RunRecord `json:"runs"`
}

// Append adds a record, evicting the oldest entries beyond the cap. A
// corrupt log is reset rather than blocking the append: future
// consecutive-pass counts depend on this record landing.
func (l *RunLog) Append(record types.RunRecord) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open run log %s: %w", l.path, err)
	}
	defer f.Close()
	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock run log %s: %w", l.path, err)
	}
	defer func() { _ = unlockFile(f) }()

	doc := logDocument{}
	raw, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read run log %s: %w", l.path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			logrus.Warnf("run log %s is corrupt, starting fresh: %v", l.path, err)
			doc = logDocument{}
		}
	}

	doc.Runs = append(doc.Runs, record)
	if len(doc.Runs) > l.maxRecords {
		doc.Runs = doc.Runs[len(doc.Runs)-l.maxRecords:]
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate run log %s: %w", l.path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := f.Write(out); err != nil {
		return fmt.Errorf("write run log %s: %w", l.path, err)
	}
	return nil
}

// Records returns every stored record, unordered beyond file order.
func (l *RunLog) Records() ([]types.RunRecord, error) {
	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read run log %s: %w", l.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var doc logDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse run log %s: %w", l.path, err)
	}
	return doc.Runs, nil
}

// RecordsFor filters to one configuration, newest first.
func (l *RunLog) RecordsFor(configurationID string) ([]types.RunRecord, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	filtered := make([]types.RunRecord, 0, len(records))
	for _, r := range records {
		if r.ConfigurationID == configurationID {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	return filtered, nil
}

// ConsecutivePasses walks this configuration's records newest first and
// counts the streak of passing runs, stopping at the first failure.
func (l *RunLog) ConsecutivePasses(configurationID string) (int, error) {
	records, err := l.RecordsFor(configurationID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range records {
		if !r.GatePassed {
			break
		}
		count++
	}
	return count, nil
}

// Prune trims the log to the most recent keep records across all
// configurations.
func (l *RunLog) Prune(keep int) error {
	records, err := l.Records()
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	if len(records) > keep {
		records = records[len(records)-keep:]
	}
	doc := logDocument{Runs: records}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, out, 0o644)
}
