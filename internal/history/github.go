package history

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/perfci/slogate/pkg/types"
)

// GitHubClient reads prior SLO runs from the GitHub Actions API: workflow
// runs for outcomes, run artifacts for the per-run metrics files.
type GitHubClient struct {
	baseURL        string
	repo           string
	token          string
	workflowFilter string
	httpClient     *http.Client
}

// NewGitHubClient creates a provider for the given owner/repo. The
// workflow filter is matched case-insensitively against run names to
// pick out SLO runs.
func NewGitHubClient(repo, token, workflowFilter string) *GitHubClient {
	return &GitHubClient{
		baseURL:        "https://api.github.com",
		repo:           repo,
		token:          token,
		workflowFilter: strings.ToLower(workflowFilter),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGitHubClientAt is NewGitHubClient against a non-default API base,
// for tests and GitHub Enterprise installs.
func NewGitHubClientAt(baseURL, repo, token, workflowFilter string) *GitHubClient {
	c := NewGitHubClient(repo, token, workflowFilter)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type workflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HeadSHA    string    `json:"head_sha"`
	CreatedAt  time.Time `json:"created_at"`
}

type runArtifact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Expired     bool   `json:"expired"`
	DownloadURL string `json:"archive_download_url"`
}

func (c *GitHubClient) RecentOutcomes(ctx context.Context, configurationID string, limit int) ([]RunOutcome, error) {
	runs, err := c.listRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	outcomes := make([]RunOutcome, 0, len(runs))
	for _, run := range runs {
		outcome := RunOutcome{RunID: run.ID, CreatedAt: run.CreatedAt}
		if c.isSLORun(run) {
			outcome.Related = true
			if run.Conclusion == "success" {
				artifact, err := c.findResultsArtifact(ctx, run.ID, configurationID)
				if err != nil {
					return nil, err
				}
				outcome.Passed = artifact != nil
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (c *GitHubClient) RecentMeasurements(ctx context.Context, configurationID string, window time.Duration) ([]types.MeasurementSet, error) {
	runs, err := c.listRuns(ctx, 100)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-window)
	samples := []types.MeasurementSet{}
	for _, run := range runs {
		if !c.isSLORun(run) || run.Conclusion != "success" || run.CreatedAt.Before(cutoff) {
			continue
		}
		artifact, err := c.findResultsArtifact(ctx, run.ID, configurationID)
		if err != nil {
			return nil, err
		}
		if artifact == nil {
			continue
		}
		sample, err := c.downloadMeasurement(ctx, artifact)
		if err != nil {
			// One bad artifact discards that sample only.
			logrus.Warnf("discarding historical sample from run %d: %v", run.ID, err)
			continue
		}
		sample.ConfigurationID = configurationID
		sample.Timestamp = run.CreatedAt
		samples = append(samples, sample)
	}
	return samples, nil
}

func (c *GitHubClient) isSLORun(run workflowRun) bool {
	if c.workflowFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(run.Name), c.workflowFilter)
}

func (c *GitHubClient) listRuns(ctx context.Context, limit int) ([]workflowRun, error) {
	url := fmt.Sprintf("%s/repos/%s/actions/runs?per_page=%d", c.baseURL, c.repo, limit)
	var payload struct {
		WorkflowRuns []workflowRun `json:"workflow_runs"`
	}
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	return payload.WorkflowRuns, nil
}

// findResultsArtifact returns the non-expired slo-results artifact for
// the configuration, or nil when the run has none.
func (c *GitHubClient) findResultsArtifact(ctx context.Context, runID int64, configurationID string) (*runArtifact, error) {
	url := fmt.Sprintf("%s/repos/%s/actions/runs/%d/artifacts", c.baseURL, c.repo, runID)
	var payload struct {
		Artifacts []runArtifact `json:"artifacts"`
	}
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("list artifacts for run %d: %w", runID, err)
	}
	want := "slo-results-" + configurationID
	for i := range payload.Artifacts {
		a := payload.Artifacts[i]
		if a.Name == want && !a.Expired {
			return &a, nil
		}
	}
	return nil, nil
}

// downloadMeasurement pulls the artifact zip and parses the first JSON
// entry as a measurement set.
func (c *GitHubClient) downloadMeasurement(ctx context.Context, artifact *runArtifact) (types.MeasurementSet, error) {
	raw, err := c.get(ctx, artifact.DownloadURL)
	if err != nil {
		return types.MeasurementSet{}, fmt.Errorf("download artifact %s: %w", artifact.Name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return types.MeasurementSet{}, fmt.Errorf("open artifact %s: %w", artifact.Name, err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return types.MeasurementSet{}, fmt.Errorf("open %s in artifact: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return types.MeasurementSet{}, fmt.Errorf("read %s in artifact: %w", f.Name, err)
		}
		var sample types.MeasurementSet
		if err := json.Unmarshal(data, &sample); err != nil {
			return types.MeasurementSet{}, fmt.Errorf("parse %s in artifact: %w", f.Name, err)
		}
		if len(sample.Metrics) == 0 {
			return types.MeasurementSet{}, fmt.Errorf("%s in artifact has no metrics", f.Name)
		}
		return sample, nil
	}
	return types.MeasurementSet{}, fmt.Errorf("artifact %s contains no metrics file", artifact.Name)
}

func (c *GitHubClient) getJSON(ctx context.Context, url string, out any) error {
	raw, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *GitHubClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}
