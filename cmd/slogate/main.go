package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perfci/slogate/internal/gate"
	"github.com/perfci/slogate/internal/hash"
	"github.com/perfci/slogate/internal/history"
	"github.com/perfci/slogate/internal/report"
	"github.com/perfci/slogate/internal/store"
	"github.com/perfci/slogate/pkg/types"
)

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(gate.ExitInputError)
	}
}

var newProviderFunc = func(repo, token, workflowFilter string) history.Provider {
	return history.NewGitHubClient(repo, token, workflowFilter)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "slogate",
		Short: "SLO release gate for hardware/software configurations",
	}
	root.AddCommand(newInitCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newReportCommand())
	root.AddCommand(newHistoryCommand())
	return root
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize slogate configuration and local history",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.MkdirAll(".slogate", 0o755); err != nil {
				return err
			}
			if !fileExists("slogate.yaml") {
				if err := os.WriteFile("slogate.yaml", []byte(defaultConfigYAML), 0o644); err != nil {
					return err
				}
			}
			fmt.Println("initialized slogate config and local history dir")
			return nil
		},
	}
}

func newCheckCommand() *cobra.Command {
	var resultsPath, sku, sha, repo, token, cfgPath, outPath, jsonPath, historyFile string
	var offline bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the SLO gate for one measurement set",
		RunE: func(c *cobra.Command, _ []string) error {
			if resultsPath == "" || sku == "" {
				return fmt.Errorf("--results and --sku are required")
			}

			cfg, err := resolveConfig(cfgPath)
			if err != nil {
				return cliError{code: gate.ExitInputError, err: err}
			}
			if historyFile != "" {
				cfg.HistoryFile = historyFile
			}

			current, err := gate.LoadResults(resultsPath)
			if err != nil {
				return cliError{code: gate.ExitInputError, err: err}
			}
			current.ConfigurationID = sku

			digest, _, err := hash.DigestFile(resultsPath)
			if err != nil {
				logrus.Warnf("digest results file: %v", err)
			}

			var provider history.Provider
			if !offline && repo != "" {
				if token == "" {
					token = os.Getenv("GITHUB_TOKEN")
				}
				provider = newProviderFunc(repo, token, cfg.WorkflowFilter)
			}

			engine := &gate.Engine{
				Config:   cfg,
				Provider: provider,
				Log:      store.NewRunLog(cfg.HistoryFile),
			}

			shortSHA := sha
			if len(shortSHA) > 8 {
				shortSHA = shortSHA[:8]
			}
			fmt.Printf("checking SLO gate for %s (commit: %s)\n", sku, shortSHA)

			decision := engine.Evaluate(c.Context(), current, sha, digest)

			md := report.BuildMarkdown(decision, current, cfg.Critical)
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
					return err
				}
				fmt.Println(outPath)
			} else {
				fmt.Println("\n" + md)
			}
			if jsonPath != "" {
				doc := report.Document{Decision: decision, Current: current, Critical: cfg.Critical}
				if err := report.WriteJSON(jsonPath, doc); err != nil {
					return err
				}
				fmt.Println(jsonPath)
			}

			fmt.Println(decision.Reason)
			if !decision.GateDecision {
				return cliError{code: gate.ExitGateFail, err: fmt.Errorf("SLO gate failed for %s", sku)}
			}
			fmt.Printf("SLO gate passed for %s\n", sku)
			return nil
		},
	}
	cmd.Flags().StringVar(&resultsPath, "results", "", "path to SLO results JSON file")
	cmd.Flags().StringVar(&sku, "sku", "", "reference SKU / configuration id")
	cmd.Flags().StringVar(&sha, "sha", "", "git commit SHA")
	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository (owner/repo) for remote history")
	cmd.Flags().StringVar(&token, "github-token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	cmd.Flags().StringVar(&cfgPath, "config", "", "gate config YAML (defaults to slogate.yaml when present)")
	cmd.Flags().StringVar(&outPath, "output", "", "write the gate report to this file instead of stdout")
	cmd.Flags().StringVar(&jsonPath, "json-out", "", "also write the decision as JSON")
	cmd.Flags().StringVar(&historyFile, "history-file", "", "override the local run history file")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip remote history entirely")
	return cmd
}

func newReportCommand() *cobra.Command {
	var inPath, outPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate markdown report from a decision JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			if inPath == "" || outPath == "" {
				return fmt.Errorf("--in and --out are required")
			}
			doc, err := report.ReadJSON(inPath)
			if err != nil {
				return err
			}
			if err := report.WriteMarkdown(outPath, doc.Decision, doc.Current, doc.Critical); err != nil {
				return err
			}
			fmt.Println(outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "decision JSON input")
	cmd.Flags().StringVar(&outPath, "out", "", "markdown output")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{Use: "history", Short: "Inspect the local run history"}

	var historyFile, sku string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print recorded gate runs, newest first",
		RunE: func(_ *cobra.Command, _ []string) error {
			log := store.NewRunLog(historyFile)
			var records []types.RunRecord
			var err error
			if sku != "" {
				records, err = log.RecordsFor(sku)
			} else {
				records, err = log.Records()
			}
			if err != nil {
				return err
			}
			sort.Slice(records, func(i, j int) bool {
				return records[i].Timestamp.After(records[j].Timestamp)
			})
			for _, r := range records {
				status := "FAIL"
				if r.GatePassed {
					status = "PASS"
				}
				fmt.Printf("%s  %s  %s  %s\n", r.Timestamp.UTC().Format(time.RFC3339), status, r.ConfigurationID, r.Commit)
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&historyFile, "history-file", ".slogate/history.json", "local run history file")
	showCmd.Flags().StringVar(&sku, "sku", "", "filter to one configuration id")

	var keep int
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Trim the local run history",
		RunE: func(_ *cobra.Command, _ []string) error {
			log := store.NewRunLog(historyFile)
			if err := log.Prune(keep); err != nil {
				return err
			}
			fmt.Printf("pruned run history to %d entries\n", keep)
			return nil
		},
	}
	pruneCmd.Flags().StringVar(&historyFile, "history-file", ".slogate/history.json", "local run history file")
	pruneCmd.Flags().IntVar(&keep, "keep", 0, "number of most recent entries to keep")

	historyCmd.AddCommand(showCmd)
	historyCmd.AddCommand(pruneCmd)
	return historyCmd
}

func resolveConfig(path string) (gate.Config, error) {
	if path != "" {
		return gate.LoadConfig(path)
	}
	if fileExists("slogate.yaml") {
		return gate.LoadConfig("slogate.yaml")
	}
	return gate.DefaultConfig(), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const defaultConfigYAML = `table_version: 2
drift_threshold_percent: 5.0
rolling_window_days: 7
consecutive_passes_required: 2
run_lookback: 20
history_file: .slogate/history.json
workflow_filter: slo
# critical_metrics overrides the built-in table for table_version:
# critical_metrics:
#   input.latency.p99_us: 2000.0
#   compositor.jitter.p99_us: 300.0
`
