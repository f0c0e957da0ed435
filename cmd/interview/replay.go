package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/interview-engine/internal/replay"
	"github.com/danielpatrickdp/interview-engine/internal/store"
)

var replayCmd = &cobra.Command{
	Use:   "replay [report-id]",
	Short: "Re-score stored answers and compare with the recorded samples",
	Long: `Replay re-runs the textual scorers over a stored report's frozen answers and prints
per-question drift against what was recorded, then checks the stored averages, overall
score and feedback against the recorded samples. With --fixture it checks a JSON fixture
instead. With --export it writes the replayed result as a new fixture.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

// errDrift makes the command exit non-zero when replay disagrees with the recording.
var errDrift = errors.New("replay disagrees with the stored report")

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().String("fixture", "", "replay a JSON fixture instead of a stored report")
	replayCmd.Flags().String("export", "", "write the replay as a fixture to this path")
}

// #region replay

func runReplay(cmd *cobra.Command, args []string) error {
	fixturePath, _ := cmd.Flags().GetString("fixture")
	exportPath, _ := cmd.Flags().GetString("export")
	out := cmd.OutOrStdout()

	if (fixturePath == "") == (len(args) == 0) {
		return errors.New("give either a report ID or --fixture")
	}

	if fixturePath != "" {
		f, err := replay.LoadFixture(fixturePath)
		if err != nil {
			return err
		}
		results := replay.Replay(f.ToTurns())
		return checkFixture(out, f, results)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	report, turns, err := replay.FromStore(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	results := replay.Replay(turns)
	summary := replay.Summarize(results)
	printComparison(out, results, summary)
	mismatches := replay.CheckReport(report, summary)
	for _, m := range mismatches {
		fmt.Fprintf(out, "MISMATCH %s\n", m)
	}

	if exportPath != "" {
		fx := replay.ExportFixture("exported from report "+args[0], turns, results)
		data, err := json.MarshalIndent(fx, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal fixture: %w", err)
		}
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			return fmt.Errorf("write fixture: %w", err)
		}
		fmt.Fprintf(out, "fixture written to %s\n", exportPath)
	}
	if summary.Drifted > 0 || len(mismatches) > 0 {
		return errDrift
	}
	return nil
}

// #endregion replay

// #region output

func printComparison(out io.Writer, results []replay.TurnResult, s replay.ReplaySummary) {
	fmt.Fprintf(out, "%-14s  %-14s  %-14s  %s\n", "Question", "Recorded", "Replayed", "Drift")
	for _, r := range results {
		drift := ""
		if r.Drift {
			drift = "DRIFT"
		}
		fmt.Fprintf(out, "%-14s  %3d/%3d/%3d    %3d/%3d/%3d    %s\n", shortID(r.QuestionID),
			r.Recorded.Confidence, r.Recorded.Relevance, r.Recorded.Communication,
			r.Replayed.Confidence, r.Replayed.Relevance, r.Replayed.Communication, drift)
	}
	fmt.Fprintf(out, "\n%d turns, %d drifted; overall recorded %d, replayed %d\n",
		s.TotalTurns, s.Drifted, s.RecordedOverall, s.ReplayedOverall)
}

func checkFixture(out io.Writer, f *replay.Fixture, results []replay.TurnResult) error {
	if len(results) != len(f.ExpectedResults) {
		return fmt.Errorf("expected %d results, got %d", len(f.ExpectedResults), len(results))
	}
	failed := 0
	for i, want := range f.ExpectedResults {
		got := results[i].Replayed
		if got != want.Sample {
			failed++
			fmt.Fprintf(out, "FAIL %s: expected %+v, got %+v\n", want.QuestionID, want.Sample, got)
		}
	}
	overall := replay.Summarize(results).ReplayedOverall
	if overall != f.ExpectedOverall {
		failed++
		fmt.Fprintf(out, "FAIL overall: expected %d, got %d\n", f.ExpectedOverall, overall)
	}
	if failed > 0 {
		return errDrift
	}
	fmt.Fprintf(out, "PASS %s (%d turns, overall %d)\n", f.Description, len(results), overall)
	return nil
}

// #endregion output
