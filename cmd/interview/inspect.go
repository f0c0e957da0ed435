package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/logging"
	"github.com/danielpatrickdp/interview-engine/internal/store"
	"github.com/danielpatrickdp/interview-engine/internal/submit"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [report-id]",
	Short: "List stored reports or show one with its session journal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Int("last", 20, "show N most recent reports")
	inspectCmd.Flags().Bool("json", false, "output as JSON instead of table")
	inspectCmd.Flags().Bool("redis", false, "read reports from the Redis backend instead of SQLite")
}

// #region types

type listRow struct {
	ID           string             `json:"id"`
	Position     string             `json:"position"`
	Experience   string             `json:"experience"`
	OverallScore int                `json:"overall_score"`
	Averages     interview.Averages `json:"averages"`
	EndReason    string             `json:"end_reason"`
	EndedAt      string             `json:"ended_at"`
}

type journalRow struct {
	Kind      string          `json:"kind"`
	Phase     string          `json:"phase,omitempty"`
	Cursor    int             `json:"cursor"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type detailOutput struct {
	Report  interview.Report `json:"report"`
	Journal []journalRow     `json:"journal,omitempty"`
}

// #endregion types

// #region inspect

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	last, _ := cmd.Flags().GetInt("last")
	jsonOut, _ := cmd.Flags().GetBool("json")
	useRedis, _ := cmd.Flags().GetBool("redis")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if useRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.Submit.RedisAddr})
		defer client.Close()
		rs := submit.NewRedis(client, submit.WithTTL(cfg.Submit.RedisTTL), submit.WithPrefix(cfg.Submit.RedisPrefix))
		if len(args) == 1 {
			r, err := rs.Load(ctx, args[0])
			if err != nil {
				return err
			}
			return printDetail(out, detailOutput{Report: r}, jsonOut)
		}
		ids, err := rs.Recent(ctx, last)
		if err != nil {
			return err
		}
		rows := make([]listRow, 0, len(ids))
		for _, id := range ids {
			r, err := rs.Load(ctx, id)
			if err != nil {
				continue // expired
			}
			rows = append(rows, rowFromReport(r))
		}
		return printList(out, rows, jsonOut)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		r, err := st.GetReport(ctx, args[0])
		if err != nil {
			return err
		}
		entries, err := logging.NewJournal(st.DB()).Entries(ctx, r.SessionID)
		if err != nil {
			return err
		}
		return printDetail(out, detailOutput{Report: r, Journal: journalRows(entries)}, jsonOut)
	}

	summaries, err := st.ListReports(ctx, last)
	if err != nil {
		return err
	}
	rows := make([]listRow, len(summaries))
	for i, s := range summaries {
		rows[i] = listRow{
			ID:           s.ID,
			Position:     s.Position,
			Experience:   s.Experience,
			OverallScore: s.OverallScore,
			Averages:     s.Averages,
			EndReason:    s.EndReason,
			EndedAt:      formatWhen(s.EndedAt),
		}
	}
	return printList(out, rows, jsonOut)
}

func rowFromReport(r interview.Report) listRow {
	return listRow{
		ID:           r.ID,
		Position:     r.Settings.Position,
		Experience:   r.Settings.Experience,
		OverallScore: r.OverallScore,
		Averages:     r.Averages,
		EndReason:    r.EndReason,
		EndedAt:      formatWhen(r.EndedAt),
	}
}

func journalRows(entries []logging.Entry) []journalRow {
	rows := make([]journalRow, len(entries))
	for i, e := range entries {
		rows[i] = journalRow{
			Kind:      e.Kind,
			Phase:     e.Phase,
			Cursor:    e.Cursor,
			CreatedAt: formatWhen(e.CreatedAt),
		}
		if e.DetailJSON != "" {
			rows[i].Detail = json.RawMessage(e.DetailJSON)
		}
	}
	return rows
}

// #endregion inspect

// #region output

func printList(out io.Writer, rows []listRow, jsonOut bool) error {
	if jsonOut {
		return printJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no reports found")
		return nil
	}
	fmt.Fprintf(out, "%-12s  %-20s  %-6s  %7s  %4s  %4s  %4s  %-12s  %s\n",
		"Report", "Position", "Level", "Overall", "Conf", "Rel", "Comm", "Ended", "Time")
	for _, r := range rows {
		fmt.Fprintf(out, "%-12s  %-20s  %-6s  %7d  %4d  %4d  %4d  %-12s  %s\n",
			shortID(r.ID), truncate(r.Position, 20), r.Experience, r.OverallScore,
			r.Averages.Confidence, r.Averages.Relevance, r.Averages.Communication, r.EndReason, r.EndedAt)
	}
	return nil
}

func printDetail(out io.Writer, d detailOutput, jsonOut bool) error {
	if jsonOut {
		return printJSON(out, d)
	}
	r := d.Report
	fmt.Fprintf(out, "Report %s (session %s)\n", r.ID, r.SessionID)
	fmt.Fprintf(out, "  position %q  experience %s  ended %s\n", r.Settings.Position, r.Settings.Experience, r.EndReason)
	fmt.Fprintf(out, "  overall %d  confidence %d  relevance %d  communication %d\n\n",
		r.OverallScore, r.Averages.Confidence, r.Averages.Relevance, r.Averages.Communication)

	for i, s := range r.Samples {
		q := ""
		if i < len(r.Questions) {
			q = r.Questions[i].Text
		}
		fmt.Fprintf(out, "  Q%d  conf %3d  rel %3d  comm %3d  %s\n", i+1, s.Confidence, s.Relevance, s.Communication, truncate(q, 60))
		if i < len(r.Answers) && r.Answers[i] != "" {
			fmt.Fprintf(out, "      %s\n", truncate(r.Answers[i], 100))
		}
	}

	if len(d.Journal) > 0 {
		fmt.Fprintln(out, "\nJournal:")
		for _, j := range d.Journal {
			fmt.Fprintf(out, "  %s  %-18s %-13s q%d  %s\n", j.CreatedAt, j.Kind, j.Phase, j.Cursor+1, string(j.Detail))
		}
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// #endregion output
