package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
)

type autoFillOptions struct {
	records string
	start   string
	end     string
	asJSON  bool
}

type autoFillRow struct {
	Index      int     `json:"index"`
	ProposalID string  `json:"proposal_id"`
	Hours      float64 `json:"duration_hours"`
	Selected   bool    `json:"selected"`
}

type autoFillReport struct {
	StartDate        string        `json:"start_date"`
	EndDate          string        `json:"end_date"`
	WindowSeconds    int64         `json:"window_seconds"`
	RemainingSeconds float64       `json:"remaining_seconds"`
	Candidates       []autoFillRow `json:"candidates"`
}

func newAutoFillCmd(now func() time.Time) *cobra.Command {
	opts := &autoFillOptions{}
	cmd := &cobra.Command{
		Use:   "autofill",
		Short: "Preview the first-fit selection for a date window",
		Long: `Reads candidate proposal records from a JSON file and prints which of them
the automatic selection would pick for the given window.

Examples:
  timetablectl autofill --records proposals.json --start 2030-01-01 --end 2030-01-07
  timetablectl autofill -r proposals.json --start 2030-01-01 --end 2030-01-01 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutoFill(cmd.OutOrStdout(), opts, now())
		},
	}
	cmd.Flags().StringVarP(&opts.records, "records", "r", "", "JSON file with an array of proposal records")
	cmd.Flags().StringVar(&opts.start, "start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "window end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runAutoFill(out io.Writer, opts *autoFillOptions, now time.Time) error {
	var records []dto.ProposalRecord
	if err := readJSONFile(opts.records, &records); err != nil {
		return err
	}
	candidates, err := planner.ProposalsFromRecords(records)
	if err != nil {
		return err
	}
	window, err := planner.ValidateWindow(opts.start, opts.end, now)
	if err != nil {
		return err
	}

	allocation := planner.AutoFill(window.Duration, candidates)
	report := autoFillReport{
		StartDate:        opts.start,
		EndDate:          opts.end,
		WindowSeconds:    int64(window.Duration / time.Second),
		RemainingSeconds: allocation.Remaining.Seconds(),
		Candidates:       make([]autoFillRow, 0, len(candidates)),
	}
	for i, p := range candidates {
		report.Candidates = append(report.Candidates, autoFillRow{
			Index:      i,
			ProposalID: p.ProposalID,
			Hours:      p.Duration.Hours(),
			Selected:   allocation.Selected[i],
		})
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "window\t%s .. %s\t%.1fh\n", report.StartDate, report.EndDate, window.Duration.Hours())
	fmt.Fprintln(tw, "#\tPROPOSAL\tHOURS\tSELECTED")
	for _, row := range report.Candidates {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", row.Index, row.ProposalID, row.Hours, mark(row.Selected))
	}
	fmt.Fprintf(tw, "remaining\t\t%.2f\t\n", allocation.Remaining.Hours())
	return tw.Flush()
}

func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func mark(selected bool) string {
	if selected {
		return "yes"
	}
	return "no"
}
