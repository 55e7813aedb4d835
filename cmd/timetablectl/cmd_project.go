package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
)

const dateLayout = "2006-01-02"

func newProjectCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the calendar events of a stored timetable",
		Long: `Reads a timetable as returned by GET /timetables/{id} (either the bare object
or the full response envelope) and prints its calendar events as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd.OutOrStdout(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "timetable", "t", "", "JSON file with the timetable")
	_ = cmd.MarkFlagRequired("timetable")
	return cmd
}

func runProject(out io.Writer, file string) error {
	var envelope struct {
		Data *dto.TimetableResponse `json:"data"`
	}
	if err := readJSONFile(file, &envelope); err != nil {
		return err
	}
	resp := envelope.Data
	if resp == nil {
		resp = &dto.TimetableResponse{}
		if err := readJSONFile(file, resp); err != nil {
			return err
		}
	}

	timetable, err := timetableFromResponse(*resp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(planner.Project(timetable))
}

func timetableFromResponse(resp dto.TimetableResponse) (models.Timetable, error) {
	proposals, err := planner.ProposalsFromRecords(resp.Proposals)
	if err != nil {
		return models.Timetable{}, err
	}
	timetable := models.Timetable{ID: resp.ID, Name: resp.Name, Proposals: proposals}
	if resp.StartDate != "" {
		if timetable.StartDate, err = time.Parse(dateLayout, resp.StartDate); err != nil {
			return models.Timetable{}, fmt.Errorf("start_date: %w", err)
		}
	}
	if resp.EndDate != "" {
		if timetable.EndDate, err = time.Parse(dateLayout, resp.EndDate); err != nil {
			return models.Timetable{}, fmt.Errorf("end_date: %w", err)
		}
	}
	return timetable, nil
}
