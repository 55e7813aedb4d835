package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obs-timetable-api/internal/models"
)

var cliNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func() time.Time { return cliNow })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const candidateRecords = `[
  {"id":"1","proposal_id":"SCI-1","simulated_duration":"86400","night_obs":"no","avoid_sunrise_sunset":"no","minimum_antennas":"4"},
  {"id":"2","proposal_id":"SCI-2","simulated_duration":"3600","night_obs":"yes","avoid_sunrise_sunset":"no","minimum_antennas":"4"}
]`

func TestAutoFillJSON(t *testing.T) {
	records := writeFile(t, "proposals.json", candidateRecords)

	out, err := execute(t, "autofill", "--records", records, "--start", "2030-01-01", "--end", "2030-01-01", "--json")
	require.NoError(t, err)

	var report autoFillReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(86400), report.WindowSeconds)
	assert.Equal(t, float64(0), report.RemainingSeconds)
	require.Len(t, report.Candidates, 2)
	assert.True(t, report.Candidates[0].Selected)
	assert.False(t, report.Candidates[1].Selected)
}

func TestAutoFillTable(t *testing.T) {
	records := writeFile(t, "proposals.json", candidateRecords)

	out, err := execute(t, "autofill", "-r", records, "--start", "2030-01-01", "--end", "2030-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "SCI-1")
	assert.Contains(t, out, "SELECTED")
	assert.Contains(t, out, "remaining")
}

func TestAutoFillRejectsPastWindow(t *testing.T) {
	records := writeFile(t, "proposals.json", candidateRecords)

	_, err := execute(t, "autofill", "-r", records, "--start", "2029-12-31", "--end", "2030-01-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before today")
}

func TestAutoFillRejectsMalformedRecords(t *testing.T) {
	records := writeFile(t, "proposals.json", `[{"id":"x","proposal_id":"SCI-1"}]`)

	_, err := execute(t, "autofill", "-r", records, "--start", "2030-01-01", "--end", "2030-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}

func TestAutoFillRequiresFlags(t *testing.T) {
	_, err := execute(t, "autofill", "--start", "2030-01-01")
	require.Error(t, err)
}

func TestProjectEnvelope(t *testing.T) {
	timetable := writeFile(t, "timetable.json", `{"data":{
  "id":"tt-1","name":"January","start_date":"2030-01-01","end_date":"2030-01-02",
  "proposals":[
    {"id":"1","proposal_id":"SCI-1","simulated_duration":"3600","scheduled_start_datetime":"2030-01-01 10:00:00"},
    {"id":"2","proposal_id":"SCI-2","simulated_duration":"3600"}
  ]}}`)

	out, err := execute(t, "project", "--timetable", timetable)
	require.NoError(t, err)

	var events []models.CalendarEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "SCI-1", events[0].Title)
	assert.Equal(t, time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC), events[0].Start.UTC())
	assert.Equal(t, time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC), events[0].End.UTC())
	assert.False(t, events[0].AllDay)
}

func TestProjectBareObject(t *testing.T) {
	timetable := writeFile(t, "timetable.json", `{"id":"tt-1","start_date":"2030-01-01","end_date":"2030-01-01",
  "proposals":[{"id":"5","proposal_id":"SCI-5","simulated_duration":"60","scheduled_start_datetime":"2030-01-01T00:00:00Z"}]}`)

	out, err := execute(t, "project", "-t", timetable)
	require.NoError(t, err)

	var events []models.CalendarEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "SCI-5", events[0].Title)
}

func TestProjectMissingFile(t *testing.T) {
	_, err := execute(t, "project", "-t", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
