package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Timetable Alpha",
		Headers: []string{"Proposal", "Start", "End"},
		Rows: [][]string{
			{"P-1", "2030-01-01 00:00:00", "2030-01-01 01:00:00"},
			{"P-2, night", "2030-01-01 02:00:00", "2030-01-01 04:00:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Proposal,Start,End\n" +
		"P-1,2030-01-01 00:00:00,2030-01-01 01:00:00\n" +
		"\"P-2, night\",2030-01-01 02:00:00,2030-01-01 04:00:00\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only-one"})

	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
	assert.Equal(t, "csv", NewCSVExporter().Extension())
}
