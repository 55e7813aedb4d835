package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagStyleValidation(t *testing.T) {
	v := NewValidator()
	for _, ok := range []string{"yes", "No", "TRUE", "false", ""} {
		rec := ProposalRecord{ProposalID: "P-1", NightObs: ok}
		assert.NoError(t, v.Struct(rec), ok)
	}
	rec := ProposalRecord{ProposalID: "P-1", AvoidSunriseSunset: "maybe"}
	assert.Error(t, v.Struct(rec))
}

func TestToggleRequestRequiresIndex(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Struct(ToggleRequest{}))

	neg := -1
	assert.Error(t, v.Struct(ToggleRequest{Index: &neg}))

	zero := 0
	assert.NoError(t, v.Struct(ToggleRequest{Index: &zero}))
}

func TestCreateExportRequestFormat(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(CreateExportRequest{Format: "pdf"}))
	assert.Error(t, v.Struct(CreateExportRequest{Format: "xlsx"}))
}
