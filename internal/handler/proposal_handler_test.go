package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/middleware"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

type proposalServiceMock struct {
	records   []dto.ProposalRecord
	hit       bool
	err       error
	lastQuery dto.ProposalQuery
}

func (m *proposalServiceMock) ListCandidates(ctx context.Context, query dto.ProposalQuery) ([]dto.ProposalRecord, bool, error) {
	m.lastQuery = query
	return m.records, m.hit, m.err
}

func TestProposalHandlerListReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &proposalServiceMock{records: []dto.ProposalRecord{{ID: "1", ProposalID: "SCI-2030-01"}}, hit: true}
	handler := NewProposalHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/proposals?search=sci&refresh=true", nil)
	middleware.WithResponseMeta()(c)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sci", mockSvc.lastQuery.Search)
	assert.True(t, mockSvc.lastQuery.Refresh)

	envelope := decodeEnvelope(t, w)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope["meta"], &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")

	var records []dto.ProposalRecord
	require.NoError(t, json.Unmarshal(envelope["data"], &records))
	require.Len(t, records, 1)
	assert.Equal(t, "SCI-2030-01", records[0].ProposalID)
}

func TestProposalHandlerListSourceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProposalHandler(&proposalServiceMock{err: appErrors.Unavailable(assert.AnError, "proposal catalogue unavailable")})

	c, w := newGinContext(http.MethodGet, "/proposals", nil)
	handler.List(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
}
