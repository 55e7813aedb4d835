package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/middleware"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
	"github.com/noah-isme/obs-timetable-api/pkg/response"
)

type proposalLister interface {
	ListCandidates(ctx context.Context, query dto.ProposalQuery) ([]dto.ProposalRecord, bool, error)
}

// ProposalHandler exposes the candidate catalogue.
type ProposalHandler struct {
	service proposalLister
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(svc proposalLister) *ProposalHandler {
	return &ProposalHandler{service: svc}
}

// List godoc
// @Summary List candidate proposals
// @Description Returns the proposals eligible for scheduling. Served from cache when enabled unless refresh=true.
// @Tags Proposals
// @Produce json
// @Param search query string false "Filter by proposal id, description or owner"
// @Param refresh query bool false "Bypass the candidate cache"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	var query dto.ProposalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	records, hit, err := h.service.ListCandidates(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, records, nil, middleware.ExtractMeta(c))
}
